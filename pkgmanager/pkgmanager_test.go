// ==============================================================================================
// FILE: pkgmanager/pkgmanager_test.go
// ==============================================================================================
// PURPOSE: Unit tests for the package manager - installing a local package
//          into the store, loading it back out via Use, and the permission
//          gates both operations must respect.
// ==============================================================================================

package pkgmanager

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asrayg/gopa/permission"
)

func writeLocalPackage(t *testing.T, dir, manifest, entrySource string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "src"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "gopa.toml"), []byte(manifest), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "src", "main.gopa"), []byte(entrySource), 0o644))
}

func TestInstall_RequiresPackagesPermission(t *testing.T) {
	m := New(permission.Set{}, t.TempDir())
	err := m.Install("./does-not-matter")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "package")
}

func TestInstall_RejectsRegistryNames(t *testing.T) {
	m := New(permission.Default(), t.TempDir())
	err := m.Install("left-pad")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "registry installation not implemented")
}

func TestInstall_CopiesLocalPackageIntoStore(t *testing.T) {
	source := t.TempDir()
	writeLocalPackage(t, source, `
name = "greeter"
version = "1.0.0"
entry = "src/main.gopa"
permissions = ["files"]
`, `print "hello from greeter"`)

	store := t.TempDir()
	m := New(permission.Default(), store)

	require.NoError(t, m.Install(source))

	installedEntry := filepath.Join(store, "greeter", "1.0.0", "src", "main.gopa")
	data, err := os.ReadFile(installedEntry)
	require.NoError(t, err)
	assert.Equal(t, `print "hello from greeter"`, string(data))
}

func TestInstall_DefaultsNameAndVersionWhenManifestOmitsThem(t *testing.T) {
	source := t.TempDir()
	writeLocalPackage(t, source, `entry = "src/main.gopa"`, `print "ok"`)

	store := t.TempDir()
	m := New(permission.Default(), store)
	require.NoError(t, m.Install(source))

	expectedName := filepath.Base(source)
	_, err := os.Stat(filepath.Join(store, expectedName, "1.0.0"))
	require.NoError(t, err)
}

func TestUse_RequiresPackagesPermission(t *testing.T) {
	m := New(permission.Set{}, t.TempDir())
	err := m.Use("greeter", func(string) error { return nil })
	require.Error(t, err)
}

func TestUse_FailsWhenPackageNotInstalled(t *testing.T) {
	m := New(permission.Default(), t.TempDir())
	err := m.Use("missing-package", func(string) error { return nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestUse_LoadsInstalledPackageEntryFile(t *testing.T) {
	source := t.TempDir()
	writeLocalPackage(t, source, `
name = "mathlib"
version = "2.0.0"
entry = "src/main.gopa"
`, `print "loaded"`)

	store := t.TempDir()
	m := New(permission.Default(), store)
	require.NoError(t, m.Install(source))

	var loadedPath string
	err := m.Use("mathlib", func(path string) error {
		loadedPath = path
		return nil
	})
	require.NoError(t, err)
	assert.Contains(t, loadedPath, filepath.Join("mathlib", "2.0.0", "src", "main.gopa"))
	assert.Contains(t, m.Loaded, "mathlib")
}

func TestUse_FailsWhenPackageManifestRequiresUngrantedPermission(t *testing.T) {
	source := t.TempDir()
	writeLocalPackage(t, source, `
name = "netlib"
version = "1.0.0"
entry = "src/main.gopa"
permissions = ["network"]
`, `print "net"`)

	store := t.TempDir()
	m := New(permission.Default(), store) // Default() does not grant network
	require.NoError(t, m.Install(source))

	err := m.Use("netlib", func(string) error { return nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires")
}
