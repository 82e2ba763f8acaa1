// ==============================================================================================
// FILE: pkgmanager/pkgmanager.go
// ==============================================================================================
// PACKAGE: pkgmanager
// PURPOSE: gopa's package manager collaborator. `install` copies a local
//          package directory (containing a gopa.toml manifest) into a local
//          package store; `use` loads a package's entry file into the
//          caller's running interpreter. Registry installation - actually
//          downloading a package over the network - is deliberately left
//          unimplemented, exactly as in gopa_lang/packages.py's
//          _install_registry, since a real package registry is a Non-goal.
// ==============================================================================================

package pkgmanager

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/asrayg/gopa/permission"
)

// Manifest is gopa.toml's shape.
type Manifest struct {
	Name        string   `toml:"name"`
	Version     string   `toml:"version"`
	Entry       string   `toml:"entry"`
	Permissions []string `toml:"permissions"`
}

func (m Manifest) entryOrDefault() string {
	if m.Entry == "" {
		return "src/main.gopa"
	}
	return m.Entry
}

// LoadFile is supplied by the caller (the evaluator) to lex/parse/execute a
// .gopa source file into the running interpreter's global scope.
type LoadFile func(path string) error

// Manager mirrors gopa_lang/packages.py's PackageManager.
type Manager struct {
	Permissions permission.Set
	StoreDir    string // analogous to ~/.gopa_packages
	Loaded      map[string]Manifest
}

func New(perms permission.Set, storeDir string) *Manager {
	return &Manager{Permissions: perms, StoreDir: storeDir, Loaded: make(map[string]Manifest)}
}

// Install copies a local package (a directory with a gopa.toml and a src/
// tree) into the store, keyed by name/version. Installing from a bare
// package name (no path prefix) is the registry path, which always fails -
// there is no real registry to talk to.
func (m *Manager) Install(packageName string) error {
	if err := m.Permissions.CheckPackages(); err != nil {
		return err
	}

	if !isLocalPath(packageName) {
		return fmt.Errorf("registry installation not implemented; use a local path: ./%s", packageName)
	}
	return m.installLocal(packageName)
}

func isLocalPath(name string) bool {
	return filepath.IsAbs(name) || strings.HasPrefix(name, "./") || strings.HasPrefix(name, "../")
}

func (m *Manager) installLocal(path string) error {
	sourcePath, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(sourcePath); err != nil {
		return fmt.Errorf("package path not found: %s", path)
	}

	var manifest Manifest
	manifestPath := filepath.Join(sourcePath, "gopa.toml")
	if _, err := toml.DecodeFile(manifestPath, &manifest); err != nil {
		return fmt.Errorf("failed to parse manifest: %w", err)
	}
	if manifest.Name == "" {
		manifest.Name = filepath.Base(sourcePath)
	}
	if manifest.Version == "" {
		manifest.Version = "1.0.0"
	}

	targetDir := filepath.Join(m.StoreDir, manifest.Name, manifest.Version)
	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return err
	}

	srcTree := filepath.Join(sourcePath, "src")
	if _, err := os.Stat(srcTree); err == nil {
		if err := copyTree(srcTree, filepath.Join(targetDir, "src")); err != nil {
			return err
		}
	}

	f, err := os.Create(filepath.Join(targetDir, "gopa.toml"))
	if err != nil {
		return err
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(manifest); err != nil {
		return err
	}

	fmt.Printf("Installed %s v%s\n", manifest.Name, manifest.Version)
	return nil
}

// Use loads a package's entry file into the running interpreter via load,
// enforcing that the package's requested permissions are already granted.
func (m *Manager) Use(packageName string, load LoadFile) error {
	if err := m.Permissions.CheckPackages(); err != nil {
		return err
	}

	packageDir := filepath.Join(m.StoreDir, packageName)
	versions, err := listVersions(packageDir)
	if err != nil || len(versions) == 0 {
		return fmt.Errorf("package %q not found; install it first", packageName)
	}
	versionDir := filepath.Join(packageDir, versions[0])

	var manifest Manifest
	manifestPath := filepath.Join(versionDir, "gopa.toml")
	if _, err := toml.DecodeFile(manifestPath, &manifest); err != nil {
		return fmt.Errorf("manifest not found for package %q", packageName)
	}

	for _, perm := range manifest.Permissions {
		if !m.hasPermission(perm) {
			return fmt.Errorf("package %q requires %s permission", packageName, perm)
		}
	}

	entryPath := filepath.Join(versionDir, manifest.entryOrDefault())
	if _, err := os.Stat(entryPath); err != nil {
		return fmt.Errorf("entry file not found: %s", entryPath)
	}

	if err := load(entryPath); err != nil {
		return err
	}
	m.Loaded[packageName] = manifest
	return nil
}

func (m *Manager) hasPermission(name string) bool {
	switch name {
	case "network":
		return m.Permissions.Network
	case "files":
		return m.Permissions.Files
	case "graphics":
		return m.Permissions.Graphics
	case "sound":
		return m.Permissions.Sound
	case "python_ffi":
		return m.Permissions.Python
	default:
		return true
	}
}

func listVersions(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var versions []string
	for _, e := range entries {
		if e.IsDir() {
			versions = append(versions, e.Name())
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(versions)))
	return versions, nil
}

func copyTree(src, dst string) error {
	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if info.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		return copyFile(path, target)
	})
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()
	_, err = io.Copy(out, in)
	return err
}
