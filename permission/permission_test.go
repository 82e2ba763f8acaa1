// ==============================================================================================
// FILE: permission/permission_test.go
// ==============================================================================================
// PURPOSE: Unit tests for the capability sandbox - default/empty grants, the
//          comma-separated Parse format, and the Timers/Cron relaxation
//          rules that let a broader grant stand in for a narrower one.
// ==============================================================================================

package permission

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_OnlyGrantsPackages(t *testing.T) {
	s := Default()
	assert.True(t, s.Packages)
	assert.False(t, s.Network)
	assert.False(t, s.Files)
	assert.False(t, s.Graphics)
	assert.False(t, s.Sound)
	assert.False(t, s.Python)
	assert.False(t, s.Server)
	assert.False(t, s.Timers)
	assert.False(t, s.Cron)
	assert.False(t, s.State)
}

func TestAll_GrantsEveryCapability(t *testing.T) {
	s := All()
	assert.True(t, s.Network)
	assert.True(t, s.Files)
	assert.True(t, s.Graphics)
	assert.True(t, s.Sound)
	assert.True(t, s.Packages)
	assert.True(t, s.Python)
	assert.True(t, s.Server)
	assert.True(t, s.Timers)
	assert.True(t, s.Cron)
	assert.True(t, s.State)
}

func TestParse_EmptyStringIsDefault(t *testing.T) {
	s := Parse("")
	assert.Equal(t, Default(), s)

	s = Parse("   ")
	assert.Equal(t, Default(), s)
}

func TestParse_CommaSeparatedList(t *testing.T) {
	s := Parse("network,files, graphics ,SOUND")
	assert.True(t, s.Network)
	assert.True(t, s.Files)
	assert.True(t, s.Graphics)
	assert.True(t, s.Sound)
	assert.False(t, s.Server)
	assert.False(t, s.Packages, "Parse does not implicitly grant packages like Default does")
}

func TestParse_PythonAcceptsEitherSpelling(t *testing.T) {
	assert.True(t, Parse("python").Python)
	assert.True(t, Parse("python_ffi").Python)
}

func TestParse_UnknownCapabilityIsIgnored(t *testing.T) {
	s := Parse("network,not-a-real-capability")
	assert.True(t, s.Network)
}

func TestCheckNetwork(t *testing.T) {
	require.Error(t, Set{}.CheckNetwork())
	require.NoError(t, Set{Network: true}.CheckNetwork())
}

func TestCheckFiles(t *testing.T) {
	require.Error(t, Set{}.CheckFiles())
	require.NoError(t, Set{Files: true}.CheckFiles())
}

func TestCheckGraphics(t *testing.T) {
	require.Error(t, Set{}.CheckGraphics())
	require.NoError(t, Set{Graphics: true}.CheckGraphics())
}

func TestCheckSound(t *testing.T) {
	require.Error(t, Set{}.CheckSound())
	require.NoError(t, Set{Sound: true}.CheckSound())
}

func TestCheckPackages(t *testing.T) {
	require.Error(t, Set{}.CheckPackages())
	require.NoError(t, Set{Packages: true}.CheckPackages())
}

func TestCheckPython(t *testing.T) {
	require.Error(t, Set{}.CheckPython())
	require.NoError(t, Set{Python: true}.CheckPython())
}

func TestCheckServer(t *testing.T) {
	require.Error(t, Set{}.CheckServer())
	require.NoError(t, Set{Server: true}.CheckServer())
}

func TestCheckTimers_GraphicsImpliesTimers(t *testing.T) {
	require.Error(t, Set{}.CheckTimers())
	require.NoError(t, Set{Timers: true}.CheckTimers())
	require.NoError(t, Set{Graphics: true}.CheckTimers(), "graphics grant should imply timers")
}

func TestCheckCron_TimersAndGraphicsImplyCron(t *testing.T) {
	require.Error(t, Set{}.CheckCron())
	require.NoError(t, Set{Cron: true}.CheckCron())
	require.NoError(t, Set{Timers: true}.CheckCron(), "timers grant should imply cron")
	require.NoError(t, Set{Graphics: true}.CheckCron(), "graphics grant should transitively imply cron")
}

func TestCheckState(t *testing.T) {
	require.Error(t, Set{}.CheckState())
	require.NoError(t, Set{State: true}.CheckState())
}

func TestViolationError_MessageNamesTheCapability(t *testing.T) {
	err := Set{}.CheckNetwork()
	require.Error(t, err)
	assert.Equal(t, "network access not allowed", err.Error())
}
