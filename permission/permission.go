// ==============================================================================================
// FILE: permission/permission.go
// ==============================================================================================
// PACKAGE: permission
// PURPOSE: The capability sandbox gopa programs run under. A gopa script only
//          gets access to network/files/graphics/sound/server/python/timers/
//          cron/persistent-state/packages when the host process grants it,
//          mirroring gopa_lang/permissions.py's Permissions class.
// ==============================================================================================

package permission

import (
	"fmt"
	"strings"
)

// Set is the immutable-after-construction capability grant for one run.
type Set struct {
	Network  bool
	Files    bool
	Graphics bool
	Sound    bool
	Packages bool
	Python   bool
	Server   bool
	Timers   bool
	Cron     bool
	State    bool
}

// Default mirrors Permissions()'s zero-argument constructor: everything
// locked down except package loading.
func Default() Set {
	return Set{Packages: true}
}

// Parse builds a Set from a comma-separated list such as "network,files".
// An empty string yields Default().
func Parse(list string) Set {
	s := Set{}
	if strings.TrimSpace(list) == "" {
		return Default()
	}
	for _, raw := range strings.Split(list, ",") {
		switch strings.ToLower(strings.TrimSpace(raw)) {
		case "network":
			s.Network = true
		case "files":
			s.Files = true
		case "graphics":
			s.Graphics = true
		case "sound":
			s.Sound = true
		case "packages":
			s.Packages = true
		case "python", "python_ffi":
			s.Python = true
		case "server":
			s.Server = true
		case "timers":
			s.Timers = true
		case "cron":
			s.Cron = true
		case "state":
			s.State = true
		}
	}
	return s
}

// ViolationError is returned by every Check* call that fails, so the
// evaluator can surface it as an *object.Error the same way any other
// runtime error is surfaced.
type ViolationError struct {
	Capability string
}

func (e *ViolationError) Error() string {
	return fmt.Sprintf("%s access not allowed", e.Capability)
}

func (s Set) CheckNetwork() error {
	if !s.Network {
		return &ViolationError{"network"}
	}
	return nil
}

func (s Set) CheckFiles() error {
	if !s.Files {
		return &ViolationError{"file"}
	}
	return nil
}

func (s Set) CheckGraphics() error {
	if !s.Graphics {
		return &ViolationError{"graphics"}
	}
	return nil
}

func (s Set) CheckSound() error {
	if !s.Sound {
		return &ViolationError{"sound"}
	}
	return nil
}

func (s Set) CheckPackages() error {
	if !s.Packages {
		return &ViolationError{"package"}
	}
	return nil
}

func (s Set) CheckPython() error {
	if !s.Python {
		return &ViolationError{"python interop"}
	}
	return nil
}

func (s Set) CheckServer() error {
	if !s.Server {
		return &ViolationError{"server"}
	}
	return nil
}

// CheckTimers relaxes under Graphics: a script that can draw can also
// schedule (graphics implies timers), matching permissions.py's
// check_timers.
func (s Set) CheckTimers() error {
	if !s.Timers && !s.Graphics {
		return &ViolationError{"timer"}
	}
	return nil
}

// CheckCron relaxes under Timers (and transitively under Graphics, since
// Graphics implies Timers): cron is the least-privileged and widest grant.
func (s Set) CheckCron() error {
	if !s.Cron && !s.Timers && !s.Graphics {
		return &ViolationError{"cron"}
	}
	return nil
}

func (s Set) CheckState() error {
	if !s.State {
		return &ViolationError{"persistent state"}
	}
	return nil
}

// All grants every capability - used by `gopa test`'s conformance runner so
// fixture scripts can exercise every collaborator.
func All() Set {
	return Set{
		Network: true, Files: true, Graphics: true, Sound: true,
		Packages: true, Python: true, Server: true, Timers: true,
		Cron: true, State: true,
	}
}
