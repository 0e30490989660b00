package authz

import "fmt"

// Module identifies a functional area of a project that can be granted
// independently. The set is closed: unknown names are rejected at the API
// boundary instead of silently denying at check time.
type Module string

const (
	ModuleTasks       Module = "tasks"
	ModuleRoadmap     Module = "roadmap"
	ModuleRisks       Module = "risk_register"
	ModuleStakeholder Module = "stakeholders"
	ModuleDiscussions Module = "discussions"
	ModuleBacklog     Module = "backlog"
	ModuleCapacity    Module = "team_capacity"
	ModuleRetros      Module = "retrospectives"
	ModuleBudget      Module = "budget"
	ModuleAnalytics   Module = "analytics"
)

// knownModules is the authoritative order-stable list.
var knownModules = []Module{
	ModuleTasks,
	ModuleRoadmap,
	ModuleRisks,
	ModuleStakeholder,
	ModuleDiscussions,
	ModuleBacklog,
	ModuleCapacity,
	ModuleRetros,
	ModuleBudget,
	ModuleAnalytics,
}

// KnownModules returns every grantable module.
func KnownModules() []Module {
	out := make([]Module, len(knownModules))
	copy(out, knownModules)
	return out
}

// ParseModule validates a module name coming off the wire.
func ParseModule(s string) (Module, error) {
	for _, m := range knownModules {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown module %q", s)
}

// Level is an access level on a module. Write implies read.
type Level string

const (
	LevelRead  Level = "read"
	LevelWrite Level = "write"
)

// ParseLevel validates an access level coming off the wire.
func ParseLevel(s string) (Level, error) {
	switch Level(s) {
	case LevelRead, LevelWrite:
		return Level(s), nil
	}
	return "", fmt.Errorf("unknown access level %q", s)
}

// Satisfies reports whether holding l meets a required level.
func (l Level) Satisfies(required Level) bool {
	if required == LevelWrite {
		return l == LevelWrite
	}
	return l == LevelRead || l == LevelWrite
}
