// Package policy maps configured tier names to per-category enforcement
// levels for repository validation.
package policy

import (
	"fmt"
	"sort"
	"strings"
)

// Level is how hard a validation category is enforced.
type Level string

const (
	LevelOff  Level = "off"
	LevelWarn Level = "warn"
	LevelFail Level = "fail"
)

// Profile is a named bundle of enforcement levels. Integrity is fail in
// every tier: structural and schema defects are never negotiable.
type Profile struct {
	Name      string
	Integrity Level
	Quality   Level
	Strict    Level
}

// EnvVar is the environment variable consulted when no explicit tier is
// passed at the call site.
const EnvVar = "TK_POLICY_TIER"

// DefaultTier applies when nothing else names a tier.
const DefaultTier = "integrity"

// tiers is the closed set of named tiers. hard is an alias of strict, kept
// so existing CI configurations using the historical name stay valid.
var tiers = map[string]Profile{
	"integrity": {Name: "integrity", Integrity: LevelFail, Quality: LevelOff, Strict: LevelOff},
	"warn":      {Name: "warn", Integrity: LevelFail, Quality: LevelWarn, Strict: LevelOff},
	"quality":   {Name: "quality", Integrity: LevelFail, Quality: LevelFail, Strict: LevelOff},
	"opt-in":    {Name: "opt-in", Integrity: LevelFail, Quality: LevelFail, Strict: LevelWarn},
	"strict":    {Name: "strict", Integrity: LevelFail, Quality: LevelFail, Strict: LevelFail},
	"hard":      {Name: "hard", Integrity: LevelFail, Quality: LevelFail, Strict: LevelFail},
}

// UnknownTierError is a usage error: the tier name is not in the closed set.
type UnknownTierError struct {
	Name string
}

func (e *UnknownTierError) Error() string {
	return fmt.Sprintf("unknown policy tier %q (valid tiers: %s)", e.Name, strings.Join(TierNames(), ", "))
}

// TierNames returns the valid tier names, sorted.
func TierNames() []string {
	names := make([]string, 0, len(tiers))
	for name := range tiers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup resolves a single tier name.
func Lookup(name string) (Profile, error) {
	p, ok := tiers[name]
	if !ok {
		return Profile{}, &UnknownTierError{Name: name}
	}
	return p, nil
}

// Resolve picks the effective tier with the precedence
// explicit override > environment variable > repository config > default.
// getenv is injected so resolution stays a pure function in tests.
func Resolve(override string, getenv func(string) string, configTier string) (Profile, error) {
	switch {
	case override != "":
		return Lookup(override)
	case getenv != nil && getenv(EnvVar) != "":
		return Lookup(getenv(EnvVar))
	case configTier != "":
		return Lookup(configTier)
	default:
		return Lookup(DefaultTier)
	}
}
