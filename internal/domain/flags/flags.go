// Package flags resolves the per-request feature flag set.
package flags

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/b2bsearch/internal/domain/search/mode"
)

// FlagSet is the resolved, immutable set of switches for one request.
type FlagSet struct {
	SearchEnabled          bool      `json:"searchEnabled"`
	Strategy               mode.Mode `json:"searchStrategy"`
	HybridEnabled          bool      `json:"hybridSearchEnabled"`
	PersonalizationEnabled bool      `json:"personalizationEnabled"`
	FuzzyEnabled           bool      `json:"fuzzyMatchingEnabled"`
	SynonymEnabled         bool      `json:"synonymExpansionEnabled"`
}

// WantsVector reports whether the resolved flags allow a semantic similarity clause.
func (f FlagSet) WantsVector() bool {
	return f.HybridEnabled || f.Strategy == mode.SemanticOnly
}

// Overrides holds request-level overrides. A nil field inherits the default.
// SearchEnabled is deliberately absent.
type Overrides struct {
	Strategy               *mode.Mode
	HybridEnabled          *bool
	PersonalizationEnabled *bool
	FuzzyEnabled           *bool
	SynonymEnabled         *bool
	// LegacyHybrid can only narrow HybridEnabled; true never turns it on.
	LegacyHybrid *bool
}

// IsZero reports whether no override is set.
func (o Overrides) IsZero() bool {
	return o.Strategy == nil && o.HybridEnabled == nil && o.PersonalizationEnabled == nil &&
		o.FuzzyEnabled == nil && o.SynonymEnabled == nil && o.LegacyHybrid == nil
}

// Resolve layers o on top of defaults.
//
//   - Strategy: override, else default.
//   - HybridEnabled: (override, else default) AND Strategy == Hybrid AND LegacyHybrid (when set).
//   - Personalization, Fuzzy, Synonym: (override, else default) AND defaults.SearchEnabled.
//   - SearchEnabled: always the default.
func Resolve(defaults FlagSet, o Overrides) FlagSet {
	strategy := defaults.Strategy
	if o.Strategy != nil {
		strategy = *o.Strategy
	}
	if !strategy.IsValid() {
		strategy = mode.Default
	}

	return FlagSet{
		SearchEnabled:          defaults.SearchEnabled,
		Strategy:               strategy,
		HybridEnabled:          pick(o.HybridEnabled, defaults.HybridEnabled) && strategy == mode.Hybrid && pick(o.LegacyHybrid, true),
		PersonalizationEnabled: pick(o.PersonalizationEnabled, defaults.PersonalizationEnabled) && defaults.SearchEnabled,
		FuzzyEnabled:           pick(o.FuzzyEnabled, defaults.FuzzyEnabled) && defaults.SearchEnabled,
		SynonymEnabled:         pick(o.SynonymEnabled, defaults.SynonymEnabled) && defaults.SearchEnabled,
	}
}

func pick(override *bool, def bool) bool {
	if override != nil {
		return *override
	}
	return def
}

// ParseBool reads an env-style boolean. Empty input yields def;
// "true", "1", "yes" and "on" (any case) are true, anything else is false.
func ParseBool(s string, def bool) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	switch strings.ToLower(s) {
	case "true", "1", "yes", "on":
		return true
	default:
		return false
	}
}

// Raw is the string-typed form read from configuration.
type Raw struct {
	SearchEnabled          string
	Strategy               string
	HybridEnabled          string
	PersonalizationEnabled string
	FuzzyEnabled           string
	SynonymEnabled         string
}

// Defaults builds the process-wide FlagSet. Everything defaults to on,
// strategy defaults to hybrid.
func Defaults(r Raw) (FlagSet, error) {
	strategy := mode.Default
	if strings.TrimSpace(r.Strategy) != "" {
		m, err := mode.Parse(r.Strategy)
		if err != nil {
			return FlagSet{}, fmt.Errorf("flags: %w", err)
		}
		strategy = m
	}

	return FlagSet{
		SearchEnabled:          ParseBool(r.SearchEnabled, true),
		Strategy:               strategy,
		HybridEnabled:          ParseBool(r.HybridEnabled, true),
		PersonalizationEnabled: ParseBool(r.PersonalizationEnabled, true),
		FuzzyEnabled:           ParseBool(r.FuzzyEnabled, true),
		SynonymEnabled:         ParseBool(r.SynonymEnabled, true),
	}, nil
}
