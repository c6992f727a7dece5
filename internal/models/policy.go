package models

import "time"

const PolicyVersion = "v1"

type IgnoreRule struct {
	Reason           string    `yaml:"reason"`
	CreatedAt        time.Time `yaml:"created"`
	ExpiresAfterDays int       `yaml:"expiresAfterDays"`
	Path             string    `yaml:"path,omitempty"`
}

// Expired reports whether the rule stopped applying at now. A rule without a
// retention period never expires.
func (r IgnoreRule) Expired(now time.Time) bool {
	if r.ExpiresAfterDays <= 0 {
		return false
	}

	return now.After(r.CreatedAt.AddDate(0, 0, r.ExpiresAfterDays))
}

type PatchRule struct {
	PatchedAt time.Time `yaml:"patched"`
	Path      string    `yaml:"path,omitempty"`
	PatchID   string    `yaml:"patchId,omitempty"`
}

type Policy struct {
	Version string                  `yaml:"version"`
	Ignore  map[string][]IgnoreRule `yaml:"ignore"`
	Patch   map[string][]PatchRule  `yaml:"patch"`
}

func NewPolicy() *Policy {
	return &Policy{
		Version: PolicyVersion,
		Ignore:  make(map[string][]IgnoreRule),
		Patch:   make(map[string][]PatchRule),
	}
}

// Clone returns a deep copy so callers can merge into it without touching the
// policy they were given.
func (p *Policy) Clone() *Policy {
	clone := NewPolicy()
	if p == nil {
		return clone
	}

	if p.Version != "" {
		clone.Version = p.Version
	}
	for id, rules := range p.Ignore {
		clone.Ignore[id] = append([]IgnoreRule(nil), rules...)
	}
	for id, rules := range p.Patch {
		clone.Patch[id] = append([]PatchRule(nil), rules...)
	}

	return clone
}

// IsIgnored uses the most recently created rule for the id.
func (p *Policy) IsIgnored(id string, now time.Time) bool {
	if p == nil {
		return false
	}

	rules := p.Ignore[id]
	if len(rules) == 0 {
		return false
	}

	latest := rules[0]
	for _, rule := range rules[1:] {
		if !rule.CreatedAt.Before(latest.CreatedAt) {
			latest = rule
		}
	}

	return !latest.Expired(now)
}

func (p *Policy) IsPatched(id string) bool {
	if p == nil {
		return false
	}

	return len(p.Patch[id]) > 0
}
