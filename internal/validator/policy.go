package validator

import (
	"fmt"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v2"

	"github.com/ortelius/gost-sbom/model"
)

// Policy holds the tunable parts of the rule sets.
type Policy struct {
	SupportedSpecVersions []string   `yaml:"supported_spec_versions"`
	VCS                   VCSPolicy  `yaml:"vcs"`
	Gost                  GostPolicy `yaml:"gost"`
}

// VCSPolicy maps component types to the severity of a missing VCS reference.
type VCSPolicy struct {
	DefaultSeverity model.Level            `yaml:"default_severity"`
	Severity        map[string]model.Level `yaml:"severity"`
	// SkipTypes are not checked, and neither is anything nested below them.
	SkipTypes []string `yaml:"skip_types"`
}

// GostPolicy controls the GOST field completeness rule.
type GostPolicy struct {
	// DistinguishEmpty reports `"value": ""` as "declared but empty" instead of missing.
	DistinguishEmpty bool `yaml:"distinguish_empty"`
}

// DefaultPolicy warns on every missing VCS reference and distinguishes empty GOST values.
func DefaultPolicy() Policy {
	return Policy{
		SupportedSpecVersions: []string{"1.4", "1.5", "1.6"},
		VCS: VCSPolicy{
			DefaultSeverity: model.LevelWarning,
			Severity:        map[string]model.Level{},
			SkipTypes:       []string{"operating-system", "framework"},
		},
		Gost: GostPolicy{DistinguishEmpty: true},
	}
}

// LoadPolicy reads a YAML policy file from fs on top of DefaultPolicy.
// An empty path yields the defaults; a named file that cannot be read is an error.
func LoadPolicy(fs afero.Fs, path string) (Policy, error) {
	policy := DefaultPolicy()
	if path == "" {
		return policy, nil
	}

	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return policy, fmt.Errorf("read policy %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &policy); err != nil {
		return policy, fmt.Errorf("unmarshal %s: %w", path, err)
	}

	if err := checkLevel(policy.VCS.DefaultSeverity); err != nil {
		return policy, fmt.Errorf("vcs.default_severity: %w", err)
	}
	for compType, level := range policy.VCS.Severity {
		if err := checkLevel(level); err != nil {
			return policy, fmt.Errorf("vcs.severity[%s]: %w", compType, err)
		}
	}

	return policy, nil
}

func checkLevel(level model.Level) error {
	switch level {
	case model.LevelError, model.LevelWarning, model.LevelInfo:
		return nil
	default:
		return fmt.Errorf("unknown level %q", level)
	}
}

func (p Policy) vcsSeverity(compType string) model.Level {
	if level, ok := p.VCS.Severity[compType]; ok {
		return level
	}
	return p.VCS.DefaultSeverity
}

func (p Policy) skipsVCS(compType string) bool {
	for _, t := range p.VCS.SkipTypes {
		if t == compType {
			return true
		}
	}
	return false
}

func (p Policy) supportsSpec(version string) bool {
	for _, v := range p.SupportedSpecVersions {
		if v == version {
			return true
		}
	}
	return false
}
