// Package parser reads scenario YAML files and applies CLI overrides
// (SPEC_FULL.md component L). Invariant checking beyond basic shape lives
// in pkg/scenario/validator, not here.
package parser

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jihwankim/flipsim/pkg/scenario"
)

// Parser parses scenario YAML files, substituting ${VAR}/$VAR references
// against its own variable table and the process environment.
type Parser struct {
	Variables map[string]string
}

// New creates a parser with an optional starting variable set.
func New(variables map[string]string) *Parser {
	if variables == nil {
		variables = make(map[string]string)
	}
	return &Parser{Variables: variables}
}

// ParseFile reads path and parses it as a scenario.
func (p *Parser) ParseFile(path string) (*scenario.Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("parser: reading scenario file: %w", err)
	}
	return p.Parse(data)
}

// Parse parses a scenario from YAML bytes.
func (p *Parser) Parse(data []byte) (*scenario.Scenario, error) {
	substituted := p.substituteVariables(string(data))

	var s scenario.Scenario
	if err := yaml.Unmarshal([]byte(substituted), &s); err != nil {
		return nil, fmt.Errorf("parser: parsing YAML: %w", err)
	}
	if err := validateShape(&s); err != nil {
		return nil, err
	}
	return &s, nil
}

var varRe = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

func (p *Parser) substituteVariables(content string) string {
	return varRe.ReplaceAllStringFunc(content, func(match string) string {
		var name string
		if strings.HasPrefix(match, "${") {
			name = match[2 : len(match)-1]
		} else {
			name = match[1:]
		}
		if val, ok := p.Variables[name]; ok {
			return val
		}
		if val := os.Getenv(name); val != "" {
			return val
		}
		return match
	})
}

// SetVariable sets a single substitution variable.
func (p *Parser) SetVariable(key, value string) {
	p.Variables[key] = value
}

// SetVariables merges vars into the parser's variable table.
func (p *Parser) SetVariables(vars map[string]string) {
	for k, v := range vars {
		p.Variables[k] = v
	}
}

// ParseOverrides parses "--set key=value" strings into a map, preserving
// dotted paths like "phases.0.campaign.count" unevaluated.
func ParseOverrides(overrides []string) (map[string]string, error) {
	result := make(map[string]string, len(overrides))
	for _, o := range overrides {
		parts := strings.SplitN(o, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("parser: invalid override %q (expected key=value)", o)
		}
		key := strings.TrimSpace(parts[0])
		if key == "" {
			return nil, fmt.Errorf("parser: empty key in override %q", o)
		}
		result[key] = strings.TrimSpace(parts[1])
	}
	return result, nil
}

// ApplyOverrides applies dotted-path overrides of the form
// "phases.<index>.campaign.<field>" onto s. <field> is a CampaignFields YAML
// tag spelled exactly as in the YAML (count, minIntervalNS,
// maxIntervalNS, kind, target, bit, observeNS, snapshotTag).
func ApplyOverrides(s *scenario.Scenario, overrides map[string]string) error {
	for key, value := range overrides {
		segs := strings.Split(key, ".")
		if len(segs) != 4 || segs[0] != "phases" || segs[2] != "campaign" {
			return fmt.Errorf("parser: unsupported override key %q (expected phases.<index>.campaign.<field>)", key)
		}
		idx, err := strconv.Atoi(segs[1])
		if err != nil || idx < 0 || idx >= len(s.Spec.Phases) {
			return fmt.Errorf("parser: override key %q names an out-of-range phase index", key)
		}
		c := &s.Spec.Phases[idx].Campaign
		if err := applyCampaignField(c, segs[3], value); err != nil {
			return fmt.Errorf("parser: override %q: %w", key, err)
		}
	}
	return nil
}

func applyCampaignField(c *scenario.CampaignFields, field, value string) error {
	switch field {
	case "count":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("count must be an integer: %w", err)
		}
		c.Count = n
	case "minIntervalNS":
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("minIntervalNS must be an integer: %w", err)
		}
		c.MinIntervalNS = n
	case "maxIntervalNS":
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("maxIntervalNS must be an integer: %w", err)
		}
		c.MaxIntervalNS = n
	case "kind":
		c.Kind = value
	case "target":
		c.Target = value
	case "bit":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("bit must be an integer: %w", err)
		}
		c.Bit = &n
	case "observeNS":
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("observeNS must be an integer: %w", err)
		}
		c.ObserveNS = n
	case "snapshotTag":
		c.SnapshotTag = value
	default:
		return fmt.Errorf("unknown campaign field %q", field)
	}
	return nil
}

// validateShape checks the bare minimum needed to run the remaining
// pipeline (a name and at least one phase); full CampaignParams invariant
// checking is pkg/scenario/validator's job.
func validateShape(s *scenario.Scenario) error {
	if s.Metadata.Name == "" {
		return fmt.Errorf("parser: metadata.name is required")
	}
	if len(s.Spec.Phases) == 0 {
		return fmt.Errorf("parser: spec.phases must have at least one phase")
	}
	for i, ph := range s.Spec.Phases {
		if ph.Name == "" {
			return fmt.Errorf("parser: phases[%d].name is required", i)
		}
	}
	return nil
}
