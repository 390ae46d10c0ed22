package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tkforge/tk/internal/policy"
)

// FileName is the repository configuration file, expected at the git root.
const FileName = "tk.yml"

// TkConfig represents the top-level tk.yml configuration
type TkConfig struct {
	Version string `yaml:"version"`
	// Dir is the ticket directory, relative to the repository root.
	Dir string `yaml:"dir,omitempty"`
	// Workflow tags the workflow revision stamped into the index.
	Workflow string `yaml:"workflow,omitempty"`
	// PolicyTier names the validation tier used when neither a flag nor
	// TK_POLICY_TIER overrides it.
	PolicyTier string `yaml:"policy_tier,omitempty"`
	// AutoCommit makes mutating commands commit the touched files.
	AutoCommit bool `yaml:"auto_commit,omitempty"`
}

// Defaults applied by Validate when fields are omitted.
const (
	DefaultDir      = "tickets"
	DefaultWorkflow = "simple-v1"
)

// Validate performs strict validation on the configuration and applies
// defaults for omitted fields.
func (c *TkConfig) Validate() error {
	// Required: version
	if c.Version != "1.0" {
		return fmt.Errorf("unsupported version: %s (expected: 1.0)", c.Version)
	}

	if c.Dir == "" {
		c.Dir = DefaultDir
	}
	if c.Workflow == "" {
		c.Workflow = DefaultWorkflow
	}

	// An unknown tier name is caught here at load time; the closed tier
	// set lives in the policy package.
	if c.PolicyTier != "" {
		if _, err := policy.Lookup(c.PolicyTier); err != nil {
			return fmt.Errorf("policy_tier: %w", err)
		}
	}

	return nil
}

// Load reads and validates tk.yml from the specified path
func Load(path string) (*TkConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config TkConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}
