// Package reconcile disambiguates which numeric field of a raw token is a
// withdrawal, deposit or running balance, and repairs records against the
// running-balance invariant.
package reconcile

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

//go:embed reconcile.yaml
var embeddedConfig []byte

// Direction is the side a transaction amount lands on.
type Direction string

const (
	DirectionWithdrawal Direction = "withdrawal"
	DirectionDeposit    Direction = "deposit"
)

// CorrectionAction forces a record to one side.
type CorrectionAction string

const (
	ActionForceDeposit    CorrectionAction = "force_deposit"
	ActionForceWithdrawal CorrectionAction = "force_withdrawal"
)

// Correction is one declarative vendor-quirk rule: when Match is a
// substring of the record's normalized merchant or type label, the amount is
// forced to the configured side. New vendor quirks are added here rather
// than in reconciler code.
type Correction struct {
	Name   string           `yaml:"name"`
	Match  string           `yaml:"match"`
	Action CorrectionAction `yaml:"action"`
}

// Config holds the reconciliation heuristics.
type Config struct {
	CreditKeywords   []string     `yaml:"credit_keywords"`
	DefaultDirection Direction    `yaml:"default_direction"`
	BalanceTolerance string       `yaml:"balance_tolerance"`
	AnchorPatterns   []string     `yaml:"anchor_patterns"`
	Corrections      []Correction `yaml:"corrections"`

	tolerance decimal.Decimal
}

// Tolerance returns the parsed balance tolerance.
func (c *Config) Tolerance() decimal.Decimal { return c.tolerance }

// NewConfig parses and validates YAML configuration data.
func NewConfig(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse reconciliation config (check syntax, indentation, and field names): %w", err)
	}

	if cfg.DefaultDirection != DirectionWithdrawal && cfg.DefaultDirection != DirectionDeposit {
		return nil, fmt.Errorf("invalid default_direction %q (must be 'withdrawal' or 'deposit')", cfg.DefaultDirection)
	}

	tol, err := decimal.NewFromString(cfg.BalanceTolerance)
	if err != nil {
		return nil, fmt.Errorf("invalid balance_tolerance %q: %w", cfg.BalanceTolerance, err)
	}
	if tol.IsNegative() || tol.IsZero() {
		return nil, fmt.Errorf("balance_tolerance must be positive, got %s", tol)
	}
	cfg.tolerance = tol

	for i, kw := range cfg.CreditKeywords {
		if strings.TrimSpace(kw) == "" {
			return nil, fmt.Errorf("credit keyword %d is empty", i)
		}
	}
	for i, p := range cfg.AnchorPatterns {
		if strings.TrimSpace(p) == "" {
			return nil, fmt.Errorf("anchor pattern %d is empty", i)
		}
	}
	for i, corr := range cfg.Corrections {
		if strings.TrimSpace(corr.Match) == "" {
			return nil, fmt.Errorf("correction %d (%s): match cannot be empty", i, corr.Name)
		}
		if corr.Action != ActionForceDeposit && corr.Action != ActionForceWithdrawal {
			return nil, fmt.Errorf("correction %d (%s): invalid action %q (must be 'force_deposit' or 'force_withdrawal')", i, corr.Name, corr.Action)
		}
	}

	return &cfg, nil
}

// LoadEmbedded loads the embedded reconcile.yaml defaults.
func LoadEmbedded() (*Config, error) {
	cfg, err := NewConfig(embeddedConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to load embedded reconciliation config (possible binary corruption): %w", err)
	}
	return cfg, nil
}

// LoadFromFile loads configuration from a filesystem path.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read reconciliation config: %w", err)
	}
	cfg, err := NewConfig(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load reconciliation config from %q: %w", path, err)
	}
	return cfg, nil
}
