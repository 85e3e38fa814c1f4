package ledger

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"golang.org/x/exp/slices"
	"gopkg.in/yaml.v3"
)

// Option names recognized by Config.Set and configuration files.
const (
	OptionSelectionPolicy        = "selection_policy"
	OptionForceShortTerm         = "force_short_term_override"
	OptionMaterialityThreshold   = "materiality_threshold"
	OptionMergeCostTolerance     = "merge_cost_tolerance"
	OptionMergeProceedsTolerance = "merge_proceeds_tolerance"
	OptionFiat                   = "fiat"
)

// Config holds the options that control lot selection and merging.
type Config struct {
	Policy Policy
	// ForceShortTerm sends lots held for a year and a day or less to the
	// short-term bucket. When false every earlier lot is long-term eligible.
	ForceShortTerm bool
	// Materiality suppresses realizations whose absolute net is below it.
	// Zero keeps every record.
	Materiality decimal.Decimal
	Tolerance   MergeTolerance
	Fiat        string
}

// NewConfig creates a Config with the default options.
func NewConfig() *Config {
	return &Config{
		Policy:         HIFO,
		ForceShortTerm: true,
		Materiality:    decimal.RequireFromString("0.01"),
		Tolerance:      DefaultMergeTolerance(),
		Fiat:           "USD",
	}
}

// Set parses value and assigns it to the named option.
func (c *Config) Set(option, value string) error {
	value = strings.TrimSpace(value)
	switch option {
	case OptionSelectionPolicy:
		policy, err := ParsePolicy(value)
		if err != nil {
			return err
		}
		c.Policy = policy
	case OptionForceShortTerm:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return &ConfigurationError{Option: option, Value: value, Reason: "expected true or false"}
		}
		c.ForceShortTerm = b
	case OptionMaterialityThreshold:
		return setDecimal(&c.Materiality, option, value)
	case OptionMergeCostTolerance:
		return setDecimal(&c.Tolerance.Cost, option, value)
	case OptionMergeProceedsTolerance:
		return setDecimal(&c.Tolerance.Proceeds, option, value)
	case OptionFiat:
		if value == "" {
			return &ConfigurationError{Option: option, Value: value, Reason: "must not be empty"}
		}
		c.Fiat = strings.ToUpper(value)
	default:
		return &ConfigurationError{Option: option, Value: value, Reason: "unknown option"}
	}
	return nil
}

func setDecimal(dst *decimal.Decimal, option, value string) error {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return &ConfigurationError{Option: option, Value: value, Reason: "expected a decimal number"}
	}
	if d.IsNegative() {
		return &ConfigurationError{Option: option, Value: value, Reason: "must not be negative"}
	}
	*dst = d
	return nil
}

// Validate checks that every option holds a usable value.
func (c *Config) Validate() error {
	if !c.Policy.Valid() {
		return &ConfigurationError{Option: OptionSelectionPolicy, Value: c.Policy.String(), Reason: "expected FIFO, LIFO or HIFO"}
	}
	for _, opt := range []struct {
		name  string
		value decimal.Decimal
	}{
		{OptionMaterialityThreshold, c.Materiality},
		{OptionMergeCostTolerance, c.Tolerance.Cost},
		{OptionMergeProceedsTolerance, c.Tolerance.Proceeds},
	} {
		if opt.value.IsNegative() {
			return &ConfigurationError{Option: opt.name, Value: opt.value.String(), Reason: "must not be negative"}
		}
	}
	if c.Fiat == "" {
		return &ConfigurationError{Option: OptionFiat, Value: c.Fiat, Reason: "must not be empty"}
	}
	return nil
}

// configFromOptions applies options on top of the defaults, in name order.
func configFromOptions(options map[string]string) (*Config, error) {
	cfg := NewConfig()

	names := lo.Keys(options)
	slices.Sort(names)
	for _, name := range names {
		if err := cfg.Set(name, options[name]); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// ParseConfig reads a YAML mapping of option names to values.
//
//	selection_policy: FIFO
//	force_short_term_override: false
//	materiality_threshold: 0.05
func ParseConfig(data []byte) (*Config, error) {
	options := make(map[string]string)
	if err := yaml.Unmarshal(data, &options); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return configFromOptions(options)
}

// LoadConfigFile reads a YAML configuration file.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// contextKey is a private type to avoid key collisions in context.
type contextKey struct{}

// WithContext returns a new context with the Config attached.
func (c *Config) WithContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, c)
}

// ConfigFromContext retrieves the Config from context.
// Returns a default Config if not found.
func ConfigFromContext(ctx context.Context) *Config {
	if cfg, ok := ctx.Value(contextKey{}).(*Config); ok {
		return cfg
	}
	return NewConfig()
}
