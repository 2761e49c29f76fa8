package config

import (
	"bytes"
	"fmt"
	"os"
	"sort"

	"github.com/goccy/go-json"
	"github.com/goccy/go-yaml"
	"github.com/mitchellh/mapstructure"
)

type Feature int

const (
	FeatRadixLiterals Feature = iota
	FeatFloatExponent
	FeatImaginary
	FeatAttributes
	FeatTemplateEmbeds
	FeatCount
)

// DefaultMaxNestingDepth bounds how deeply expressions may nest before the
// parser gives up.
const DefaultMaxNestingDepth = 256

type Info struct {
	Name        string
	Enabled     bool
	Description string
}

type Config struct {
	Features        map[Feature]Info
	FeatureMap      map[string]Feature
	MaxNestingDepth int
}

func NewConfig() *Config {
	cfg := &Config{
		Features:        make(map[Feature]Info),
		FeatureMap:      make(map[string]Feature),
		MaxNestingDepth: DefaultMaxNestingDepth,
	}

	features := map[Feature]Info{
		FeatRadixLiterals:  {"radix-literals", true, "Recognize '0x' and '0b' bit-vector literals."},
		FeatFloatExponent:  {"float-exponent", true, "Allow an 'e' exponent on floating-point literals."},
		FeatImaginary:      {"imaginary", true, "Recognize the 'i' suffix on numeric literals."},
		FeatAttributes:     {"attributes", true, "Recognize '@name' attributes."},
		FeatTemplateEmbeds: {"template-embeds", true, "Parse '{expr}' embeds inside template strings."},
	}

	cfg.Features = features
	for ft, info := range features {
		cfg.FeatureMap[info.Name] = ft
	}
	return cfg
}

func (c *Config) SetFeature(ft Feature, enabled bool) {
	if info, ok := c.Features[ft]; ok {
		info.Enabled = enabled
		c.Features[ft] = info
	}
}

func (c *Config) IsFeatureEnabled(ft Feature) bool { return c.Features[ft].Enabled }

// SetFeatureByName toggles the feature called name.
func (c *Config) SetFeatureByName(name string, enabled bool) error {
	ft, ok := c.FeatureMap[name]
	if !ok {
		return fmt.Errorf("unknown feature '%s'", name)
	}
	c.SetFeature(ft, enabled)
	return nil
}

// FeatureNames returns all feature names in sorted order.
func (c *Config) FeatureNames() []string {
	names := make([]string, 0, len(c.FeatureMap))
	for name := range c.FeatureMap {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Options is the on-disk shape of a configuration file:
//
//	max-nesting-depth: 64
//	features:
//	  radix-literals: false
type Options struct {
	MaxNestingDepth int             `mapstructure:"max-nesting-depth"`
	Features        map[string]bool `mapstructure:"features"`
}

// Apply copies the settings in opts onto c.
func (c *Config) Apply(opts Options) error {
	if opts.MaxNestingDepth < 0 {
		return fmt.Errorf("max-nesting-depth must not be negative, got %d", opts.MaxNestingDepth)
	}
	if opts.MaxNestingDepth > 0 {
		c.MaxNestingDepth = opts.MaxNestingDepth
	}
	names := make([]string, 0, len(opts.Features))
	for name := range opts.Features {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := c.SetFeatureByName(name, opts.Features[name]); err != nil {
			return err
		}
	}
	return nil
}

// ParseOptionsYAML decodes a YAML configuration document.
func ParseOptionsYAML(data []byte) (Options, error) {
	var opts Options
	jsonBytes, err := yaml.YAMLToJSON(data)
	if err != nil {
		return opts, fmt.Errorf("yaml.YAMLToJSON: %w", err)
	}

	var raw map[string]any
	decoder := json.NewDecoder(bytes.NewReader(jsonBytes))
	decoder.UseNumber()
	if err := decoder.Decode(&raw); err != nil {
		return opts, fmt.Errorf("json.Decode: %w", err)
	}

	md := &mapstructure.DecoderConfig{
		Result:           &opts,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	}
	dec, err := mapstructure.NewDecoder(md)
	if err != nil {
		return opts, fmt.Errorf("mapstructure.NewDecoder: %w", err)
	}
	if err := dec.Decode(raw); err != nil {
		return opts, fmt.Errorf("mapstructure.Decode: %w", err)
	}
	return opts, nil
}

// Load reads the YAML file at path and applies it to a fresh default config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("os.ReadFile(%q): %w", path, err)
	}
	opts, err := ParseOptionsYAML(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cfg := NewConfig()
	if err := cfg.Apply(opts); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}
