package config

import (
	"bytes"
	"errors"
	"fmt"
	"maps"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	instanceTemplateKey = "instance_template"
	haGroupTemplateKey  = "ha_group_template"
)

// rawDocument is the stack document before defaults are merged in.
type rawDocument struct {
	Stacks OrderedMap[rawStack] `yaml:"stacks"`
}

type rawStack struct {
	HaGroups  OrderedMap[map[string]any] `yaml:"ha_groups"`
	Instances OrderedMap[map[string]any] `yaml:"instances"`
}

// Defaults holds the templates every entity is merged over.
type Defaults struct {
	InstanceTemplate map[string]any
	HaGroupTemplate  map[string]any
}

// Load reads the stack document and the defaults document, merges them,
// validates the result and expands instance sequences.
func Load(configPath, defaultsPath string) (*StackConfig, error) {
	defaults, err := LoadDefaults(defaultsPath)
	if err != nil {
		return nil, err
	}

	// #nosec G304
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, &LoadError{Path: configPath, Err: err}
	}

	merged, err := Parse(data, defaults)
	if err != nil {
		var loadErr *LoadError
		if errors.As(err, &loadErr) && loadErr.Path == "" {
			loadErr.Path = configPath
		}
		return nil, err
	}

	if err := Validate(merged); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return Expand(merged)
}

// LoadDefaults reads the defaults document. Both templates must be present;
// a null template is treated as empty.
func LoadDefaults(path string) (*Defaults, error) {
	// #nosec G304
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &LoadError{Path: path, Err: fmt.Errorf("failed to unmarshal yaml: %w", err)}
	}

	d := &Defaults{}
	for key, dst := range map[string]*map[string]any{
		instanceTemplateKey: &d.InstanceTemplate,
		haGroupTemplateKey:  &d.HaGroupTemplate,
	} {
		v, ok := raw[key]
		if !ok {
			return nil, &LoadError{Path: path, Err: fmt.Errorf("missing key %q", key)}
		}
		if v == nil {
			*dst = map[string]any{}
			continue
		}
		m, ok := v.(map[string]any)
		if !ok {
			return nil, &LoadError{Path: path, Err: fmt.Errorf("%q must be a mapping", key)}
		}
		*dst = m
	}
	return d, nil
}

// Parse decodes a stack document and merges every entity over the
// defaults. The result is not expanded.
func Parse(data []byte, defaults *Defaults) (*StackConfig, error) {
	var doc rawDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &LoadError{Err: fmt.Errorf("failed to unmarshal yaml: %w", err)}
	}

	cfg := &StackConfig{}
	for stackName, raw := range doc.Stacks.All() {
		s := NewStack()

		for name, body := range raw.HaGroups.All() {
			var g HaGroupSpec
			if err := decodeMerged(defaults.HaGroupTemplate, body, &g); err != nil {
				return nil, &LoadError{Err: fmt.Errorf("stack %q ha_group %q: %w", stackName, name, err)}
			}
			s.HaGroups.Set(name, g)
		}

		for name, body := range raw.Instances.All() {
			var inst InstanceSpec
			if err := decodeMerged(defaults.InstanceTemplate, body, &inst); err != nil {
				return nil, &LoadError{Err: fmt.Errorf("stack %q instance %q: %w", stackName, name, err)}
			}
			s.Instances.Set(name, inst)
		}

		cfg.Stacks.Set(stackName, s)
	}
	return cfg, nil
}

// Merge overlays the entity's own keys on the template. The merge is
// shallow: a key set by the entity replaces the template value whole.
func Merge(template, entity map[string]any) map[string]any {
	out := maps.Clone(template)
	if out == nil {
		out = make(map[string]any, len(entity))
	}
	maps.Copy(out, entity)
	return out
}

// decodeMerged merges body over template and decodes the result into out,
// rejecting unknown keys.
func decodeMerged(template, body map[string]any, out any) error {
	data, err := yaml.Marshal(Merge(template, body))
	if err != nil {
		return err
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	return dec.Decode(out)
}
