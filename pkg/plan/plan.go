// Package plan loads the manifest that lists the export files of each source
// and how to read and classify them.
package plan

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/yurifrl/ledgeru/pkg/adapter"
	"github.com/yurifrl/ledgeru/pkg/executors"
	"github.com/yurifrl/ledgeru/pkg/rules"
)

type Manifest struct {
	Sources []Source `yaml:"sources"`

	// dir anchors relative file patterns.
	dir string
}

type Source struct {
	// Name defaults to Kind and prefixes every identity key of the source.
	Name     string       `yaml:"name"`
	Kind     string       `yaml:"kind"`
	Files    []string     `yaml:"files"`
	Timezone string       `yaml:"timezone"`
	Settings yaml.Node    `yaml:"settings"`
	Accounts Accounts     `yaml:"accounts"`
	Rules    []rules.Rule `yaml:"rules"`
}

// Accounts maps vendor item names to accounts. Values may be written as a
// single account or a list.
type Accounts map[string][]string

func (a *Accounts) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: accounts must be a mapping", value.Line)
	}
	out := make(Accounts, len(value.Content)/2)
	for i := 0; i+1 < len(value.Content); i += 2 {
		key, val := value.Content[i], value.Content[i+1]
		switch val.Kind {
		case yaml.ScalarNode:
			out[key.Value] = []string{val.Value}
		case yaml.SequenceNode:
			var list []string
			if err := val.Decode(&list); err != nil {
				return err
			}
			out[key.Value] = list
		default:
			return fmt.Errorf("line %d: accounts of %q must be a string or a list", val.Line, key.Value)
		}
	}
	*a = out
	return nil
}

// Load reads a manifest. Relative file patterns are resolved against the
// manifest's directory.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	m.dir = filepath.Dir(path)
	return m, nil
}

func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse yaml: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks that every source has a known kind and a unique name.
func (m *Manifest) Validate() error {
	if len(m.Sources) == 0 {
		return errors.New("manifest has no sources")
	}
	seen := map[string]bool{}
	for i, s := range m.Sources {
		if _, err := adapter.ParseKind(s.Kind); err != nil {
			return fmt.Errorf("source %d: %w", i+1, err)
		}
		name := s.AdapterName()
		if seen[name] {
			return fmt.Errorf("source %d: duplicate name %q", i+1, name)
		}
		seen[name] = true
		if len(s.Files) == 0 {
			return fmt.Errorf("source %s: no files", name)
		}
	}
	return nil
}

func (s *Source) AdapterName() string {
	if s.Name != "" {
		return s.Name
	}
	return strings.ToLower(strings.TrimSpace(s.Kind))
}

// Config builds the adapter configuration of the source.
func (s *Source) Config(reporting *time.Location, tolerance decimal.Decimal) (adapter.Config, error) {
	kind, err := adapter.ParseKind(s.Kind)
	if err != nil {
		return adapter.Config{}, err
	}
	loc := reporting
	if s.Timezone != "" {
		if loc, err = time.LoadLocation(s.Timezone); err != nil {
			return adapter.Config{}, fmt.Errorf("source %s: invalid timezone: %w", s.AdapterName(), err)
		}
	}
	cfg := adapter.Config{
		Name:      s.AdapterName(),
		Kind:      kind,
		Location:  loc,
		Reporting: reporting,
		Tolerance: &tolerance,
		Accounts:  s.Accounts,
		Rules:     s.Rules,
	}
	// An absent settings block leaves a zero node; adapters then see no
	// settings at all.
	if s.Settings.Kind != 0 {
		cfg.Settings = &s.Settings
	}
	return cfg, nil
}

// Registry builds the adapter of every source.
func (m *Manifest) Registry(logger *log.Logger, reporting *time.Location, tolerance decimal.Decimal) (*adapter.Registry, error) {
	registry := adapter.NewRegistry()
	for i := range m.Sources {
		cfg, err := m.Sources[i].Config(reporting, tolerance)
		if err != nil {
			return nil, err
		}
		a, err := adapter.New(cfg, logger)
		if err != nil {
			return nil, err
		}
		if err := registry.Register(a); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

// Expand returns the files matched by the source patterns, sorted and
// without repeats. "~/" expands to the home directory.
func (m *Manifest) Expand(s *Source) ([]string, error) {
	var files []string
	for _, pattern := range s.Files {
		pattern, err := expandHome(pattern)
		if err != nil {
			return nil, err
		}
		if !filepath.IsAbs(pattern) && m.dir != "" {
			pattern = filepath.Join(m.dir, pattern)
		}
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("source %s: bad pattern %q: %w", s.AdapterName(), pattern, err)
		}
		files = append(files, matches...)
	}
	slices.Sort(files)
	return slices.Compact(files), nil
}

// Inputs lists the files of every source in manifest order.
func (m *Manifest) Inputs() ([]executors.Input, error) {
	var inputs []executors.Input
	for i := range m.Sources {
		s := &m.Sources[i]
		files, err := m.Expand(s)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			inputs = append(inputs, executors.Input{Adapter: s.AdapterName(), Path: f})
		}
	}
	return inputs, nil
}

func expandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, path[2:]), nil
}

func (m *Manifest) Print(w io.Writer) {
	for i, s := range m.Sources {
		fmt.Fprintf(w, "[%d] name=%s kind=%s files=%s rules=%d\n",
			i+1, s.AdapterName(), s.Kind, strings.Join(s.Files, ","), len(s.Rules))
	}
}
