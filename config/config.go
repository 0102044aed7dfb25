// Package config loads the service descriptor file consumed by the
// codemode facade and CLI.
//
// The file is YAML. Every string field supports ${VAR} environment
// interpolation, applied to the raw document before decoding so that
// secrets and host-specific paths stay out of the file itself.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jonwraymond/codemode/model"
)

// ErrConfig is returned for unreadable or invalid configuration files.
var ErrConfig = errors.New("config error")

// File is the decoded configuration document.
type File struct {
	// Services lists the backend services available to executions.
	Services []model.ServiceConfig

	// AugmentDir is the directory holding tool documentation files.
	// Empty disables augmentation loading and documentation writes.
	AugmentDir string

	// MissingVars lists ${VAR} references that had no value in the
	// environment and were expanded to the empty string.
	MissingVars []string
}

// document mirrors the YAML layout. Timeouts are strings ("20s") so the
// file stays hand-editable; they are parsed into time.Duration here.
type document struct {
	Services   []serviceEntry `yaml:"services"`
	AugmentDir string         `yaml:"augmentDir"`
}

type serviceEntry struct {
	ID        string            `yaml:"id"`
	Name      string            `yaml:"name"`
	Transport string            `yaml:"transport"`
	Command   string            `yaml:"command"`
	Args      []string          `yaml:"args"`
	Dir       string            `yaml:"dir"`
	Env       map[string]string `yaml:"env"`
	URL       string            `yaml:"url"`
	Timeout   string            `yaml:"timeout"`
}

// Load reads, interpolates, decodes, and validates the file at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	return Parse(data)
}

// Parse decodes and validates a raw configuration document.
func Parse(data []byte) (*File, error) {
	var missing []string
	expanded := os.Expand(string(data), func(name string) string {
		if v, ok := os.LookupEnv(name); ok {
			return v
		}
		missing = append(missing, name)
		return ""
	})

	var doc document
	if err := yaml.Unmarshal([]byte(expanded), &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfig, err)
	}

	f := &File{AugmentDir: doc.AugmentDir, MissingVars: missing}
	for _, e := range doc.Services {
		svc := model.ServiceConfig{
			ID:      e.ID,
			Name:    e.Name,
			Kind:    model.TransportKind(e.Transport),
			Command: e.Command,
			Args:    e.Args,
			Dir:     e.Dir,
			Env:     e.Env,
			URL:     e.URL,
		}
		if e.Timeout != "" {
			d, err := time.ParseDuration(e.Timeout)
			if err != nil {
				return nil, fmt.Errorf("%w: service %q: bad timeout %q: %v", ErrConfig, e.ID, e.Timeout, err)
			}
			svc.Timeout = d
		}
		f.Services = append(f.Services, svc)
	}

	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

// Validate checks every service entry and rejects duplicate ids.
func (f *File) Validate() error {
	seen := make(map[string]bool, len(f.Services))
	for _, svc := range f.Services {
		if err := svc.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrConfig, err)
		}
		if seen[svc.ID] {
			return fmt.Errorf("%w: duplicate service id %q", ErrConfig, svc.ID)
		}
		seen[svc.ID] = true
	}
	return nil
}
