// Package config describes a mount table in a configuration file and builds
// it.
//
// A configuration lists mounts in the order they are mounted. Each mount
// lists its stores in priority order, highest first:
//
//	mounts:
//	  - path: /res
//	    stores:
//	      - type: local
//	        root: ./user/res
//	      - type: tar
//	        file: core.tar.gz
package config

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Store types
const (
	TypeLocal = "local"
	TypeRam   = "ram"
	TypeTar   = "tar"
	TypeZip   = "zip"
	TypeImage = "image"
	TypeGit   = "git"
)

// DefaultConcurrency bounds how many stores are opened at once.
const DefaultConcurrency = 4

// Config is a mount table description.
type Config struct {
	Mounts      []Mount `mapstructure:"mounts" yaml:"mounts"`
	Concurrency int     `mapstructure:"concurrency" yaml:"concurrency,omitempty"`

	// directory relative store paths are resolved against
	baseDir string
}

// Mount binds a priority list of stores to a path.
type Mount struct {
	Path   string  `mapstructure:"path" yaml:"path"`
	Stores []Store `mapstructure:"stores" yaml:"stores"`
}

// Store describes one backend. Which fields apply depends on Type.
type Store struct {
	Type string `mapstructure:"type" yaml:"type"`

	// local
	Root string `mapstructure:"root" yaml:"root,omitempty"`

	// tar, zip
	File string `mapstructure:"file" yaml:"file,omitempty"`

	// image: exactly one of Ref, Tarball, Layout
	Ref      string `mapstructure:"ref" yaml:"ref,omitempty"`
	Tarball  string `mapstructure:"tarball" yaml:"tarball,omitempty"`
	Layout   string `mapstructure:"layout" yaml:"layout,omitempty"`
	Platform string `mapstructure:"platform" yaml:"platform,omitempty"`

	// git
	Repo string `mapstructure:"repo" yaml:"repo,omitempty"`
	Rev  string `mapstructure:"rev" yaml:"rev,omitempty"`

	// ram
	Files []RamFile `mapstructure:"files" yaml:"files,omitempty"`
}

// RamFile is one file of an in-memory store. Files are a list rather than
// a map because viper lowercases map keys.
type RamFile struct {
	Name    string `mapstructure:"name" yaml:"name"`
	Content string `mapstructure:"content" yaml:"content"`
}

// Load decodes and validates the configuration held by v. Relative store
// paths are resolved against the directory of the config file, if any.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if used := v.ConfigFileUsed(); used != "" {
		cfg.baseDir = filepath.Dir(used)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// AddLocal appends a mount serving dir at path.
func (c *Config) AddLocal(path, dir string) {
	c.Mounts = append(c.Mounts, Mount{
		Path:   path,
		Stores: []Store{{Type: TypeLocal, Root: dir}},
	})
}

// Validate reports every problem in c at once.
func (c *Config) Validate() error {
	var errs []error
	for i, m := range c.Mounts {
		if m.Path == "" {
			errs = append(errs, fmt.Errorf("mount %d: missing path", i))
		}
		if len(m.Stores) == 0 {
			errs = append(errs, fmt.Errorf("mount %d (%s): no stores", i, m.Path))
		}
		for j, s := range m.Stores {
			if err := s.validate(); err != nil {
				errs = append(errs, fmt.Errorf("mount %d (%s) store %d: %w", i, m.Path, j, err))
			}
		}
	}
	return errors.Join(errs...)
}

func (s Store) validate() error {
	switch s.Type {
	case TypeLocal:
		if s.Root == "" {
			return errors.New("local store needs root")
		}
	case TypeRam:
		for _, f := range s.Files {
			if f.Name == "" {
				return errors.New("ram file needs name")
			}
		}
	case TypeTar, TypeZip:
		if s.File == "" {
			return fmt.Errorf("%s store needs file", s.Type)
		}
	case TypeImage:
		set := 0
		for _, v := range []string{s.Ref, s.Tarball, s.Layout} {
			if v != "" {
				set++
			}
		}
		if set != 1 {
			return errors.New("image store needs exactly one of ref, tarball or layout")
		}
	case TypeGit:
		if s.Repo == "" {
			return errors.New("git store needs repo")
		}
	case "":
		return errors.New("missing type")
	default:
		return fmt.Errorf("unknown type %q", s.Type)
	}
	return nil
}

func (c *Config) path(p string) string {
	if p == "" || filepath.IsAbs(p) || c.baseDir == "" {
		return p
	}
	return filepath.Join(c.baseDir, p)
}

// Marshal renders c as YAML.
func Marshal(c *Config) ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return data, nil
}
