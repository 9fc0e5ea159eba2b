package model

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/encoding/yaml"
	"github.com/bmatcuk/doublestar/v4"

	_ "embed"
)

const (
	ScannerPattern = "pattern"
	ScannerSyntax  = "syntax"

	LogFormatText = "text"
	LogFormatJSON = "json"
)

//go:embed config.cue
var cueSource []byte

var (
	cueCtx *cue.Context
	schema cue.Value
)

func init() {
	if len(cueSource) == 0 {
		panic("variable cueSource is empty")
	}
	cueCtx = cuecontext.New()
	compiled := cueCtx.CompileBytes(cueSource)
	if compiled.Err() != nil {
		panic(compiled.Err())
	}

	if err := compiled.Validate(); err != nil {
		panic(err)
	}

	schema = compiled.LookupPath(cue.ParsePath("#Config"))
	if schema.Err() != nil {
		panic(schema.Err())
	}
	if err := schema.Validate(); err != nil {
		panic(err)
	}
}

type Config struct {
	Version   int       `json:"version" yaml:"version"` // fixed 0 for now
	Entry     string    `json:"entry" yaml:"entry"`
	Auxiliary Auxiliary `json:"auxiliary" yaml:"auxiliary"`
	Command   Command   `json:"command" yaml:"command"`
	Debounce  string    `json:"debounce" yaml:"debounce"` // Go duration, e.g. 100ms
	Scanner   string    `json:"scanner" yaml:"scanner"`   // "pattern" | "syntax"
	Clear     bool      `json:"clear" yaml:"clear"`
	Verbose   bool      `json:"verbose" yaml:"verbose"`
	LogFormat string    `json:"log_format" yaml:"log_format"` // "text" | "json"
}

// Auxiliary describes the directory of files the entry file may import.
type Auxiliary struct {
	Dir       string   `json:"dir" yaml:"dir"`
	Prefixes  []string `json:"prefixes" yaml:"prefixes"`   // import specifier prefixes resolving into Dir
	Extension string   `json:"extension" yaml:"extension"` // canonical source extension, with the dot
	Ignore    []string `json:"ignore" yaml:"ignore"`       // doublestar patterns relative to Dir
}

// Command is the interpreter invocation, the entry file is appended as the last argument.
type Command struct {
	Path string            `json:"path" yaml:"path"`
	Args []string          `json:"args" yaml:"args"`
	Env  map[string]string `json:"env" yaml:"env"`
}

// LoadConfig validates YAML from r against CUE schema and decodes to Config.
// Missing fields take the schema defaults.
func LoadConfig(r io.Reader) (Config, error) {
	yamlFile, err := yaml.Extract("devwatch.yaml", r)
	if err != nil {
		return Config{}, err
	}
	yamlValue := cueCtx.BuildFile(yamlFile)

	unified := schema.Unify(yamlValue)
	if err := unified.Validate(
		cue.All(),          // all constraints
		cue.Concrete(true), // no incomplete values
	); err != nil {
		return Config{}, err
	}

	var out Config
	if err := unified.Decode(&out); err != nil {
		return Config{}, err
	}

	return out, nil
}

// DefaultConfig returns the configuration used when no file is found.
func DefaultConfig() Config {
	cfg, err := LoadConfig(strings.NewReader("version: 0\n"))
	if err != nil {
		panic(fmt.Sprintf("default configuration is invalid: %v", err))
	}
	return cfg
}

// Project is a Config resolved against a base directory, ready to be used
// by the watcher and the supervisor.
type Project struct {
	Root      string
	Entry     string
	AuxDir    string
	Prefixes  []string
	Extension string
	Ignore    []string
	Command   Command
	Debounce  time.Duration
	Scanner   string
	Clear     bool
}

// Resolve makes all paths absolute relative to base and parses the values
// the schema can only check textually.
func (c Config) Resolve(base string) (Project, error) {
	root, err := filepath.Abs(base)
	if err != nil {
		return Project{}, fmt.Errorf("resolving project root: %w", err)
	}

	debounce, err := time.ParseDuration(c.Debounce)
	if err != nil {
		return Project{}, fmt.Errorf("parsing debounce: %w", err)
	}

	var errs []error
	for _, pattern := range c.Auxiliary.Ignore {
		if !doublestar.ValidatePattern(pattern) {
			errs = append(errs, fmt.Errorf("auxiliary.ignore: invalid pattern %q", pattern))
		}
	}
	if c.Auxiliary.Extension == "" || !strings.HasPrefix(c.Auxiliary.Extension, ".") {
		errs = append(errs, errors.New("auxiliary.extension: must start with a dot"))
	}
	if err := errors.Join(errs...); err != nil {
		return Project{}, err
	}

	return Project{
		Root:      root,
		Entry:     abs(root, c.Entry),
		AuxDir:    abs(root, c.Auxiliary.Dir),
		Prefixes:  append([]string(nil), c.Auxiliary.Prefixes...),
		Extension: c.Auxiliary.Extension,
		Ignore:    append([]string(nil), c.Auxiliary.Ignore...),
		Command:   c.Command,
		Debounce:  debounce,
		Scanner:   c.Scanner,
		Clear:     c.Clear,
	}, nil
}

// Check reports the watch targets which do not exist.
func (p Project) Check() error {
	var errs []error
	if info, err := os.Stat(p.Entry); err != nil {
		errs = append(errs, fmt.Errorf("entry file: %w", err))
	} else if !info.Mode().IsRegular() {
		errs = append(errs, fmt.Errorf("entry file %s: not a regular file", p.Entry))
	}
	if info, err := os.Stat(p.AuxDir); err != nil {
		errs = append(errs, fmt.Errorf("auxiliary directory: %w", err))
	} else if !info.IsDir() {
		errs = append(errs, fmt.Errorf("auxiliary directory %s: not a directory", p.AuxDir))
	}
	return errors.Join(errs...)
}

// Rel returns path relative to the project root, or path itself when that is not possible.
func (p Project) Rel(path string) string {
	rel, err := filepath.Rel(p.Root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return filepath.ToSlash(rel)
}

func abs(root, path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(root, filepath.FromSlash(path))
}
