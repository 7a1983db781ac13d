// Package config loads and validates the YAML project configuration file.
// All relative paths in the file resolve against the directory containing
// it, so a project can be built from any working directory.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/stuckyb/ontobuilder/internal/reasoner"
)

// Config is the project configuration (project.yaml).
type Config struct {
	// OntologyIRI is the IRI of the compiled ontology. Its final path
	// segment names the output file.
	OntologyIRI string `yaml:"ontology_iri"`

	// BaseOntology is the path of the base ontology document that term
	// tables extend.
	BaseOntology string `yaml:"base_ontology"`

	// TermsFiles are paths (shell-style globs, ** allowed) of the tabular
	// term files to compile.
	TermsFiles []string `yaml:"terms_files"`

	// ImportsDir holds import terms tables and built import modules.
	ImportsDir string `yaml:"imports_dir"`

	// ImportsBaseIRI is prepended to module file names to form module
	// IRIs.
	ImportsBaseIRI string `yaml:"imports_base_iri"`

	// BuildDir receives build products. Ignored when InSourceBuilds is
	// set.
	BuildDir string `yaml:"build_dir"`

	// InSourceBuilds writes build products next to the sources instead of
	// into BuildDir.
	InSourceBuilds bool `yaml:"in_source_builds"`

	Reasoner ReasonerConfig `yaml:"reasoner"`
	Release  ReleaseConfig  `yaml:"release"`
	Logging  LoggingConfig  `yaml:"logging"`

	// path is the absolute location of the loaded config file.
	path string
}

// ReasonerConfig controls the reasoning step of ontology builds.
type ReasonerConfig struct {
	Name             string   `yaml:"name"`
	InferenceTypes   []string `yaml:"inference_types"`
	AnnotateInferred bool     `yaml:"annotate_inferred"`
}

// ReleaseConfig controls release builds.
type ReleaseConfig struct {
	// Dir receives dated release copies, relative to the project.
	Dir string `yaml:"dir"`
}

// LoggingConfig mirrors the logging section consumed by internal/logging.
type LoggingConfig struct {
	DebugMode  bool     `yaml:"debug_mode"`
	Categories []string `yaml:"categories"`
	Level      string   `yaml:"level"`
	JSONFormat bool     `yaml:"json_format"`
}

// DefaultConfig returns the configuration a new project starts from.
func DefaultConfig() *Config {
	return &Config{
		OntologyIRI:    "",
		BaseOntology:   "src/ontology-base.owl",
		TermsFiles:     []string{"src/terms/*.csv"},
		ImportsDir:     "imports",
		ImportsBaseIRI: "",
		BuildDir:       "build",
		Reasoner: ReasonerConfig{
			Name:             reasoner.DefaultName,
			InferenceTypes:   []string{"subclasses", "equivalences", "types"},
			AnnotateInferred: true,
		},
		Release: ReleaseConfig{Dir: "releases"},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Load reads and validates a project configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read project config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse project config %s: %w", path, err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	cfg.path = abs

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid project config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the configuration to a YAML file and re-anchors the config to
// that location.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create project directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal project config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write project config: %w", err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	c.path = abs
	return nil
}

// validInferenceTypes are the recognized values of
// reasoner.inference_types.
var validInferenceTypes = map[string]bool{
	"subclasses":   true,
	"equivalences": true,
	"types":        true,
}

// Validate checks the configuration, returning field-specific errors.
func (c *Config) Validate() error {
	if c.OntologyIRI == "" {
		return fmt.Errorf("ontology_iri: must not be empty")
	}
	if u, err := url.Parse(c.OntologyIRI); err != nil || !u.IsAbs() {
		return fmt.Errorf("ontology_iri: %q is not an absolute IRI", c.OntologyIRI)
	}
	if c.BaseOntology == "" {
		return fmt.Errorf("base_ontology: must not be empty")
	}
	if c.ImportsBaseIRI != "" {
		if u, err := url.Parse(c.ImportsBaseIRI); err != nil || !u.IsAbs() {
			return fmt.Errorf("imports_base_iri: %q is not an absolute IRI", c.ImportsBaseIRI)
		}
	}
	if _, err := reasoner.NormalizeName(c.Reasoner.Name); err != nil {
		return fmt.Errorf("reasoner.name: %v", err)
	}
	for _, t := range c.Reasoner.InferenceTypes {
		if !validInferenceTypes[strings.ToLower(strings.TrimSpace(t))] {
			return fmt.Errorf("reasoner.inference_types: unrecognized type %q", t)
		}
	}
	return nil
}

// Path returns the absolute path of the config file.
func (c *Config) Path() string { return c.path }

// ProjectDir returns the directory all relative paths resolve against.
func (c *Config) ProjectDir() string { return filepath.Dir(c.path) }

// resolve makes a configured path absolute relative to the project.
func (c *Config) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.ProjectDir(), path)
}

// BaseOntologyPath returns the absolute path of the base ontology document.
func (c *Config) BaseOntologyPath() string { return c.resolve(c.BaseOntology) }

// ImportsDirPath returns the absolute imports directory.
func (c *Config) ImportsDirPath() string { return c.resolve(c.ImportsDir) }

// ReleaseDirPath returns the absolute release directory.
func (c *Config) ReleaseDirPath() string { return c.resolve(c.Release.Dir) }

// BuildDirPath returns the directory build products are written to. With
// in-source builds it is the base ontology's directory.
func (c *Config) BuildDirPath() string {
	if c.InSourceBuilds {
		return filepath.Dir(c.BaseOntologyPath())
	}
	return c.resolve(c.BuildDir)
}

// OntologyFileName derives the compiled ontology's file name from the final
// segment of the ontology IRI.
func (c *Config) OntologyFileName() string {
	iri := strings.TrimRight(c.OntologyIRI, "/")
	if idx := strings.LastIndexAny(iri, "/#"); idx >= 0 {
		iri = iri[idx+1:]
	}
	if iri == "" {
		return "ontology.owl"
	}
	return iri
}

// TermsFilePaths expands the terms-file globs against the project
// directory. The result is sorted and duplicate-free; a pattern that
// matches nothing is an error, since a typo would otherwise silently drop
// an entire terms file from the build.
func (c *Config) TermsFilePaths() ([]string, error) {
	seen := make(map[string]bool)
	var paths []string
	for _, pattern := range c.TermsFiles {
		matches, err := doublestar.Glob(os.DirFS(c.ProjectDir()), filepath.ToSlash(pattern))
		if err != nil {
			return nil, fmt.Errorf("terms_files: bad pattern %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("terms_files: pattern %q matched no files", pattern)
		}
		for _, m := range matches {
			abs := filepath.Join(c.ProjectDir(), filepath.FromSlash(m))
			if !seen[abs] {
				seen[abs] = true
				paths = append(paths, abs)
			}
		}
	}
	sort.Strings(paths)
	return paths, nil
}
