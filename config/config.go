// Package config loads the txfmt project file.
//
// A project is described by .txfmt.yaml (or .txfmt.toml) in its root. Every
// resource must be declared explicitly; nothing is auto-detected except the
// format, which falls back to the source file's extension. A .env file next
// to the project file is loaded first, and TXFMT_* variables override the
// corresponding settings.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/minios-linux/txfmt/format"
	"github.com/minios-linux/txfmt/tm"
)

const (
	// YAMLFileName is the preferred project file name.
	YAMLFileName = ".txfmt.yaml"
	// TOMLFileName is read when no YAML project file exists.
	TOMLFileName = ".txfmt.toml"
	// EnvFileName is loaded from the project root before overrides apply.
	EnvFileName = ".env"

	// DefaultTemplateDir holds templates and unit files, relative to the root.
	DefaultTemplateDir = ".txfmt"
	// DefaultMemoryDSN is the SQLite database used when no DSN is configured.
	DefaultMemoryDSN = ".txfmt/memory.db"

	// LangPlaceholder is replaced by the language code in target patterns.
	LangPlaceholder = "{lang}"
)

// Environment overrides.
const (
	EnvMemoryDriver = "TXFMT_MEMORY_DRIVER"
	EnvMemoryDSN    = "TXFMT_MEMORY_DSN"
	EnvTemplateDir  = "TXFMT_TEMPLATE_DIR"
)

// ErrNotFound is returned by Load when the root holds no project file.
var ErrNotFound = errors.New("no .txfmt.yaml or .txfmt.toml found")

// ---------------------------------------------------------------------------
// Schema
// ---------------------------------------------------------------------------

// File is the top-level project file structure.
type File struct {
	// SourceLang is the language of the source files (default "en").
	SourceLang string `yaml:"source_lang,omitempty" toml:"source_lang"`
	// Languages is the default target language list for all resources.
	Languages []string `yaml:"languages,omitempty" toml:"languages"`
	// TemplateDir is where templates and unit files are written.
	TemplateDir string `yaml:"template_dir,omitempty" toml:"template_dir"`
	// Memory selects the translation memory backing target extraction.
	Memory Memory `yaml:"memory,omitempty" toml:"memory"`
	// Resources is the list of translatable files.
	Resources []Resource `yaml:"resources" toml:"resources"`

	root string
	path string
}

// Memory configures the translation memory store.
type Memory struct {
	Driver string `yaml:"driver,omitempty" toml:"driver"`
	DSN    string `yaml:"dsn,omitempty" toml:"dsn"`
}

// Resource is a single source file and its per-language targets.
type Resource struct {
	// ID names the resource in the memory, the lock file and unit files.
	ID string `yaml:"id" toml:"id"`
	// Format is a format name; empty means detect from Source.
	Format string `yaml:"format,omitempty" toml:"format"`
	// Source is the source-language file, relative to the root.
	Source string `yaml:"source" toml:"source"`
	// Target is the target file pattern; it must contain {lang}.
	Target string `yaml:"target" toml:"target"`
	// Languages overrides the global language list.
	Languages []string `yaml:"languages,omitempty" toml:"languages"`

	kind format.Format
}

// Kind returns the resolved file format.
func (r *Resource) Kind() format.Format { return r.kind }

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads, completes and validates the project file in rootDir.
func Load(rootDir string) (*File, error) {
	root, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, err
	}

	envPath := filepath.Join(root, EnvFileName)
	if _, err := os.Stat(envPath); err == nil {
		if err := godotenv.Load(envPath); err != nil {
			return nil, fmt.Errorf("loading %s: %w", envPath, err)
		}
	}

	f, err := decode(root)
	if err != nil {
		return nil, err
	}
	f.root = root

	f.applyEnv()
	f.applyDefaults()
	if err := f.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", f.path, err)
	}
	return f, nil
}

func decode(root string) (*File, error) {
	var f File

	path := filepath.Join(root, YAMLFileName)
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		f.path = path
		return &f, nil
	case !os.IsNotExist(err):
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	path = filepath.Join(root, TOMLFileName)
	if _, err := toml.DecodeFile(path, &f); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", root, ErrNotFound)
		}
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	f.path = path
	return &f, nil
}

func (f *File) applyEnv() {
	if v := os.Getenv(EnvMemoryDriver); v != "" {
		f.Memory.Driver = v
	}
	if v := os.Getenv(EnvMemoryDSN); v != "" {
		f.Memory.DSN = v
	}
	if v := os.Getenv(EnvTemplateDir); v != "" {
		f.TemplateDir = v
	}
}

func (f *File) applyDefaults() {
	if f.SourceLang == "" {
		f.SourceLang = "en"
	}
	if f.TemplateDir == "" {
		f.TemplateDir = DefaultTemplateDir
	}
	if f.Memory.Driver == "" {
		f.Memory.Driver = tm.DriverSQLite3
	}
	if f.Memory.Driver == tm.DriverSQLite3 && f.Memory.DSN == "" {
		f.Memory.DSN = DefaultMemoryDSN
	}
	for i := range f.Resources {
		if len(f.Resources[i].Languages) == 0 {
			f.Resources[i].Languages = f.Languages
		}
	}
}

func (f *File) validate() error {
	if _, err := language.Parse(f.SourceLang); err != nil {
		return fmt.Errorf("source_lang %q: %w", f.SourceLang, err)
	}
	switch f.Memory.Driver {
	case tm.DriverMemory, tm.DriverSQLite3, tm.DriverPostgres:
	default:
		return fmt.Errorf("unknown memory driver %q", f.Memory.Driver)
	}

	seen := make(map[string]bool, len(f.Resources))
	for i := range f.Resources {
		r := &f.Resources[i]
		if r.ID == "" {
			return fmt.Errorf("resource #%d has no id", i+1)
		}
		if seen[r.ID] {
			return fmt.Errorf("duplicate resource id %q", r.ID)
		}
		seen[r.ID] = true

		if r.Source == "" {
			return fmt.Errorf("resource %q has no source", r.ID)
		}
		if !strings.Contains(r.Target, LangPlaceholder) {
			return fmt.Errorf("resource %q: target %q must contain %s", r.ID, r.Target, LangPlaceholder)
		}

		var err error
		if r.Format == "" {
			r.kind, err = format.FromPath(r.Source)
		} else {
			r.kind, err = format.Parse(r.Format)
		}
		if err != nil {
			return fmt.Errorf("resource %q: %w", r.ID, err)
		}

		for _, lang := range r.Languages {
			if _, err := language.Parse(lang); err != nil {
				return fmt.Errorf("resource %q: language %q: %w", r.ID, lang, err)
			}
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Paths
// ---------------------------------------------------------------------------

// Root returns the absolute project root.
func (f *File) Root() string { return f.root }

// Path returns the project file that was loaded.
func (f *File) Path() string { return f.path }

func (f *File) abs(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(f.root, p)
}

// MemoryDSN returns the memory DSN with SQLite file paths made absolute.
func (f *File) MemoryDSN() string {
	if f.Memory.Driver == tm.DriverSQLite3 && !strings.HasPrefix(f.Memory.DSN, "file:") {
		return f.abs(f.Memory.DSN)
	}
	return f.Memory.DSN
}

// SourcePath returns the absolute path of the resource's source file.
func (f *File) SourcePath(r *Resource) string {
	return f.abs(r.Source)
}

// TargetPath returns the absolute path of the resource's file for lang.
func (f *File) TargetPath(r *Resource, lang string) string {
	return f.abs(strings.ReplaceAll(r.Target, LangPlaceholder, lang))
}

// TemplatePath returns where the resource's template is stored.
func (f *File) TemplatePath(r *Resource) string {
	return filepath.Join(f.abs(f.TemplateDir), r.ID+".tpl")
}

// UnitsPath returns where the resource's units for lang are stored.
// The source collection uses the source language.
func (f *File) UnitsPath(r *Resource, lang string) string {
	return filepath.Join(f.abs(f.TemplateDir), r.ID+"."+lang+".yaml")
}

// Find returns the resource with the given id.
func (f *File) Find(id string) (*Resource, bool) {
	for i := range f.Resources {
		if f.Resources[i].ID == id {
			return &f.Resources[i], true
		}
	}
	return nil, false
}

// Select returns the resources named by ids, or all of them when ids is empty.
func (f *File) Select(ids []string) ([]*Resource, error) {
	if len(ids) == 0 {
		out := make([]*Resource, len(f.Resources))
		for i := range f.Resources {
			out[i] = &f.Resources[i]
		}
		return out, nil
	}
	out := make([]*Resource, 0, len(ids))
	for _, id := range ids {
		r, ok := f.Find(id)
		if !ok {
			return nil, fmt.Errorf("unknown resource %q", id)
		}
		out = append(out, r)
	}
	return out, nil
}

// IDs returns every configured resource id.
func (f *File) IDs() []string {
	ids := make([]string, len(f.Resources))
	for i, r := range f.Resources {
		ids[i] = r.ID
	}
	return ids
}

// AllLanguages returns the deduplicated union of all resource languages.
func (f *File) AllLanguages() []string {
	seen := make(map[string]bool)
	var all []string
	for _, r := range f.Resources {
		for _, lang := range r.Languages {
			if !seen[lang] {
				seen[lang] = true
				all = append(all, lang)
			}
		}
	}
	sort.Strings(all)
	return all
}
