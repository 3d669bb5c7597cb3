// Package lockfile implements txfmt.lock, a lock file that records, per
// resource, the MD5 checksums of the source file and template produced by
// the last extraction and of every source unit. It lets compile detect a
// template that no longer matches its source file, and extract report
// which units changed.
//
// The lock file is stored alongside .txfmt.yaml as txfmt.lock.
package lockfile

import (
	"crypto/md5"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/minios-linux/txfmt/stringset"
)

// LockFileName is the default lock file name.
const LockFileName = "txfmt.lock"

// Version is the lock file format version.
const Version = 1

// ---------------------------------------------------------------------------
// Types
// ---------------------------------------------------------------------------

// Snapshot is the state of one resource at its last extraction.
type Snapshot struct {
	Source   string `yaml:"source"`
	Template string `yaml:"template"`
}

// LockFile represents the txfmt.lock file structure.
type LockFile struct {
	Version   int                          `yaml:"version"`
	Snapshots map[string]Snapshot          `yaml:"snapshots"`
	Checksums map[string]map[string]string `yaml:"checksums"` // resource -> unit key -> md5

	mu   sync.Mutex `yaml:"-"`
	path string     `yaml:"-"`
}

func newLockFile(path string) *LockFile {
	return &LockFile{
		Version:   Version,
		Snapshots: make(map[string]Snapshot),
		Checksums: make(map[string]map[string]string),
		path:      path,
	}
}

// ---------------------------------------------------------------------------
// Loading and saving
// ---------------------------------------------------------------------------

// Load reads a lock file from the given directory.
// Returns an empty lock file if the file doesn't exist.
func Load(dir string) (*LockFile, error) {
	path := filepath.Join(dir, LockFileName)
	lf := newLockFile(path)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return lf, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, lf); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	lf.path = path

	if lf.Version > Version {
		return nil, fmt.Errorf("%s: unsupported lock file version %d", path, lf.Version)
	}
	if lf.Snapshots == nil {
		lf.Snapshots = make(map[string]Snapshot)
	}
	if lf.Checksums == nil {
		lf.Checksums = make(map[string]map[string]string)
	}

	return lf, nil
}

// Save writes the lock file to disk.
func (lf *LockFile) Save() error {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	if lf.path == "" {
		return fmt.Errorf("lock file path not set")
	}

	data, err := yaml.Marshal(lf)
	if err != nil {
		return fmt.Errorf("marshaling lock file: %w", err)
	}

	if err := os.WriteFile(lf.path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", lf.path, err)
	}

	return nil
}

// Path returns the lock file path.
func (lf *LockFile) Path() string {
	return lf.path
}

// ---------------------------------------------------------------------------
// Snapshots
// ---------------------------------------------------------------------------

// Hash computes the MD5 hex digest of a string.
func Hash(s string) string {
	return fmt.Sprintf("%x", md5.Sum([]byte(s)))
}

// UnitContent builds the string hashed for a unit. The key is included so
// renaming a key counts as a change.
func UnitContent(g stringset.GenericTranslation) string {
	return g.Source + "\x00" + g.Context + "\x00" + g.Translation
}

// Record stores the outcome of a source-mode extraction of resource and
// returns the keys of the units that are new or changed since the
// previous one. Checksums of units no longer present are dropped.
func (lf *LockFile) Record(resource, source, template string, units *stringset.StringSet) []string {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	lf.Snapshots[resource] = Snapshot{Source: Hash(source), Template: Hash(template)}

	old := lf.Checksums[resource]
	fresh := make(map[string]string, units.Len())
	var changed []string
	var list []stringset.GenericTranslation
	if units != nil {
		list = units.Strings
	}
	for _, g := range list {
		h := Hash(UnitContent(g))
		if old == nil || old[g.Source] != h {
			changed = append(changed, g.Source)
		}
		fresh[g.Source] = h
	}
	lf.Checksums[resource] = fresh
	return changed
}

// SourceChanged reports whether source differs from the content recorded
// by the last Record for resource. A resource never recorded has changed.
func (lf *LockFile) SourceChanged(resource, source string) bool {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	s, ok := lf.Snapshots[resource]
	return !ok || s.Source != Hash(source)
}

// TemplateMatches reports whether template is the one recorded for resource.
func (lf *LockFile) TemplateMatches(resource, template string) bool {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	s, ok := lf.Snapshots[resource]
	return ok && s.Template == Hash(template)
}

// RemoveResource forgets everything about resource.
func (lf *LockFile) RemoveResource(resource string) {
	lf.mu.Lock()
	defer lf.mu.Unlock()
	delete(lf.Snapshots, resource)
	delete(lf.Checksums, resource)
}

// Clean removes resources that are no longer configured.
func (lf *LockFile) Clean(current []string) {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	valid := make(map[string]bool, len(current))
	for _, r := range current {
		valid[r] = true
	}
	for r := range lf.Snapshots {
		if !valid[r] {
			delete(lf.Snapshots, r)
		}
	}
	for r := range lf.Checksums {
		if !valid[r] {
			delete(lf.Checksums, r)
		}
	}
}

// ---------------------------------------------------------------------------
// Stats
// ---------------------------------------------------------------------------

// Stats returns the number of resources and total unit checksums.
func (lf *LockFile) Stats() (resources, units int) {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	resources = len(lf.Snapshots)
	for _, m := range lf.Checksums {
		units += len(m)
	}
	return
}

// Resources returns the sorted list of recorded resources.
func (lf *LockFile) Resources() []string {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	out := make([]string, 0, len(lf.Snapshots))
	for r := range lf.Snapshots {
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}

// Summary returns a human-readable summary string.
func (lf *LockFile) Summary() string {
	resources, units := lf.Stats()
	if resources == 0 {
		return "empty"
	}

	var parts []string
	for _, r := range lf.Resources() {
		lf.mu.Lock()
		n := len(lf.Checksums[r])
		lf.mu.Unlock()
		parts = append(parts, fmt.Sprintf("%s: %d units", r, n))
	}
	return fmt.Sprintf("%d resources, %d units (%s)", resources, units, strings.Join(parts, ", "))
}
