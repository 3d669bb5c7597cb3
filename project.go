package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/minios-linux/txfmt/config"
	"github.com/minios-linux/txfmt/format"
	"github.com/minios-linux/txfmt/handler"
	"github.com/minios-linux/txfmt/lockfile"
	"github.com/minios-linux/txfmt/merge"
	"github.com/minios-linux/txfmt/stringset"
	"github.com/minios-linux/txfmt/tm"
)

// project bundles what every command needs: the configuration, the lock
// file and an open translation memory.
type project struct {
	cfg   *config.File
	lock  *lockfile.LockFile
	store tm.Store
}

func openProject(ctx context.Context, root string) (*project, error) {
	cfg, err := config.Load(root)
	if err != nil {
		return nil, err
	}

	lock, err := lockfile.Load(cfg.Root())
	if err != nil {
		return nil, err
	}

	dsn := cfg.MemoryDSN()
	if cfg.Memory.Driver == tm.DriverSQLite3 && filepath.IsAbs(dsn) {
		if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
			return nil, fmt.Errorf("mkdir %s: %w", filepath.Dir(dsn), err)
		}
	}
	store, err := tm.Open(ctx, cfg.Memory.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening translation memory: %w", err)
	}
	log.Debug().Str("driver", cfg.Memory.Driver).Msg("Translation memory opened")

	return &project{cfg: cfg, lock: lock, store: store}, nil
}

func (p *project) Close() error {
	return p.store.Close()
}

// languages returns the resource's languages, narrowed to filter when set.
func (p *project) languages(r *config.Resource, filter []string) []string {
	if len(filter) == 0 {
		return r.Languages
	}
	return intersectLanguages(r.Languages, filter)
}

// ---------------------------------------------------------------------------
// extract
// ---------------------------------------------------------------------------

type langReport struct {
	lang       string
	units      int
	translated int
	obsolete   int
	missing    bool
}

type extractReport struct {
	resource string
	units    int
	changed  int
	newKeys  int
	langs    []langReport
}

// parseSource reads and parses the source file of r.
func (p *project) parseSource(ctx context.Context, r *config.Resource) ([]byte, *handler.Result, error) {
	path := p.cfg.SourcePath(r)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading %s: %w", path, err)
	}
	res, err := format.Extract(ctx, r.Kind(), handler.Request{
		Resource: r.ID,
		Language: p.cfg.SourceLang,
		Content:  data,
		Source:   true,
	})
	if err != nil {
		return nil, nil, err
	}
	logDiagnostics(path, res.Diagnostics)
	return data, res, nil
}

// extract parses the source file of r, stores its template and source
// units, registers the keys in the translation memory and refreshes the
// unit files of every language from the existing target files.
func (p *project) extract(ctx context.Context, r *config.Resource, langs []string) (*extractReport, error) {
	data, res, err := p.parseSource(ctx, r)
	if err != nil {
		return nil, err
	}

	tplPath := p.cfg.TemplatePath(r)
	if err := os.MkdirAll(filepath.Dir(tplPath), 0755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", filepath.Dir(tplPath), err)
	}
	if err := os.WriteFile(tplPath, []byte(res.Template), 0644); err != nil {
		return nil, fmt.Errorf("writing %s: %w", tplPath, err)
	}
	if err := res.Strings.WriteFile(p.cfg.UnitsPath(r, p.cfg.SourceLang)); err != nil {
		return nil, err
	}

	added, err := p.store.Register(ctx, r.ID, res.Strings.Sources())
	if err != nil {
		return nil, fmt.Errorf("registering %s: %w", r.ID, err)
	}
	changed := p.lock.Record(r.ID, string(data), res.Template, res.Strings)

	report := &extractReport{
		resource: r.ID,
		units:    res.Strings.Len(),
		changed:  len(changed),
		newKeys:  added,
	}
	log.Debug().Str("resource", r.ID).Str("dialect", res.Dialect).Int("units", report.units).Msg("Source parsed")

	cache := tm.NewCache(p.store)
	if _, err := cache.Preload(ctx, r.ID); err != nil {
		log.Warn().Err(err).Str("resource", r.ID).Msg("Failed to preload translation memory")
	}

	for _, lang := range langs {
		lr, err := p.extractTarget(ctx, r, lang, res.Strings, cache)
		if err != nil {
			return nil, err
		}
		report.langs = append(report.langs, lr)
	}
	return report, nil
}

func (p *project) extractTarget(ctx context.Context, r *config.Resource, lang string, source *stringset.StringSet, lookup handler.Lookup) (langReport, error) {
	lr := langReport{lang: lang}
	path := p.cfg.TargetPath(r, lang)
	unitsPath := p.cfg.UnitsPath(r, lang)

	target := stringset.NewSet()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		res, err := format.Extract(ctx, r.Kind(), handler.Request{
			Resource: r.ID,
			Language: lang,
			Content:  data,
			Lookup:   lookup,
		})
		if err != nil {
			return lr, err
		}
		logDiagnostics(path, res.Diagnostics)
		target = res.Strings
	case errors.Is(err, fs.ErrNotExist):
		lr.missing = true
		log.Debug().Str("path", path).Msg("No target file yet")
	default:
		return lr, fmt.Errorf("reading %s: %w", path, err)
	}

	// Keep suggestions from the previous extraction.
	if prev, err := stringset.ReadFile(unitsPath); err == nil {
		target.Suggestions = append(target.Suggestions, prev.Suggestions...)
	}

	merged := merge.Merge(source, target)
	if err := merged.WriteFile(unitsPath); err != nil {
		return lr, err
	}

	lr.units, lr.translated, _ = source.Coverage(merged)
	lr.obsolete = len(merged.Suggestions)
	return lr, nil
}

// ---------------------------------------------------------------------------
// compile
// ---------------------------------------------------------------------------

// compile writes the target file of r for every language from the stored
// template and unit files.
func (p *project) compile(r *config.Resource, langs []string) ([]string, error) {
	tplPath := p.cfg.TemplatePath(r)
	tpl, err := os.ReadFile(tplPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("no template for %q, run extract first", r.ID)
		}
		return nil, fmt.Errorf("reading %s: %w", tplPath, err)
	}

	if src, err := os.ReadFile(p.cfg.SourcePath(r)); err == nil && p.lock.SourceChanged(r.ID, string(src)) {
		log.Warn().Str("resource", r.ID).Msg("Source file changed since last extract")
	}
	if !p.lock.TemplateMatches(r.ID, string(tpl)) {
		log.Warn().Str("path", tplPath).Msg("Template does not match the lock file")
	}

	source, err := stringset.ReadFile(p.cfg.UnitsPath(r, p.cfg.SourceLang))
	if err != nil {
		return nil, err
	}

	var written []string
	for _, lang := range langs {
		target, err := stringset.ReadFile(p.cfg.UnitsPath(r, lang))
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return written, err
			}
			target = stringset.NewSet()
		}

		out, err := format.Compile(r.Kind(), string(tpl), target, source)
		if err != nil {
			return written, fmt.Errorf("%s [%s]: %w", r.ID, lang, err)
		}

		path := p.cfg.TargetPath(r, lang)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return written, fmt.Errorf("mkdir %s: %w", filepath.Dir(path), err)
		}
		if err := os.WriteFile(path, out, 0644); err != nil {
			return written, fmt.Errorf("writing %s: %w", path, err)
		}
		written = append(written, path)
	}
	return written, nil
}

// ---------------------------------------------------------------------------
// memory
// ---------------------------------------------------------------------------

// importMemory registers the source keys of r without writing anything
// else. It returns the number of keys that were new.
func (p *project) importMemory(ctx context.Context, r *config.Resource) (int, error) {
	_, res, err := p.parseSource(ctx, r)
	if err != nil {
		return 0, err
	}
	n, err := p.store.Register(ctx, r.ID, res.Strings.Sources())
	if err != nil {
		return 0, fmt.Errorf("registering %s: %w", r.ID, err)
	}
	return n, nil
}

// ---------------------------------------------------------------------------
// status
// ---------------------------------------------------------------------------

// coverage loads the unit files of r and measures each language against
// the source units. ok is false when r has not been extracted.
func (p *project) coverage(r *config.Resource, langs []string) (reports []langReport, ok bool, err error) {
	source, err := stringset.ReadFile(p.cfg.UnitsPath(r, p.cfg.SourceLang))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}

	for _, lang := range langs {
		lr := langReport{lang: lang}
		target, err := stringset.ReadFile(p.cfg.UnitsPath(r, lang))
		switch {
		case err == nil:
			lr.units, lr.translated, _ = source.Coverage(target)
			lr.obsolete = len(target.Suggestions)
		case errors.Is(err, fs.ErrNotExist):
			lr.units = source.Len()
			lr.missing = true
		default:
			return nil, true, err
		}
		reports = append(reports, lr)
	}
	return reports, true, nil
}

func logDiagnostics(path string, diags handler.Diagnostics) {
	for _, d := range diags {
		log.Warn().Str("path", path).Int("line", d.Line).Str("kind", string(d.Kind)).Msg(d.Message)
	}
}
