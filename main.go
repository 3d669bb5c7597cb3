// txfmt extracts translatable units from Java .properties and Joomla INI
// files into hash-placeholder templates and compiles translations back
// into the original layout.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/minios-linux/txfmt/i18n"
	"github.com/minios-linux/txfmt/langmeta"
)

// Version information (set via -ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// ---------------------------------------------------------------------------
// Global flags
// ---------------------------------------------------------------------------

var (
	rootDir string
	verbose bool
	quiet   bool
	langs   []string
)

func setupLogging(w io.Writer) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: w, NoColor: color.NoColor})

	switch {
	case quiet:
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case verbose:
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// ---------------------------------------------------------------------------
// Root command
// ---------------------------------------------------------------------------

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "txfmt",
		Short: "Translation file format engine for .properties and Joomla INI",
		Long: `txfmt turns translation files into templates and back.

extract parses each resource's source file into a template, where every
translatable value is replaced by a content-addressed placeholder, and a
unit file per language. compile fills the template from a language's
units and writes the target file; untranslated entries are commented out.

Resources are declared in .txfmt.yaml (or .txfmt.toml) in the project root.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging(os.Stderr)
		},
	}

	root.PersistentFlags().StringVar(&rootDir, "root", ".", "Project root directory")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output")
	root.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Log warnings and errors only")

	root.AddCommand(
		newExtractCmd(),
		newCompileCmd(),
		newStatusCmd(),
		newMemoryCmd(),
		newVersionCmd(),
	)

	return root
}

func main() {
	i18n.Init("")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		setupLogging(os.Stderr)
		log.Error().Err(err).Msg(i18n.T("Command failed"))
		stop()
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "txfmt version %s\n", version)
			fmt.Fprintf(w, "  commit:    %s\n", commit)
			fmt.Fprintf(w, "  built:     %s\n", date)
		},
	}
}

// ---------------------------------------------------------------------------
// extract
// ---------------------------------------------------------------------------

func newExtractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract [resource...]",
		Short: "Build templates and unit files from source and target files",
		Long: `Parse the source file of each resource into a template and source units,
register its keys in the translation memory, then parse every existing
target file and merge its translations with the current source units.

Keys that disappeared from the source are kept as suggestions.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd.Context(), args)
		},
	}
	cmd.Flags().StringSliceVarP(&langs, "lang", "l", nil, "Languages to process (default: all configured)")
	return cmd
}

func runExtract(ctx context.Context, ids []string) error {
	p, err := openProject(ctx, rootDir)
	if err != nil {
		return err
	}
	defer p.Close()

	resources, err := p.cfg.Select(ids)
	if err != nil {
		return err
	}

	for _, r := range resources {
		rep, err := p.extract(ctx, r, p.languages(r, langs))
		if err != nil {
			return fmt.Errorf("extracting %s: %w", r.ID, err)
		}
		log.Info().
			Str("resource", rep.resource).
			Int("units", rep.units).
			Int("changed", rep.changed).
			Int("new", rep.newKeys).
			Msg(i18n.T("Source extracted"))
		for _, lr := range rep.langs {
			ev := log.Info()
			if lr.missing {
				ev = log.Debug()
			}
			ev.Str("resource", rep.resource).
				Str("lang", lr.lang).
				Int("translated", lr.translated).
				Int("units", lr.units).
				Int("suggestions", lr.obsolete).
				Msg(i18n.T("Target extracted"))
		}
	}

	if len(ids) == 0 {
		p.lock.Clean(p.cfg.IDs())
	}
	if err := p.lock.Save(); err != nil {
		return err
	}
	log.Debug().Str("lock", p.lock.Summary()).Msg("Lock file saved")
	return nil
}

// ---------------------------------------------------------------------------
// compile
// ---------------------------------------------------------------------------

func newCompileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compile [resource...]",
		Short: "Write target files from templates and unit files",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(cmd.Context(), args)
		},
	}
	cmd.Flags().StringSliceVarP(&langs, "lang", "l", nil, "Languages to process (default: all configured)")
	return cmd
}

func runCompile(ctx context.Context, ids []string) error {
	p, err := openProject(ctx, rootDir)
	if err != nil {
		return err
	}
	defer p.Close()

	resources, err := p.cfg.Select(ids)
	if err != nil {
		return err
	}

	for _, r := range resources {
		written, err := p.compile(r, p.languages(r, langs))
		for _, path := range written {
			log.Info().Str("resource", r.ID).Str("path", path).Msg(i18n.T("Compiled"))
		}
		if err != nil {
			return fmt.Errorf("compiling %s: %w", r.ID, err)
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// status
// ---------------------------------------------------------------------------

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show translation progress per resource and language",
		Long:  `Show per-language translation progress from the unit files. Does not modify any files.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd.Context(), cmd.OutOrStdout())
		},
	}
}

func runStatus(ctx context.Context, w io.Writer) error {
	p, err := openProject(ctx, rootDir)
	if err != nil {
		return err
	}
	defer p.Close()

	header := color.New(color.FgBlue, color.Bold)
	header.Fprintf(w, "\n%s\n", i18n.T("Project"))
	fmt.Fprintln(w, strings.Repeat("─", 60))
	fmt.Fprintf(w, "  %-12s %s\n", i18n.T("Root:"), p.cfg.Root())
	fmt.Fprintf(w, "  %-12s %s\n", i18n.T("Config:"), p.cfg.Path())
	fmt.Fprintf(w, "  %-12s %s\n", i18n.T("Source:"), p.cfg.SourceLang)
	fmt.Fprintf(w, "  %-12s %s\n", i18n.T("Memory:"), p.cfg.Memory.Driver)
	fmt.Fprintf(w, "  %-12s %s\n", i18n.T("Lock:"), p.lock.Summary())

	for i := range p.cfg.Resources {
		r := &p.cfg.Resources[i]
		fmt.Fprintln(w)
		header.Fprintf(w, "%s %s", i18n.T("Resource"), r.ID)
		fmt.Fprintf(w, " (%s, %s)\n", r.Kind(), r.Source)
		fmt.Fprintln(w, strings.Repeat("─", 60))

		reports, ok, err := p.coverage(r, r.Languages)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintf(w, "  %s\n", color.YellowString(i18n.T("not extracted, run 'txfmt extract %s'"), r.ID))
			continue
		}

		width := langColumnWidth(r.Languages)
		for _, lr := range reports {
			if lr.missing {
				fmt.Fprintf(w, "  %-*s %s\n", width, lr.lang, color.RedString(i18n.T("missing")))
				continue
			}
			percent := 0
			if lr.units > 0 {
				percent = lr.translated * 100 / lr.units
			}
			fmt.Fprintf(w, "  %-*s %s  %d/%d", width, lr.lang, progressBar(percent, 20), lr.translated, lr.units)
			if lr.obsolete > 0 {
				fmt.Fprintf(w, "  %s", i18n.N("%d suggestion", "%d suggestions", lr.obsolete))
			}
			if m := langmeta.Resolve(lr.lang, i18n.Tag()); m.Name != lr.lang {
				fmt.Fprintf(w, "  %s %s", m.Flag, m.Label())
			}
			fmt.Fprintln(w)
		}
	}
	fmt.Fprintln(w)
	return nil
}

// ---------------------------------------------------------------------------
// memory
// ---------------------------------------------------------------------------

func newMemoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "memory",
		Short: "Manage the translation memory",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "import [resource...]",
			Short: "Register the source keys of resources without extracting",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runMemoryImport(cmd.Context(), args)
			},
		},
		&cobra.Command{
			Use:   "keys <resource>",
			Short: "List the keys registered for a resource",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runMemoryKeys(cmd.Context(), cmd.OutOrStdout(), args[0])
			},
		},
	)
	return cmd
}

func runMemoryImport(ctx context.Context, ids []string) error {
	p, err := openProject(ctx, rootDir)
	if err != nil {
		return err
	}
	defer p.Close()

	resources, err := p.cfg.Select(ids)
	if err != nil {
		return err
	}
	for _, r := range resources {
		n, err := p.importMemory(ctx, r)
		if err != nil {
			return err
		}
		log.Info().Str("resource", r.ID).Int("new", n).Msg(i18n.T("Keys registered"))
	}
	return nil
}

func runMemoryKeys(ctx context.Context, w io.Writer, id string) error {
	p, err := openProject(ctx, rootDir)
	if err != nil {
		return err
	}
	defer p.Close()

	keys, err := p.store.Keys(ctx, id)
	if err != nil {
		return err
	}
	for _, k := range keys {
		fmt.Fprintln(w, k)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// progressBar renders percent as a bar of width cells followed by the
// number, coloured red below 50, yellow below 100 and green at 100.
func progressBar(percent, width int) string {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	filled := percent * width / 100
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)

	paint := color.RedString
	switch {
	case percent >= 100:
		paint = color.GreenString
	case percent >= 50:
		paint = color.YellowString
	}
	return fmt.Sprintf("%s %3d%%", paint("%s", bar), percent)
}

func langColumnWidth(langs []string) int {
	w := 4
	for _, l := range langs {
		if len(l) > w {
			w = len(l)
		}
	}
	return w
}

// intersectLanguages keeps the languages of available that appear in
// filter, in filter order.
func intersectLanguages(available, filter []string) []string {
	set := make(map[string]bool, len(available))
	for _, l := range available {
		set[l] = true
	}
	var out []string
	for _, l := range filter {
		l = strings.TrimSpace(l)
		if set[l] {
			out = append(out, l)
		}
	}
	return out
}
