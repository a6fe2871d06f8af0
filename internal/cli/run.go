package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/brainviz/execsummary/pkg/errors"
	"github.com/brainviz/execsummary/pkg/pipeline"
	"github.com/brainviz/execsummary/pkg/report"
)

// runFlags holds the flags shared by run and layout.
type runFlags struct {
	outputDir  string
	bidsInput  string
	subject    string
	session    string
	summaryDir string
	atlas      string
	layoutOnly bool
	skipSprite bool
	workers    int
	noCache    bool
	runID      string
}

// runCommand creates the main "run" command.
func (c *CLI) runCommand() *cobra.Command {
	var f runFlags

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Build the executive summary images for one subject/session",
		Long: `Build the executive summary images for one subject/session.

The output directory is the derivatives "files" directory of the subject. The
report is written to <output-dir>/[<dcan-summary>/]executivesummary and any
previous report there is discarded first. Optional arguments accept the
literal NONE to mean "not given".`,
		Example: `  execsummary run -o /data/sub-01/files -p 01 -s baseline -i /bids/sub-01/ses-baseline/func`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.execute(cmd, f)
		},
	}

	addRunFlags(cmd, &f)
	cmd.Flags().BoolVar(&f.layoutOnly, "layout-only", false, "reuse existing images and only redo the report hand-off")
	cmd.Flags().BoolVar(&f.skipSprite, "skip-sprite", false, "skip brainsprite frames and mosaics")
	cmd.Flags().IntVar(&f.workers, "workers", 0, "concurrent frame renders (default from config)")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable the frame cache")
	cmd.Flags().StringVar(&f.runID, "run-id", "", "run identifier recorded in the manifest (default random)")

	return cmd
}

// layoutCommand creates "layout", a shorthand for run --layout-only.
func (c *CLI) layoutCommand() *cobra.Command {
	var f runFlags

	cmd := &cobra.Command{
		Use:   "layout",
		Short: "Redo the report hand-off for images that already exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			f.layoutOnly = true
			return c.execute(cmd, f)
		},
	}

	addRunFlags(cmd, &f)
	return cmd
}

func addRunFlags(cmd *cobra.Command, f *runFlags) {
	cmd.Flags().StringVarP(&f.outputDir, "output-dir", "o", "", "derivatives files directory (required)")
	cmd.Flags().StringVarP(&f.bidsInput, "bids-input", "i", "", "BIDS func directory used as task input")
	cmd.Flags().StringVarP(&f.subject, "participant-label", "p", "", `participant label without "sub-" (required)`)
	cmd.Flags().StringVarP(&f.session, "session-id", "s", "", `session label without "ses-"`)
	cmd.Flags().StringVarP(&f.summaryDir, "dcan-summary", "d", "", "summary subdirectory relative to the output directory")
	cmd.Flags().StringVarP(&f.atlas, "atlas", "a", "", "atlas volume (default from the template directory)")
	_ = cmd.MarkFlagRequired("output-dir")
	_ = cmd.MarkFlagRequired("participant-label")
	_ = cmd.MarkFlagDirname("output-dir")
	_ = cmd.MarkFlagDirname("bids-input")
}

// options validates flags that need the filesystem and maps them to
// pipeline options.
func (f runFlags) options() (pipeline.Options, error) {
	opts := pipeline.Options{
		Root:       f.outputDir,
		SummaryDir: f.summaryDir,
		Subject:    f.subject,
		Session:    f.session,
		Atlas:      f.atlas,
		FuncDir:    f.bidsInput,
		LayoutOnly: f.layoutOnly,
		SkipSprite: f.skipSprite,
		RunID:      f.runID,
	}
	if err := opts.Normalize(); err != nil {
		return opts, err
	}

	info, err := os.Stat(opts.Root)
	if err != nil || !info.IsDir() {
		return opts, errors.New(errors.ErrCodeDirectoryNotFound, "%s is not a directory", opts.Root)
	}
	if opts.Atlas != "" {
		if _, err := os.Stat(opts.Atlas); err != nil {
			return opts, errors.New(errors.ErrCodeFileNotFound, "atlas %s does not exist", opts.Atlas)
		}
	}
	return opts, nil
}

func (c *CLI) execute(cmd *cobra.Command, f runFlags) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	opts, err := f.options()
	if err != nil {
		return err
	}

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if f.workers > 0 {
		cfg.Pipeline.Workers = f.workers
	}

	runner, fc, err := c.newRunner(ctx, cfg, f.noCache)
	if err != nil {
		return err
	}
	defer fc.Close()

	printKeyValue("Output", opts.Root)
	printKeyValue("Subject", opts.Subject)
	printKeyValue("Session", orNone(opts.Session))
	printKeyValue("BIDS input", orNone(opts.FuncDir))
	printKeyValue("Summary", orNone(opts.SummaryDir))
	printKeyValue("Atlas", orNone(opts.Atlas))
	printNewline()

	prog := newProgress(logger)
	res, err := runner.Execute(ctx, opts)
	if err != nil {
		if res != nil {
			printRunSummary(os.Stdout, res)
		}
		return err
	}

	printRunSummary(os.Stdout, res)
	printNewline()
	prog.done("Executive summary complete")

	failed := len(res.Failed())
	if failed > 0 {
		printWarning("%d artifacts failed", failed)
	} else {
		printSuccess("Images written")
	}
	printFile(res.Tree.Images)
	printFile(filepath.Join(res.Tree.Report, report.ManifestFile))
	printNextStep("Preview", fmt.Sprintf("%s serve --dir %s", appName, res.Tree.Report))
	return nil
}

func orNone(s string) string {
	if s == "" {
		return "NONE"
	}
	return s
}
