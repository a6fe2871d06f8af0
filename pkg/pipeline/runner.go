package pipeline

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/brainviz/execsummary/pkg/cache"
	"github.com/brainviz/execsummary/pkg/config"
	"github.com/brainviz/execsummary/pkg/errors"
	"github.com/brainviz/execsummary/pkg/observability"
	"github.com/brainviz/execsummary/pkg/outtree"
	"github.com/brainviz/execsummary/pkg/report"
	"github.com/brainviz/execsummary/pkg/tools"
)

// Runner executes runs. It holds no per-run state, so one Runner may serve
// several subjects concurrently as long as their output trees differ.
type Runner struct {
	Config *config.Config
	Tools  tools.Toolkit
	Exec   tools.Runner // runs the layout command
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner.
// If c is nil, a NullCache is used (caching disabled).
// If keyer is nil, a DefaultKeyer is used.
// If logger is nil, output is discarded.
// If exec is nil, layout commands run through a new ExecRunner.
func NewRunner(cfg *config.Config, tk tools.Toolkit, exec tools.Runner, c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if exec == nil {
		exec = tools.NewExecRunner(logger, cfg.Pipeline.ToolRetries)
	}
	return &Runner{
		Config: cfg,
		Tools:  tk,
		Exec:   exec,
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// run is the state of one Execute call.
type run struct {
	*Runner
	opts   Options
	tree   *outtree.Tree
	in     inputs
	prefix string
	res    *Result
	log    *log.Logger
}

// Execute prepares the output tree, produces every available artifact and
// hands the images to the layout generator. The returned error is non-nil
// only for fatal conditions (invalid options, missing derivatives root,
// unwritable output, cancellation); everything else is recorded in the
// Result.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.Normalize(); err != nil {
		return nil, err
	}

	tree, err := outtree.Prepare(opts.Root, opts.SummaryDir, opts.LayoutOnly)
	if err != nil {
		r.Logger.Error("cannot prepare output directory", "root", opts.Root, "err", errors.UserMessage(err))
		return nil, err
	}

	manifest := report.NewManifest(opts.RunID, opts.Subject, opts.Session)
	x := &run{
		Runner: r,
		opts:   opts,
		tree:   tree,
		in:     resolveInputs(opts.Root, opts.Subject),
		prefix: report.Prefix(opts.Subject, opts.Session),
		res:    &Result{RunID: manifest.RunID, Tree: tree, Manifest: manifest},
		log:    r.Logger.With("run", shortID(manifest.RunID)),
	}
	x.log.Info("start executive summary", "subject", opts.Subject, "session", opts.Session, "report", tree.Report)

	if opts.LayoutOnly {
		x.log.Info("layout only, reusing existing images", "path", tree.Images)
	} else {
		if err := x.preprocess(ctx); err != nil {
			return x.res, err
		}
	}

	if err := x.stage(ctx, StageLayout, x.handOff); err != nil {
		return x.res, err
	}
	return x.res, nil
}

// preprocess runs stages 1 to 7 and the mosaics, in order.
func (x *run) preprocess(ctx context.Context) error {
	x.detectContrast(ctx)

	stages := []struct {
		name string
		fn   func(context.Context) error
	}{
		{StageAtlas, x.atlas},
		{StageViews, x.views},
		{StageBrainsprite, x.brainsprite},
		{StageSubcortical, x.subcortical},
		{StageTasks, x.tasks},
		{StageFunctional, x.functional},
		{StageMosaic, x.mosaics},
	}
	for _, s := range stages {
		if err := x.stage(ctx, s.name, s.fn); err != nil {
			return err
		}
	}
	return nil
}

// stage runs fn with timing, hooks and a completion log line. Stage
// functions return an error only for cancellation or fatal conditions.
func (x *run) stage(ctx context.Context, name string, fn func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	observability.Stage().OnStageStart(ctx, name)
	start := time.Now()
	from := x.res.size()

	err := fn(ctx)

	d := time.Since(start)
	produced, failed, skipped := x.res.countSince(name, from)
	x.res.Stages = append(x.res.Stages, StageStats{
		Stage:    name,
		Duration: d,
		Produced: produced,
		Failed:   failed,
		Skipped:  produced == 0 && failed == 0 && skipped > 0,
	})
	observability.Stage().OnStageComplete(ctx, name, produced, d, err)

	x.log.Info("stage complete", "stage", name, "produced", produced, "failed", failed, "duration", d)
	return err
}

// =============================================================================
// Recording
// =============================================================================

func (x *run) skip(ctx context.Context, stage, file, missing, msg string) {
	x.log.Warn(msg, "stage", stage, "path", missing)
	observability.Stage().OnStageSkip(ctx, stage, missing)
	x.res.add(Artifact{Stage: stage, File: file, Status: StatusSkipped, Missing: missing})
}

func (x *run) record(stage, file string, err error) {
	if err != nil {
		x.fail(stage, file, err)
		return
	}
	x.log.Debug("wrote", "file", file)
	x.res.add(Artifact{Stage: stage, File: file, Status: StatusOK})
}

func (x *run) fail(stage, file string, err error) {
	x.log.Error("artifact failed", "stage", stage, "file", file, "err", err)
	x.res.add(Artifact{Stage: stage, File: file, Status: StatusFailed, Err: err})
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
