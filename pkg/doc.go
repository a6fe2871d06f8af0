// Package pkg provides the libraries behind the execsummary CLI.
//
// # Overview
//
// execsummary turns the derivatives of one preprocessed subject/session into
// the images of an executive summary report. The pkg directory is organized
// into three areas:
//
//  1. Domain: [scene] templates, [mosaic] sprite sheets, [report] naming and
//     hand-off, [outtree] output directories
//  2. Infrastructure: [tools] external binaries, [cache] rendered frames,
//     [config], [errors], [observability]
//  3. Orchestration: [pipeline] runs the stages in order
//
// # Architecture
//
// The typical data flow of a run:
//
//	derivatives tree (MNINonLinear, Results, ROIs)
//	         ↓
//	    [outtree] prepares executivesummary/{img,temp_files}
//	         ↓
//	    [scene] resolves templates → [tools] renders frames and slices
//	         ↓
//	    [mosaic] assembles sprite sheets and strips
//	         ↓
//	    [report] writes the manifest and calls the layout generator
//
// # Quick Start
//
//	cfg, _ := config.Load(os.Getenv(config.EnvConfigPath))
//	exec := tools.NewExecRunner(logger, cfg.Pipeline.ToolRetries)
//	runner := pipeline.NewRunner(cfg, tools.NewExec(exec, cfg.Tools), exec, nil, nil, logger)
//	res, err := runner.Execute(ctx, pipeline.Options{Root: files, Subject: "01"})
//
// [scene]: github.com/brainviz/execsummary/pkg/scene
// [mosaic]: github.com/brainviz/execsummary/pkg/mosaic
// [report]: github.com/brainviz/execsummary/pkg/report
// [outtree]: github.com/brainviz/execsummary/pkg/outtree
// [tools]: github.com/brainviz/execsummary/pkg/tools
// [cache]: github.com/brainviz/execsummary/pkg/cache
// [config]: github.com/brainviz/execsummary/pkg/config
// [errors]: github.com/brainviz/execsummary/pkg/errors
// [observability]: github.com/brainviz/execsummary/pkg/observability
// [pipeline]: github.com/brainviz/execsummary/pkg/pipeline
package pkg
