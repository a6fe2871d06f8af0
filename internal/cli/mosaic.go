package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/brainviz/execsummary/pkg/mosaic"
)

// mosaicCommand creates the "mosaic" command, which assembles a sprite
// sheet from an existing frame directory.
func (c *CLI) mosaicCommand() *cobra.Command {
	var (
		output  string
		tile    int
		quality int
	)

	cmd := &cobra.Command{
		Use:   "mosaic FRAMES_DIR",
		Short: "Assemble a brainsprite mosaic from a directory of frames",
		Long: `Assemble a brainsprite mosaic from a directory of frames.

Frames are ordered by reverse natural sort, mirrored horizontally, fitted
into square tiles and laid out on a floor(sqrt(n)) grid.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			opts := mosaic.Options{Tile: cfg.Mosaic.Tile, Quality: cfg.Mosaic.Quality}
			if tile > 0 {
				opts.Tile = tile
			}
			if quality > 0 {
				opts.Quality = quality
			}

			dir := args[0]
			if output == "" {
				output = filepath.Join(filepath.Dir(filepath.Clean(dir)), filepath.Base(dir)+"_mosaic.jpg")
			}

			prog := newProgress(logger)
			spinner := newSpinnerWithContext(ctx, "Assembling "+dir)
			spinner.Start()
			res, err := mosaic.Assemble(ctx, dir, output, opts)
			if err != nil {
				spinner.StopWithError("Mosaic failed")
				return err
			}
			spinner.Stop()
			prog.done("Assembled mosaic")

			printSuccess("Mosaic written")
			printFile(res.Path)
			printDetail("%d frames, %d placed on a %dx%d grid (%dpx)", res.Frames, res.Placed, res.Side, res.Side, res.Size)
			if res.Placed < res.Frames {
				printWarning("%d frames beyond the grid were not placed", res.Frames-res.Placed)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output JPEG (default <FRAMES_DIR>_mosaic.jpg)")
	cmd.Flags().IntVar(&tile, "tile", 0, fmt.Sprintf("tile edge in pixels (default from config, %d)", mosaic.DefaultTile))
	cmd.Flags().IntVar(&quality, "quality", 0, fmt.Sprintf("JPEG quality (default from config, %d)", mosaic.DefaultQuality))

	return cmd
}
