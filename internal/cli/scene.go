package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/brainviz/execsummary/pkg/errors"
	"github.com/brainviz/execsummary/pkg/scene"
)

// sceneCommand creates the "scene" command, which resolves a template
// without rendering it.
func (c *CLI) sceneCommand() *cobra.Command {
	var (
		output      string
		tokenArgs   []string
		brainsprite bool
	)

	cmd := &cobra.Command{
		Use:   "scene TEMPLATE",
		Short: "Resolve a scene template and report its frame count",
		Long: `Resolve a scene template and report its frame count.

Tokens are given as NAME=PATH. Anatomical templates use T1_IMG, T2_IMG,
RPIAL, LPIAL, RWHITE and LWHITE; brainsprite templates (--brainsprite) use
TX_IMG, R_PIAL, L_PIAL, R_WHITE and L_WHITE.`,
		Example: `  execsummary scene templates/parasagittal_Tx_169_template.scene.gz --brainsprite \
    -t TX_IMG=/data/T1w_restore.nii.gz -t R_PIAL=/data/R.pial.surf.gii -o t1.scene`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := loggerFromContext(cmd.Context())

			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}

			tokens, err := parseTokens(tokenArgs)
			if err != nil {
				return err
			}

			flavor := scene.PNGs
			if brainsprite {
				flavor = scene.Brainsprite
			}

			tmpl, err := scene.Load(args[0])
			if err != nil {
				return err
			}
			resolved := tmpl.Resolve(flavor, tokens)
			logger.Debug("resolved template", "path", tmpl.Path, "flavor", flavor, "hash", resolved.Hash())

			if missing := resolved.Unresolved(flavor, scene.Tokens(flavor)); len(missing) > 0 {
				printWarning("Unresolved tokens: %s", strings.Join(missing, ", "))
			}

			if output != "" {
				if err := resolved.Save(output); err != nil {
					return err
				}
				printSuccess("Scene written")
				printFile(output)
			}

			frames := resolved.CountFrames(cfg.Render.FrameMarker)
			printKeyValue("Frames", StyleNumber.Render(fmt.Sprint(frames)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write the resolved scene to this file")
	cmd.Flags().StringArrayVarP(&tokenArgs, "token", "t", nil, "token substitution NAME=PATH (repeatable)")
	cmd.Flags().BoolVar(&brainsprite, "brainsprite", false, "resolve with brainsprite token rules")

	return cmd
}

// parseTokens parses NAME=PATH pairs. Names are upper-cased.
func parseTokens(args []string) (map[string]string, error) {
	tokens := make(map[string]string, len(args))
	for _, a := range args {
		name, path, ok := strings.Cut(a, "=")
		name = strings.ToUpper(strings.TrimSpace(name))
		if !ok || name == "" || path == "" {
			return nil, errors.New(errors.ErrCodeInvalidInput, "invalid token %q (want NAME=PATH)", a)
		}
		tokens[name] = path
	}
	return tokens, nil
}
