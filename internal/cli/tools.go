package cli

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/brainviz/execsummary/pkg/config"
	"github.com/brainviz/execsummary/pkg/errors"
	"github.com/brainviz/execsummary/pkg/tools"
)

// toolsCommand creates the "tools" command group.
func (c *CLI) toolsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "Inspect the external tools and templates",
	}
	cmd.AddCommand(c.toolsCheckCommand())
	return cmd
}

// checkRow is one line of the tools check table.
type checkRow struct {
	Kind  string
	Name  string
	Path  string
	Found bool
}

// checkInstallation looks up every configured binary on PATH and stats
// the default templates.
func checkInstallation(cfg *config.Config) []checkRow {
	var rows []checkRow
	for _, name := range tools.Binaries(cfg.Tools) {
		path, ok := tools.Available(name)
		rows = append(rows, checkRow{Kind: "tool", Name: name, Path: path, Found: ok})
	}

	templates := []struct{ name, path string }{
		{"pngs template", cfg.PNGsTemplatePath()},
		{"brainsprite template", cfg.BrainspriteTemplatePath()},
		{"atlas", cfg.DefaultAtlasPath()},
	}
	for _, t := range templates {
		_, err := os.Stat(t.path)
		rows = append(rows, checkRow{Kind: "template", Name: t.name, Path: t.path, Found: err == nil})
	}
	return rows
}

func (c *CLI) toolsCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check that every external tool and template is available",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}

			rows := checkInstallation(cfg)
			missing := 0
			cells := make([][]string, len(rows))
			for i, r := range rows {
				status := styleIconSuccess.Render(iconSuccess)
				if !r.Found {
					status = styleIconError.Render(iconError)
					missing++
				}
				cells[i] = []string{status, r.Kind, r.Name, r.Path}
			}

			t := table.New().
				Border(lipgloss.RoundedBorder()).
				BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
				Headers("", "Kind", "Name", "Path").
				Rows(cells...).
				StyleFunc(func(row, col int) lipgloss.Style {
					if row == table.HeaderRow {
						return styleHeader
					}
					if col == 3 {
						return lipgloss.NewStyle().Padding(0, 1).Foreground(colorGray)
					}
					return lipgloss.NewStyle().Padding(0, 1)
				})
			fmt.Println(t.Render())

			if missing > 0 {
				return errors.New(errors.ErrCodeToolNotFound, "%d of %d requirements missing", missing, len(rows))
			}
			printSuccess("All tools and templates found")
			return nil
		},
	}
}
