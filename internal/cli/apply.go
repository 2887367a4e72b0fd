package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	pio "github.com/matzehuels/framelink/pkg/io"
	"github.com/matzehuels/framelink/pkg/pipeline"
)

// applyCommand creates the apply command.
func (c *CLI) applyCommand() *cobra.Command {
	var (
		output  string
		noCache bool
	)
	cmd := &cobra.Command{
		Use:   "apply <project.json> <script.toml|script.json>",
		Short: "Run an edit script against a project",
		Long: `Run the ops of an edit script in order and write the resulting project.

Without --output the project is written to stdout.`,
		Example: `  framelink apply banner.json edits.toml -o banner.out.json`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := pio.ImportJSON(args[0])
			if err != nil {
				return err
			}
			script, err := pipeline.LoadScript(args[1])
			if err != nil {
				return err
			}
			r, err := c.newRunner(cmd.Context(), noCache)
			if err != nil {
				return err
			}
			defer r.Close()

			st := startStage(c.Logger)
			out, hit, err := r.Apply(cmd.Context(), p, script.Ops)
			if err != nil {
				return err
			}
			st.done("script applied", "ops", len(script.Ops), "cached", hit)

			if output == "" {
				return pio.WriteJSON(out, os.Stdout)
			}
			if err := pio.ExportJSON(out, output); err != nil {
				return err
			}
			printSuccess("Applied %d op(s)", len(script.Ops))
			printStats(hit, fmt.Sprintf("%d frames", len(out.Frames)))
			printFile(output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output project file (default stdout)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass the result cache")
	return cmd
}
