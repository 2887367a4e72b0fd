package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	pio "github.com/matzehuels/framelink/pkg/io"
	"github.com/matzehuels/framelink/pkg/link"
)

// errViolations makes the command exit non-zero without repeating the report.
var errViolations = errors.New("project has invariant violations")

// validateCommand creates the validate command.
func (c *CLI) validateCommand() *cobra.Command {
	var (
		mode    string
		noCache bool
	)
	cmd := &cobra.Command{
		Use:   "validate <project.json>",
		Short: "Check link and visibility invariants",
		Long: `Check a project document against the link invariants of one or both modes:
locked, linked and descriptor agree; group ids carry the mode prefix; linked
layers share a name; every group has a main member; hidden sets match the
visible flags.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			modes, err := parseModes(mode)
			if err != nil {
				return err
			}
			p, err := pio.ImportJSON(args[0])
			if err != nil {
				return err
			}
			r, err := c.newRunner(cmd.Context(), noCache)
			if err != nil {
				return err
			}
			defer r.Close()

			total := 0
			for _, m := range modes {
				violations, hit, err := r.Validate(cmd.Context(), p, m)
				if err != nil {
					return err
				}
				total += len(violations)
				if len(violations) == 0 {
					printSuccess("%s: no violations", m)
				} else {
					printWarning("%s: %d violation(s)", m, len(violations))
					for _, v := range violations {
						printDetail("%s", v)
					}
				}
				printStats(hit, fmt.Sprintf("%d frames", len(p.Frames)))
			}
			if total > 0 {
				return errViolations
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&mode, "mode", "m", "all", "mode to check: gif, animation or all")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass the result cache")
	return cmd
}

// parseModes resolves a --mode value; "all" and "" select both modes.
func parseModes(s string) ([]link.Mode, error) {
	if s == "" || s == "all" {
		return link.Modes, nil
	}
	m, err := link.ParseMode(s)
	if err != nil {
		return nil, err
	}
	return []link.Mode{m}, nil
}
