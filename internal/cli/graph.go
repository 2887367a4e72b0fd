package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	pio "github.com/matzehuels/framelink/pkg/io"
	"github.com/matzehuels/framelink/pkg/link"
	"github.com/matzehuels/framelink/pkg/pipeline"
)

// graphCommand creates the graph command.
func (c *CLI) graphCommand() *cobra.Command {
	var (
		output, mode, format string
		noCache              bool
	)
	cmd := &cobra.Command{
		Use:   "graph <project.json>",
		Short: "Draw link groups as a diagram",
		Long: `Draw every link group of --mode as a Graphviz cluster.

The format comes from --format, else from the --output extension, else DOT.
PDF and PNG need rsvg-convert (librsvg).`,
		Example: `  framelink graph banner.json -m gif -o links.svg`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := link.ParseMode(mode)
			if err != nil {
				return err
			}
			if format == "" {
				format = formatFromPath(output)
			}
			if err := pipeline.ValidateFormat(format); err != nil {
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

			var spin *Spinner
			if output != "" && format != pipeline.FormatDOT {
				spin = newSpinnerWithContext(cmd.Context(), "Rendering "+format+"...")
				spin.Start()
			}
			data, hit, err := r.Graph(cmd.Context(), p, m, format)
			if spin != nil {
				spin.Stop()
			}
			if err != nil {
				return err
			}

			if output == "" {
				_, err := os.Stdout.Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return err
			}
			printSuccess("Rendered %s graph", m)
			printStats(hit, fmt.Sprintf("%d bytes", len(data)))
			printFile(output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringVarP(&mode, "mode", "m", string(link.ModeGIF), "link mode: gif or animation")
	cmd.Flags().StringVarP(&format, "format", "f", "", "output format: dot, svg, pdf or png")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass the result cache")
	return cmd
}

// formatFromPath picks the output format from a file extension.
func formatFromPath(path string) string {
	switch ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."); ext {
	case pipeline.FormatSVG, pipeline.FormatPDF, pipeline.FormatPNG:
		return ext
	default:
		return pipeline.FormatDOT
	}
}
