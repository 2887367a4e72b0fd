package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/framelink/pkg/errors"
	pio "github.com/matzehuels/framelink/pkg/io"
	"github.com/matzehuels/framelink/pkg/link"
	"github.com/matzehuels/framelink/pkg/session"
)

// linkedCommand creates the linked command.
func (c *CLI) linkedCommand() *cobra.Command {
	var layer, mode string
	cmd := &cobra.Command{
		Use:   "linked <project.json>",
		Short: "List the layers linked to a layer",
		Long: `List the layers a change to --layer would propagate to in --mode.

In gif mode, a layer without a group falls back to same-named layers in
other sizes at the same frame number.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := link.ParseMode(mode)
			if err != nil {
				return err
			}
			p, err := pio.ImportJSON(args[0])
			if err != nil {
				return err
			}
			f, l := p.Frames.Locate(layer)
			if f == nil {
				return errors.New(errors.ErrCodeNotFound, "layer %q not found", layer)
			}
			ed, err := session.NewEditor(p, session.Options{Logger: c.Logger, AnimationScope: c.Config.Link.Scope()})
			if err != nil {
				return err
			}

			ids := ed.LinkedLayers(layer, m)
			printKeyValue("Layer", fmt.Sprintf("%s (%s)", l.Name, f.ID))
			printKeyValue("Mode", string(m))
			if len(ids) == 0 {
				printInfo("No linked layers")
				return nil
			}
			for _, id := range ids {
				tf, tl := p.Frames.Locate(id)
				if tf == nil {
					printDetail("%s", id)
					continue
				}
				printDetail("%s  %s  %s", tf.ID, tl.Name, id)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&layer, "layer", "", "layer id (required)")
	cmd.Flags().StringVarP(&mode, "mode", "m", string(link.ModeGIF), "link mode: gif or animation")
	_ = cmd.MarkFlagRequired("layer")
	return cmd
}
