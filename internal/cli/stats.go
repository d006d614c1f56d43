package cli

import (
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/qlogtree/pkg/errors"
	"github.com/matzehuels/qlogtree/pkg/stats"
)

// fetchTimeCommand creates the fetchtime command.
func (c *CLI) fetchTimeCommand() *cobra.Command {
	var repair, output string
	cmd := &cobra.Command{
		Use:   "fetchtime <logfile>",
		Short: "Render a request waterfall of a trace",
		Long: `Render a request waterfall of a client-side qlog trace.

Each request runs from its GET to the FIN of its stream, drawn at one pixel
per millisecond above a ruler of one-second blocks.`,
		Args:              singleLogArg,
		ValidArgsFunction: completeTrace,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := log.WithContext(cmd.Context(), c.Logger)
			lt, err := c.loadTrace(ctx, args[0], c.repairMode(repair))
			if err != nil {
				return err
			}

			fetches := stats.FetchTimes(lt.Events)
			c.Logger.Debug("fetches paired", "count", len(fetches), "last_end", stats.LastEnd(fetches))
			html, err := stats.Waterfall(filepath.Base(args[0]), fetches)
			if err != nil {
				return err
			}
			printSuccess("Waterfall of %d requests", len(fetches))
			return writeFile(output, html)
		},
	}
	cmd.Flags().StringVar(&repair, "repair", "", "fix unterminated traces: ask (default), yes, no")
	cmd.Flags().StringVarP(&output, "output", "o", stats.WaterfallFileName, "output file")
	return cmd
}

// ttcCommand creates the time-to-completion chart command.
func (c *CLI) ttcCommand() *cobra.Command {
	var repair, format string
	cmd := &cobra.Command{
		Use:   "ttc <scheme> <logfile>",
		Short: "Chart the time to completion of every stream",
		Long: `Chart the time to completion of every requested stream of a trace.

The chart is titled after the prioritization scheme and written to
<scheme>.pdf, or <scheme>.svg with --format svg. PDF output needs rsvg-convert.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 2 {
				return errors.New(errors.ErrCodeInvalidArguments,
					"incorrect argument count; usage: %s <schemename> <logname> (log must be client-side)", cmd.CommandPath())
			}
			return errors.ValidateSchemeName(args[0])
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := log.WithContext(cmd.Context(), c.Logger)
			scheme := args[0]
			if format != "pdf" && format != "svg" {
				return errors.New(errors.ErrCodeInvalidArguments, "invalid --format %q (must be pdf or svg)", format)
			}

			lt, err := c.loadTrace(ctx, args[1], c.repairMode(repair))
			if err != nil {
				return err
			}
			completions, err := stats.CompletionTimes(lt.Events)
			if err != nil {
				return err
			}

			data := stats.CompletionChartSVG(scheme, completions)
			if format == "pdf" {
				if data, err = stats.CompletionChartPDF(scheme, completions); err != nil {
					return err
				}
			}
			printSuccess("Completion chart of %d streams", len(completions))
			return writeFile(stats.ChartFileName(scheme, format), data)
		},
	}
	cmd.Flags().StringVar(&repair, "repair", "", "fix unterminated traces: ask (default), yes, no")
	cmd.Flags().StringVar(&format, "format", "pdf", "chart format: pdf, svg")
	return cmd
}

// chunksCommand creates the data chunk view command.
func (c *CLI) chunksCommand() *cobra.Command {
	var repair, output string
	cmd := &cobra.Command{
		Use:               "chunks <logfile>",
		Short:             "Show the sequence of DATA chunks with their weights",
		Args:              singleLogArg,
		ValidArgsFunction: completeTrace,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := log.WithContext(cmd.Context(), c.Logger)
			lt, err := c.loadTrace(ctx, args[0], c.repairMode(repair))
			if err != nil {
				return err
			}

			chunks := stats.DataChunks(lt.Events)
			html, err := stats.ChunkView(filepath.Base(args[0]), chunks)
			if err != nil {
				return err
			}
			printSuccess("%d data chunks", len(chunks))
			return writeFile(output, html)
		},
	}
	cmd.Flags().StringVar(&repair, "repair", "", "fix unterminated traces: ask (default), yes, no")
	cmd.Flags().StringVarP(&output, "output", "o", stats.ChunksFileName, "output file")
	return cmd
}

// repairMode returns flag, or the configured mode when flag is empty.
func (c *CLI) repairMode(flag string) string {
	if flag != "" {
		return flag
	}
	return c.Config.Repair.Mode
}
