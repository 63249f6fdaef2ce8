package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"serotonyl.ru/season-bot/internal/common"
	"serotonyl.ru/season-bot/internal/features/season"
)

// newClassifyCommand прогоняет подписи/имена файлов через распознавание
// так же, как это делает бот. Удобно подбирать /ignore и /epmode.
func newClassifyCommand() *cobra.Command {
	var modeFlag string
	var ignoreFlag string

	cmd := &cobra.Command{
		Use:   "classify <caption or filename>...",
		Short: "Show the detected episode and quality for each argument",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, ok := season.ParseMode(modeFlag)
			if !ok {
				return fmt.Errorf("unknown mode %q (use marker or three)", modeFlag)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderClassification(args, mode, ignoreFlag))
			return nil
		},
	}

	cmd.Flags().StringVarP(&modeFlag, "mode", "m", "marker", "Episode detection mode: marker or three")
	cmd.Flags().StringVarP(&ignoreFlag, "ignore", "i", "", "Text to cut before detection")
	return cmd
}

func renderClassification(inputs []string, mode season.Mode, ignore string) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Input", "Episode", "Quality", "Result"})

	for _, input := range inputs {
		res := season.Classify(input, mode, ignore)
		episode, quality, verdict := "-", "-", "ok"
		if res.Episode > 0 {
			episode = common.FormatEpisode(res.Episode)
		}
		if res.Quality != "" {
			quality = string(res.Quality)
		}
		if err := res.Err(); err != nil {
			verdict = "rejected"
		}
		tw.AppendRow(table.Row{common.Truncate(input, 60), episode, quality, verdict})
	}
	tw.SetCaption("mode: %s", mode.Label())
	return tw.Render()
}
