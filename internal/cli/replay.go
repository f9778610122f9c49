package cli

import (
	"context"
	"fmt"
	"strings"

	"swipedo/internal/replay"

	"github.com/spf13/cobra"
)

type replaySummary struct {
	Data replay.Trace `json:"data"`
}

func (r replaySummary) Text() string {
	var b strings.Builder
	for _, st := range r.Data.Steps {
		fmt.Fprintf(&b, "%8.1fms  #%-3d %-8s %-6s", st.AtMs, st.Index, st.Op, st.Key)
		if st.Outcome != nil {
			fmt.Fprintf(&b, " -> %s", st.Outcome)
		}
		if st.Intercepted {
			b.WriteString(" (tap intercepted)")
		}
		if st.Error != "" {
			fmt.Fprintf(&b, " error: %s", st.Error)
		}
		for _, row := range st.Rows {
			fmt.Fprintf(&b, "\n            %-10s %-9s offset=%7.2f exit=%7.2f scale=%.2f alpha=%.2f",
				row.Key, row.Phase, row.Offset, row.Exit, row.Scale, row.Alpha)
		}
		b.WriteByte('\n')
	}
	for _, f := range r.Data.Fired {
		fmt.Fprintf(&b, "fired %s:%s at %.1fms\n", f.Key, f.Action, f.AtMs)
	}
	fmt.Fprintf(&b, "%d haptic pulses", len(r.Data.Pulses))
	return b.String()
}

func newReplayCmd(app *App) *cobra.Command {
	var finalOnly bool
	cmd := &cobra.Command{
		Use:   "replay <script.yaml>",
		Short: "Replay a gesture script headlessly and print the trace",
		Long: strings.TrimSpace(`
Replays drags, releases and taps against an in-memory list on a fixed 60fps
virtual clock. Useful for tuning geometry and spring settings without a
terminal.
`),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := replay.LoadFile(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			st, err := resolveStore(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			tr, err := replay.Run(ctx, s, app.logger(st).With("replay", s.Name))
			if err != nil {
				return writeErr(cmd, err)
			}
			if finalOnly && len(tr.Steps) > 0 {
				tr.Steps = tr.Steps[len(tr.Steps)-1:]
			}
			return writeOut(cmd, app, replaySummary{Data: *tr})
		},
	}
	cmd.Flags().BoolVar(&finalOnly, "final", false, "Only print the state after the last step")
	return cmd
}
