package actions

import (
	"slices"

	"smartpick.dev/smartpick/internal/engine"
	"smartpick.dev/smartpick/internal/runtime"
	"smartpick.dev/smartpick/internal/stats"
)

// StatsAction summarizes the recorded run events
func StatsAction(ctx *runtime.Context) error {
	splog := ctx.Splog
	records, err := stats.Read(stats.Path(ctx.GitDir()))
	if err != nil {
		return err
	}
	if len(records) == 0 {
		splog.Info("No statistics recorded.")
		if !ctx.Config.RecordStats {
			splog.Tip("Enable them with: smartpick config set record_stats true")
		}
		return nil
	}

	summary := stats.Summarize(records)
	splog.Info("%d run(s), %d event(s)", summary.Runs, len(records))
	kinds := make([]engine.EventKind, 0, len(summary.Counts))
	for k := range summary.Counts {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	for _, k := range kinds {
		splog.Info("  %-14s %d", k, summary.Counts[k])
	}
	return nil
}
