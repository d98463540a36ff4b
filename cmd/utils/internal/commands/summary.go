package commands

import (
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/appetiteclub/till/internal/ledger"
	"github.com/appetiteclub/till/internal/report"
	"github.com/appetiteclub/till/internal/shift"
	"github.com/appetiteclub/till/pkg/platform"
)

// Summary prints today's sales figures and the open shift, if any, as JSON.
func Summary(ctx context.Context, config *platform.Config, logger platform.Logger) error {
	env, err := openTill(ctx, config, logger)
	if err != nil {
		return err
	}
	defer env.stop(ctx)

	return writeSummary(os.Stdout, env.store.Snapshot())
}

func writeSummary(w io.Writer, d *ledger.DailyData) error {
	out := map[string]interface{}{
		"date":  d.Date,
		"sales": report.DailySummary(d.CompletedOrders),
	}
	if d.CurrentShift.IsOpen() {
		out["shift"] = shift.ComputeSummary(d.CurrentShift, d.CompletedOrders)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
