package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ashureev/convoscore/internal/metrics"
)

// SweepReport summarizes one batch sweep.
type SweepReport struct {
	Selected int `json:"selected"`
	Analyzed int `json:"analyzed"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}

// Message renders the report the way the sweep logs it. The count is every
// conversation the sweep selected, including empty ones it skipped.
func (r SweepReport) Message() string {
	return fmt.Sprintf("Analyzed %d new conversations", r.Selected)
}

// SweepPending analyzes every conversation that has no result yet. Each
// conversation is independent; up to the configured number of workers run in
// parallel. A failure on one conversation is counted and does not stop the rest.
func (s *Service) SweepPending(ctx context.Context) (SweepReport, error) {
	start := time.Now()

	pending, err := s.repo.ListUnanalyzedConversations(ctx)
	if err != nil {
		return SweepReport{}, fmt.Errorf("list unanalyzed conversations: %w", err)
	}

	var analyzed, skipped, failed atomic.Int64
	g := new(errgroup.Group)
	g.SetLimit(s.workers)

	for _, conv := range pending {
		if ctx.Err() != nil {
			break
		}
		id := conv.ID
		g.Go(func() error {
			result, err := s.analyze(ctx, id, TriggerSweep)
			switch {
			case err != nil:
				failed.Add(1)
				slog.Error("Sweep failed to analyze conversation", "conversation_id", id, "error", err)
			case result == nil:
				skipped.Add(1)
			default:
				analyzed.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	report := SweepReport{
		Selected: len(pending),
		Analyzed: int(analyzed.Load()),
		Skipped:  int(skipped.Load()),
		Failed:   int(failed.Load()),
	}
	metrics.RecordSweep(time.Since(start), report.Analyzed, report.Skipped, report.Failed)

	if err := ctx.Err(); err != nil {
		return report, fmt.Errorf("sweep interrupted: %w", err)
	}
	return report, nil
}

// StartSweepWorker runs a background goroutine that periodically sweeps for
// conversations lacking a result. It stops when ctx is canceled.
func StartSweepWorker(ctx context.Context, svc *Service, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		slog.Info("Sweep worker started", "interval", interval, "workers", svc.workers)

		for {
			select {
			case <-ticker.C:
				runSweep(ctx, svc)
			case <-ctx.Done():
				slog.Info("Sweep worker shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
}

func runSweep(ctx context.Context, svc *Service) {
	report, err := svc.SweepPending(ctx)
	if err != nil {
		slog.Error("Sweep failed", "error", err, "analyzed", report.Analyzed)
		return
	}
	if report.Selected == 0 {
		return
	}
	slog.Info(report.Message(),
		"analyzed", report.Analyzed,
		"skipped", report.Skipped,
		"failed", report.Failed)
}
