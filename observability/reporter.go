package observability

import (
	"context"
	"log/slog"
	"time"
)

// Reporter periodically logs a stats snapshot. Runs under the
// supervisor like any other worker.
type Reporter struct {
	log      *slog.Logger
	monitor  *Monitor
	interval time.Duration
}

func NewReporter(monitor *Monitor, interval time.Duration, log *slog.Logger) *Reporter {
	return &Reporter{log: log, monitor: monitor, interval: interval}
}

func (r *Reporter) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			r.log.Debug("Context done, stopping stats reporter")
			return nil
		case <-ticker.C:
			stats := r.monitor.Snapshot()
			r.log.Info("Runtime stats",
				"events", stats.Events,
				"commands", stats.Commands,
				"edits_moderated", stats.EditsModerated,
				"messages_screened", stats.MessagesScreened,
				"presence_clears", stats.PresenceClears,
				"broadcasts", stats.Broadcasts,
				"delivery_failures", stats.DeliveryFailures,
				"alloc_mb", stats.AllocMemMb,
				"cpu_percent", stats.CPUPercent,
				"rss_mb", stats.RSSMb,
			)
		}
	}
}
