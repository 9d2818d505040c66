package engine

import (
	"context"
	"log/slog"

	"github.com/leengari/mini-optimizer/internal/planner"
)

// LoggingObserver writes explain lifecycle events to a slog logger. Only
// the start and end of a run are logged at info.
type LoggingObserver struct {
	logger *slog.Logger
}

func NewLoggingObserver(logger *slog.Logger) *LoggingObserver {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingObserver{logger: logger}
}

func (lo *LoggingObserver) OnEvent(event Event) {
	switch data := event.Data.(type) {
	case planner.StageEvent:
		lo.logger.Debug("optimizer_stage",
			"run_id", event.RunID,
			"stage", data.Stage,
			"nodes", data.Nodes,
			"snapshots", data.Snapshots,
			"duration", data.Duration,
		)
	case error:
		lo.logger.Warn("explain_lifecycle",
			"event", event.Type,
			"run_id", event.RunID,
			"error", data,
		)
	default:
		level := slog.LevelDebug
		if event.Type == EventExplainStart || event.Type == EventExplainEnd {
			level = slog.LevelInfo
		}
		lo.logger.Log(context.Background(), level, "explain_lifecycle",
			"event", event.Type,
			"run_id", event.RunID,
			"data", event.Data,
		)
	}
}
