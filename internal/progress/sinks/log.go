package sinks

import (
	"go.uber.org/zap"

	"github.com/JakeFAU/review-scraper/internal/progress"
)

// LogSink writes one structured log line per progress event.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink wires a Zap logger to the observer interface.
func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger}
}

// Observe logs evt. Page events are logged at debug level since the scraper
// already reports company totals at info.
func (s *LogSink) Observe(evt progress.Event) {
	if err := evt.Validate(); err != nil {
		s.logger.Debug("discarding invalid progress event", zap.Error(err))
		return
	}
	fields := []zap.Field{
		zap.String("stage", string(evt.Stage)),
		zap.Time("ts", evt.TS),
	}
	if evt.RunID != "" {
		fields = append(fields, zap.String("run_id", evt.RunID))
	}
	if evt.Company != "" {
		fields = append(fields, zap.String("company", evt.Company))
	}
	if evt.URL != "" {
		fields = append(fields, zap.String("url", evt.URL))
	}

	switch evt.Stage {
	case progress.StagePageDone:
		fields = append(fields,
			zap.Int("page", evt.Page),
			zap.Int("entries", evt.Entries),
			zap.Int("new", evt.New),
			zap.Int("total_new", evt.TotalNew),
			zap.Int("total", evt.Total),
			zap.Int64("bytes", evt.Bytes),
			zap.Duration("dur", evt.Dur),
		)
		s.logger.Debug("page scraped", fields...)
	case progress.StageCompanyError:
		fields = append(fields, zap.Int("new", evt.New), zap.String("note", evt.Note))
		s.logger.Warn("progress event", fields...)
	default:
		fields = append(fields,
			zap.Int("new", evt.New),
			zap.Int("total_new", evt.TotalNew),
			zap.Int("total", evt.Total),
			zap.Duration("dur", evt.Dur),
		)
		s.logger.Info("progress event", fields...)
	}
}
