package notify

import (
	"context"

	"github.com/notexe/plant-care/internal/logging"
)

// LogSender writes fired alerts to the log. Used when no chat is configured.
type LogSender struct {
	logger *logging.Logger
}

func NewLogSender(logger *logging.Logger) *LogSender {
	return &LogSender{logger: logger.WithComponent("notify")}
}

func (s *LogSender) Send(_ context.Context, alert Alert) error {
	s.logger.Infow("Alert fired",
		"reminder_id", alert.ReminderID,
		"title", alert.Title,
		"body", alert.Body,
		"trigger", alert.Trigger.String(),
	)
	return nil
}
