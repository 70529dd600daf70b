package notifier

import (
	"context"

	"med-reminder/internal/platform/logger"
	"med-reminder/internal/ports/notify"
)

// LogChannel escribe la alarma en el log estructurado.
type LogChannel struct {
	log logger.Logger
}

func NewLogChannel(log logger.Logger) *LogChannel {
	return &LogChannel{log: log}
}

func (c *LogChannel) Notify(_ context.Context, n notify.Notification) error {
	if c == nil || c.log == nil {
		return notify.ErrUnavailable
	}
	c.log.Info("alarm", map[string]any{
		"title": n.Title,
		"body":  n.Body,
		"icon":  n.Icon,
	})
	return nil
}
