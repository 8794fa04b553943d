package log

import (
	"context"
	"log/slog"
)

// SlogAdapter renders protocol events as runtime log records, one record per
// event with the message "protocol".
type SlogAdapter struct {
	logger *slog.Logger
	level  slog.Level
}

// NewSlogAdapter logs events to logger at debug level.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger, level: slog.LevelDebug}
}

// WithLevel returns a copy of a that logs at level.
func (a *SlogAdapter) WithLevel(level slog.Level) *SlogAdapter {
	c := *a
	c.level = level
	return &c
}

// Log implements Logger.
func (a *SlogAdapter) Log(event Event) {
	ctx := context.Background()
	if !a.logger.Enabled(ctx, a.level) {
		return
	}
	a.logger.LogAttrs(ctx, a.level, "protocol", eventAttrs(event)...)
}

func eventAttrs(ev Event) []slog.Attr {
	attrs := []slog.Attr{
		slog.String("conn_id", ev.ConnectionID),
		slog.String("direction", ev.Direction.String()),
		slog.String("layer", ev.Layer.String()),
		slog.String("category", ev.Category.String()),
	}
	if ev.Channel != "" {
		attrs = append(attrs, slog.String("channel", ev.Channel))
	}
	if ev.Path != "" {
		attrs = append(attrs, slog.String("path", ev.Path))
	}

	switch {
	case ev.Frame != nil:
		attrs = append(attrs, slog.Int("frame_size", ev.Frame.Size), slog.Bool("truncated", ev.Frame.Truncated))
	case ev.Message != nil:
		attrs = append(attrs, messageAttrs(ev.Message)...)
	case ev.StateChange != nil:
		sc := ev.StateChange
		attrs = append(attrs,
			slog.String("entity", sc.Entity.String()),
			slog.String("old_state", sc.OldState),
			slog.String("new_state", sc.NewState))
		if sc.Reason != "" {
			attrs = append(attrs, slog.String("reason", sc.Reason))
		}
	case ev.ControlMsg != nil:
		attrs = append(attrs, slog.String("ctrl_type", ev.ControlMsg.Type.String()))
	case ev.Error != nil:
		attrs = append(attrs,
			slog.String("error_layer", ev.Error.Layer.String()),
			slog.String("error_msg", ev.Error.Message),
			slog.String("error_context", ev.Error.Context))
		if ev.Error.Code != nil {
			attrs = append(attrs, slog.Int("error_code", *ev.Error.Code))
		}
	}
	return attrs
}

func messageAttrs(m *MessageEvent) []slog.Attr {
	attrs := []slog.Attr{
		slog.Uint64("msg_id", uint64(m.MessageID)),
		slog.String("msg_type", m.Type.String()),
	}
	if m.Operation != nil {
		attrs = append(attrs, slog.String("operation", m.Operation.String()))
	}
	if m.Name != "" {
		attrs = append(attrs, slog.String("name", m.Name))
	}
	if m.MonitorID != nil {
		attrs = append(attrs, slog.Uint64("monitor", uint64(*m.MonitorID)))
	}
	if m.Status != nil {
		attrs = append(attrs, slog.String("status", m.Status.String()))
	}
	if m.Payload != nil {
		attrs = append(attrs, slog.Any("value", m.Payload))
	}
	if m.ProcessingTime != nil {
		attrs = append(attrs, slog.Duration("processing_time", *m.ProcessingTime))
	}
	return attrs
}

var _ Logger = (*SlogAdapter)(nil)
