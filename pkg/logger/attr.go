package logger

import "log/slog"

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// MessageID records the provider message reference under "message_id".
func MessageID(id string) slog.Attr {
	return slog.String("message_id", id)
}

// LogID records the delivery log entry identifier under "log_id".
func LogID(id string) slog.Attr {
	return slog.String("log_id", id)
}

// NotificationType records the notification type under "notification_type".
func NotificationType(t string) slog.Attr {
	return slog.String("notification_type", t)
}

// Channel records the delivery channel under "channel".
func Channel(ch string) slog.Attr {
	return slog.String("channel", ch)
}

// Recipient records the destination address under "recipient".
func Recipient(r string) slog.Attr {
	return slog.String("recipient", r)
}

// RetryCount records the retry count under "retry_count".
func RetryCount(count int) slog.Attr {
	return slog.Int("retry_count", count)
}

// Component records the component name under "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}
