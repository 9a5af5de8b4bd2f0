package logger

import (
	"context"
	"log/slog"
	"time"
)

// AuditEvent represents a security audit event
type AuditEvent struct {
	EventType      string
	UserID         int64
	IPAddress      string
	Action         string
	AttemptedEmail string
	Success        bool
	FailureReason  string
}

// AuditLogger emits structured audit records for authentication and
// rate-limiting events. Failures log at warn so they stand out in audit
// review; plaintext passwords never pass through here.
type AuditLogger struct {
	logger *slog.Logger
}

// NewAuditLogger creates a new audit logger
func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	return &AuditLogger{
		logger: logger,
	}
}

// LogAuthAttempt logs signup/login/refresh outcomes
func (al *AuditLogger) LogAuthAttempt(event AuditEvent) {
	attrs := []slog.Attr{
		slog.String("audit_type", "auth"),
		slog.String("event_type", event.EventType),
		slog.Bool("success", event.Success),
		slog.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
	}

	if event.UserID != 0 {
		attrs = append(attrs, slog.Int64("user_id", event.UserID))
	}
	if event.IPAddress != "" {
		attrs = append(attrs, slog.String("ip_address", event.IPAddress))
	}
	if event.Action != "" {
		attrs = append(attrs, slog.String("action", event.Action))
	}
	if event.AttemptedEmail != "" {
		attrs = append(attrs, slog.String("attempted_email", SanitizedEmail(event.AttemptedEmail)))
	}
	if event.FailureReason != "" {
		attrs = append(attrs, slog.String("failure_reason", event.FailureReason))
	}

	if event.Success {
		al.logger.LogAttrs(context.Background(), slog.LevelInfo, "audit", attrs...)
	} else {
		al.logger.LogAttrs(context.Background(), slog.LevelWarn, "audit", attrs...)
	}
}

// LogRateLimit logs a rate-limit rejection at warn with its context
func (al *AuditLogger) LogRateLimit(ip, action string, attemptCount int) {
	al.logger.LogAttrs(context.Background(), slog.LevelWarn, "audit",
		slog.String("audit_type", "rate_limit"),
		slog.String("event_type", "rate_limit_exceeded"),
		slog.String("ip_address", ip),
		slog.String("action", action),
		slog.Int("attempt_count", attemptCount),
		slog.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
	)
}
