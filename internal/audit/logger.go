// Package audit emits structured audit events for import pipeline activity,
// so tenant-visible mutations are traceable in the logs.
package audit

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type EventType string

const (
	EventImportUploaded  EventType = "import_uploaded"
	EventImportValidated EventType = "import_validated"
	EventImportCancelled EventType = "import_cancelled"
	EventAuthFailure     EventType = "auth_failure"
	EventRateLimitExceed EventType = "rate_limit_exceeded"
)

type Event struct {
	Type      EventType
	TenantID  string
	AccountID string
	SessionID string
	Details   map[string]any
}

func LogEvent(ctx context.Context, event Event) {
	logger := log.With().
		Str("audit", "imports").
		Str("event_type", string(event.Type)).
		Time("timestamp", time.Now()).
		Logger()

	if event.TenantID != "" {
		logger = logger.With().Str("tenant_id", event.TenantID).Logger()
	}
	if event.AccountID != "" {
		logger = logger.With().Str("account_id", event.AccountID).Logger()
	}
	if event.SessionID != "" {
		logger = logger.With().Str("session_id", event.SessionID).Logger()
	}

	logEvent := logger.Info()
	for k, v := range event.Details {
		logEvent = addField(logEvent, k, v)
	}
	logEvent.Msg("audit event")
}

func addField(e *zerolog.Event, key string, value any) *zerolog.Event {
	switch v := value.(type) {
	case string:
		return e.Str(key, v)
	case int:
		return e.Int(key, v)
	case int64:
		return e.Int64(key, v)
	case bool:
		return e.Bool(key, v)
	default:
		return e.Interface(key, v)
	}
}
