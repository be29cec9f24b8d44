package log

import (
	"fmt"

	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"
)

// taggedFields are log fields that are indexed as sentry tags instead of extras.
var taggedFields = []string{"stepName", "session", "reason"}

// SentryHook reports fatal step failures, e.g. a failed service bus deployment, to a sentry project.
type SentryHook struct {
	Hub           *sentry.Hub
	correlationID string
	lastEvent     *sentry.Event
}

// NewSentryHook initializes the sentry client for the given DSN.
// An invalid DSN is logged and results in a hook without client, which drops all events.
func NewSentryHook(dsn, correlationID string) SentryHook {
	Entry().Debugf("Initializing Sentry with DSN %v", dsn)
	client, err := sentry.NewClient(sentry.ClientOptions{Dsn: dsn, AttachStacktrace: true})
	if err != nil {
		Entry().Warnf("cannot initialize sentry: %v", err)
		client = nil
	}
	return SentryHook{
		Hub:           sentry.NewHub(client, sentry.NewScope()),
		correlationID: correlationID,
	}
}

// Levels returns the supported log level of the hook.
func (h *SentryHook) Levels() []logrus.Level {
	return []logrus.Level{logrus.PanicLevel, logrus.FatalLevel}
}

// Fire sends the entry as sentry event.
func (h *SentryHook) Fire(entry *logrus.Entry) error {
	event := sentry.NewEvent()
	event.Level = sentry.LevelFatal
	event.Message = entry.Message
	event.Tags["correlationId"] = h.correlationID
	event.Tags["category"] = GetErrorCategory().String()

	for k, v := range entry.Data {
		if k == logrus.ErrorKey {
			continue
		}
		event.Extra[k] = v
	}
	for _, field := range taggedFields {
		if value, ok := entry.Data[field]; ok {
			event.Tags[field] = fmt.Sprint(value)
		}
	}

	exception := sentry.Exception{Type: entry.Message}
	if err, ok := entry.Data[logrus.ErrorKey].(error); ok {
		exception.Value = err.Error()
		exception.Stacktrace = sentry.ExtractStacktrace(err)
	}
	event.Exception = []sentry.Exception{exception}

	h.lastEvent = event
	h.Hub.CaptureEvent(event)
	return nil
}
