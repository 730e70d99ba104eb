package asyncsvc

import (
	"io"

	"github.com/isdelr/blogstack/internal/logger"
	"github.com/rs/zerolog"
)

// ActivityLog appends one JSON line per notable side-service event.
type ActivityLog struct {
	log    zerolog.Logger
	closer io.Closer
}

// OpenActivityLog opens path for appending. An empty path discards entries.
func OpenActivityLog(path string) (*ActivityLog, error) {
	if path == "" {
		return &ActivityLog{log: zerolog.Nop()}, nil
	}
	l, closer, err := logger.OpenFile(path)
	if err != nil {
		return nil, err
	}
	return &ActivityLog{log: l, closer: closer}, nil
}

// NewActivityLog writes entries to w.
func NewActivityLog(w io.Writer) *ActivityLog {
	return &ActivityLog{log: zerolog.New(w).With().Timestamp().Logger()}
}

// Record appends an entry.
func (a *ActivityLog) Record(activity string) {
	a.log.Info().Str("activity", activity).Send()
}

// Close releases the underlying file.
func (a *ActivityLog) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}
