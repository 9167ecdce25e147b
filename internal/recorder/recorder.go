package recorder

import (
	"time"

	"CryptoSentinel/internal/model"
)

// RefreshEvent describes one board refresh run, successful or not.
type RefreshEvent struct {
	SnapshotID string // empty when the run failed
	Provider   string
	Trigger    string // "cron", "startup", "api", "telegram"
	Assets     int
	Buy        int
	Sell       int
	Hold       int
	Duration   time.Duration
	Err        error
}

// Recorder persists an audit trail of engine outputs.
type Recorder interface {
	RecordSnapshot(snap *model.BoardSnapshot) error
	RecordRefresh(evt *RefreshEvent) error
	Close() error
}
