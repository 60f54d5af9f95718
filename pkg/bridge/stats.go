package bridge

import (
	"sync/atomic"
	"time"
)

// Stats are the per-call counters. They are updated atomically and may be
// read while the call runs.
type Stats struct {
	FramesIn        atomic.Int64
	FramesForwarded atomic.Int64
	FramesDropped   atomic.Int64
	Malformed       atomic.Int64
	ChunksOut       atomic.Int64
	MarksSent       atomic.Int64
	MarksAcked      atomic.Int64
	Truncations     atomic.Int64
	BackendErrors   atomic.Int64
	DeltasDropped   atomic.Int64
}

// StatsSnapshot is a point-in-time copy of Stats.
type StatsSnapshot struct {
	FramesIn        int64 `json:"frames_in" msgpack:"frames_in"`
	FramesForwarded int64 `json:"frames_forwarded" msgpack:"frames_forwarded"`
	FramesDropped   int64 `json:"frames_dropped" msgpack:"frames_dropped"`
	Malformed       int64 `json:"malformed" msgpack:"malformed"`
	ChunksOut       int64 `json:"chunks_out" msgpack:"chunks_out"`
	MarksSent       int64 `json:"marks_sent" msgpack:"marks_sent"`
	MarksAcked      int64 `json:"marks_acked" msgpack:"marks_acked"`
	Truncations     int64 `json:"truncations" msgpack:"truncations"`
	BackendErrors   int64 `json:"backend_errors" msgpack:"backend_errors"`
	DeltasDropped   int64 `json:"deltas_dropped" msgpack:"deltas_dropped"`
}

// Snapshot copies the counters.
func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		FramesIn:        s.FramesIn.Load(),
		FramesForwarded: s.FramesForwarded.Load(),
		FramesDropped:   s.FramesDropped.Load(),
		Malformed:       s.Malformed.Load(),
		ChunksOut:       s.ChunksOut.Load(),
		MarksSent:       s.MarksSent.Load(),
		MarksAcked:      s.MarksAcked.Load(),
		Truncations:     s.Truncations.Load(),
		BackendErrors:   s.BackendErrors.Load(),
		DeltasDropped:   s.DeltasDropped.Load(),
	}
}

// Summary describes a finished call.
type Summary struct {
	CallID    string
	StreamID  string
	CallSID   string
	StartedAt time.Time
	EndedAt   time.Time

	// ItemsCompleted and ItemsTruncated count model utterances.
	ItemsCompleted int
	ItemsTruncated int

	Stats StatsSnapshot

	// Err is the error that ended the call, nil on a normal hang-up.
	Err error
}

// Duration returns the call length.
func (s Summary) Duration() time.Duration {
	return s.EndedAt.Sub(s.StartedAt)
}

// Observer is notified of call lifecycle. Implementations must be safe for
// concurrent use across calls.
type Observer interface {
	CallStarted(callID string)
	CallEnded(summary Summary)
}
