// Package calllog keeps a ledger of bridged calls in a kv.Store. Records
// are msgpack encoded under the key calls:<id>.
package calllog

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/haivivi/voicebridge/pkg/bridge"
	"github.com/haivivi/voicebridge/pkg/kv"
)

// ErrNotFound is returned by Get for unknown call ids.
var ErrNotFound = errors.New("calllog: call not found")

// writeTimeout bounds ledger writes made from observer callbacks.
const writeTimeout = 5 * time.Second

var prefix = kv.Key{"calls"}

// Status of a call record.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Record is one ledger entry.
type Record struct {
	ID             string               `msgpack:"id" json:"id" yaml:"id"`
	Status         Status               `msgpack:"status" json:"status" yaml:"status"`
	StreamID       string               `msgpack:"stream_id,omitempty" json:"stream_id,omitempty" yaml:"stream_id,omitempty"`
	CallSID        string               `msgpack:"call_sid,omitempty" json:"call_sid,omitempty" yaml:"call_sid,omitempty"`
	StartedAt      time.Time            `msgpack:"started_at" json:"started_at" yaml:"started_at"`
	EndedAt        time.Time            `msgpack:"ended_at,omitempty" json:"ended_at,omitzero" yaml:"ended_at,omitempty"`
	ItemsCompleted int                  `msgpack:"items_completed" json:"items_completed" yaml:"items_completed"`
	ItemsTruncated int                  `msgpack:"items_truncated" json:"items_truncated" yaml:"items_truncated"`
	Stats          bridge.StatsSnapshot `msgpack:"stats" json:"stats" yaml:"stats"`
	Error          string               `msgpack:"error,omitempty" json:"error,omitempty" yaml:"error,omitempty"`
}

// Duration returns the call length, zero while the call is active.
func (r *Record) Duration() time.Duration {
	if r.EndedAt.IsZero() {
		return 0
	}
	return r.EndedAt.Sub(r.StartedAt)
}

// FromSummary converts a finished call summary into a record.
func FromSummary(s bridge.Summary) Record {
	r := Record{
		ID:             s.CallID,
		Status:         StatusCompleted,
		StreamID:       s.StreamID,
		CallSID:        s.CallSID,
		StartedAt:      s.StartedAt,
		EndedAt:        s.EndedAt,
		ItemsCompleted: s.ItemsCompleted,
		ItemsTruncated: s.ItemsTruncated,
		Stats:          s.Stats,
	}
	if s.Err != nil {
		r.Status = StatusFailed
		r.Error = s.Err.Error()
	}
	return r
}

// Ledger stores call records. It implements bridge.Observer so a server can
// hand it to every Coordinator.
type Ledger struct {
	store  kv.Store
	logger *slog.Logger
	now    func() time.Time
}

var _ bridge.Observer = (*Ledger)(nil)

// New returns a ledger over store. A nil logger uses slog.Default().
func New(store kv.Store, logger *slog.Logger) *Ledger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ledger{store: store, logger: logger, now: time.Now}
}

// Put writes r, replacing any record with the same id.
func (l *Ledger) Put(ctx context.Context, r Record) error {
	if r.ID == "" {
		return errors.New("calllog: record id is empty")
	}
	data, err := msgpack.Marshal(&r)
	if err != nil {
		return fmt.Errorf("calllog: encode %s: %w", r.ID, err)
	}
	return l.store.Set(ctx, key(r.ID), data)
}

// Get returns the record for id.
func (l *Ledger) Get(ctx context.Context, id string) (*Record, error) {
	data, err := l.store.Get(ctx, key(id))
	if errors.Is(err, kv.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	var r Record
	if err := msgpack.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("calllog: decode %s: %w", id, err)
	}
	return &r, nil
}

// List returns records newest first. limit <= 0 returns all of them.
func (l *Ledger) List(ctx context.Context, limit int) ([]Record, error) {
	var out []Record
	for e, err := range l.store.List(ctx, prefix) {
		if err != nil {
			return nil, err
		}
		var r Record
		if err := msgpack.Unmarshal(e.Value, &r); err != nil {
			l.logger.Warn("skip unreadable call record", "key", e.Key.String(), "error", err)
			continue
		}
		out = append(out, r)
	}
	slices.SortFunc(out, func(a, b Record) int {
		return cmp.Or(b.StartedAt.Compare(a.StartedAt), cmp.Compare(a.ID, b.ID))
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Prune deletes finished records that ended before cutoff and returns how
// many were removed.
func (l *Ledger) Prune(ctx context.Context, cutoff time.Time) (int, error) {
	records, err := l.List(ctx, 0)
	if err != nil {
		return 0, err
	}
	var keys []kv.Key
	for _, r := range records {
		if r.Status != StatusActive && r.EndedAt.Before(cutoff) {
			keys = append(keys, key(r.ID))
		}
	}
	if len(keys) == 0 {
		return 0, nil
	}
	if err := l.store.BatchDelete(ctx, keys); err != nil {
		return 0, err
	}
	return len(keys), nil
}

// CallStarted records an active call.
func (l *Ledger) CallStarted(callID string) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	r := Record{ID: callID, Status: StatusActive, StartedAt: l.now()}
	if err := l.Put(ctx, r); err != nil {
		l.logger.Error("record call start", "call_id", callID, "error", err)
	}
}

// CallEnded replaces the active record with the final one.
func (l *Ledger) CallEnded(s bridge.Summary) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := l.Put(ctx, FromSummary(s)); err != nil {
		l.logger.Error("record call end", "call_id", s.CallID, "error", err)
	}
}

func key(id string) kv.Key {
	return kv.Key{prefix[0], id}
}
