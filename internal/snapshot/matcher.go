// Package snapshot records the structure of values and compares later
// values against them, with type-only placeholders for fields that change
// between runs.
package snapshot

import (
	"context"
	"fmt"

	"github.com/google/go-cmp/cmp"

	"github.com/gourl/asyncharness/internal/metrics"
	"github.com/gourl/asyncharness/pkg/logger"
)

// Snapshot outcomes, as recorded in metrics.
const (
	ResultWritten  = "written"
	ResultUpdated  = "updated"
	ResultMatched  = "matched"
	ResultMismatch = "mismatch"
)

// Matcher compares values against the snapshots held in a Store.
type Matcher struct {
	store  Store
	update bool
	log    *logger.Logger
}

// NewMatcher creates a Matcher over store. With update set, mismatching
// snapshots are overwritten instead of failing.
func NewMatcher(store Store, update bool, log *logger.Logger) *Matcher {
	if store == nil {
		store = NewMemoryStore()
	}
	return &Matcher{
		store:  store,
		update: update,
		log:    log.With("component", "snapshot"),
	}
}

// Store returns the underlying store.
func (m *Matcher) Store() Store {
	return m.store
}

// Match checks actual against the snapshot recorded for identity. The first
// call for an identity records actual, with the fields named by tmpl
// replaced by their placeholders, and passes. Later calls must match the
// recorded shape. A nil tmpl matches every field literally.
func (m *Matcher) Match(ctx context.Context, identity string, actual any, tmpl Template) error {
	if identity == "" {
		return ErrEmptyIdentity
	}

	raw := toTree(actual)
	var t any
	if tmpl != nil {
		t = tmpl
	}
	reduced, d := reduce(raw, t, "$")
	if d != nil {
		return m.mismatch(identity, d, "")
	}
	expected, err := normalize(reduced)
	if err != nil {
		return err
	}

	stored, ok, err := m.store.Load(ctx, identity)
	if err != nil {
		return fmt.Errorf("load snapshot %q: %w", identity, err)
	}
	if !ok {
		if err := m.store.Save(ctx, identity, expected); err != nil {
			return fmt.Errorf("save snapshot %q: %w", identity, err)
		}
		metrics.RecordSnapshot(ResultWritten)
		m.log.Info("snapshot written", "identity", identity)
		return nil
	}

	d = compare(raw, stored, "$")
	if d == nil {
		metrics.RecordSnapshot(ResultMatched)
		return nil
	}
	if m.update {
		if err := m.store.Save(ctx, identity, expected); err != nil {
			return fmt.Errorf("save snapshot %q: %w", identity, err)
		}
		metrics.RecordSnapshot(ResultUpdated)
		m.log.Info("snapshot updated", "identity", identity, "path", d.path)
		return nil
	}
	return m.mismatch(identity, d, cmp.Diff(stored, expected))
}

func (m *Matcher) mismatch(identity string, d *difference, diff string) error {
	metrics.RecordSnapshot(ResultMismatch)
	m.log.Debug("snapshot mismatch", "identity", identity, "path", d.path, "reason", d.reason)
	return &MismatchError{Identity: identity, Path: d.path, Reason: d.reason, Diff: diff}
}
