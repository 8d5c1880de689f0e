// Copyright 2026 The Partyline Authors
// SPDX-License-Identifier: Apache-2.0

package party

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/cenkalti/backoff/v4"

	"github.com/partyline/partyline/lib/clock"
	"github.com/partyline/partyline/rest"
)

// PatchFunc performs the external write for a locally-originated meta
// patch: one REST call echoing the revision the patch was based on.
// A stale_revision *rest.APIError signals the server has moved on;
// Revisioned extracts the server's revision and retries.
type PatchFunc func(ctx context.Context, update map[string]string, remove []string, revision int64) error

// DefaultMaxPatchAttempts bounds the stale-revision retry loop.
const DefaultMaxPatchAttempts = 3

// Revisioned wraps a Meta with the vendor's monotonic revision
// counter. Server-originated state lands through ApplyAuthoritative;
// locally-originated writes go through Propose.
//
// All methods are safe for concurrent use.
type Revisioned struct {
	mu       sync.Mutex
	meta     *Meta
	revision int64

	writer      PatchFunc
	clock       clock.Clock
	logger      *slog.Logger
	maxAttempts int

	// pending is the flight accumulating proposals that have not been
	// dispatched yet. sending is true while the dispatch goroutine is
	// alive.
	pending *flight
	sending bool
}

// flight is one coalesced outbound patch and the callers awaiting its
// outcome.
type flight struct {
	update map[string]string
	remove map[string]struct{}
	done   chan struct{}
	err    error
}

// RevisionedConfig configures a Revisioned entity.
type RevisionedConfig struct {
	// Meta is the initial store. If nil, an empty store is used.
	Meta *Meta
	// Revision is the initial revision, from the materializing fetch.
	Revision int64
	// Writer performs the external write for proposals. Required for
	// Propose; entities that are never locally mutated may omit it.
	Writer PatchFunc
	// Clock drives conflict-retry backoff waits. If nil, clock.Real()
	// is used.
	Clock clock.Clock
	// Logger is used for structured logging. If nil, slog.Default()
	// is used.
	Logger *slog.Logger
	// MaxAttempts bounds the stale-revision retry loop. If zero,
	// DefaultMaxPatchAttempts is used.
	MaxAttempts int
}

// NewRevisioned creates a revisioned entity.
func NewRevisioned(config RevisionedConfig) *Revisioned {
	meta := config.Meta
	if meta == nil {
		meta = NewMeta()
	}
	clk := config.Clock
	if clk == nil {
		clk = clock.Real()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	maxAttempts := config.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxPatchAttempts
	}
	return &Revisioned{
		meta:        meta,
		revision:    config.Revision,
		writer:      config.Writer,
		clock:       clk,
		logger:      logger,
		maxAttempts: maxAttempts,
	}
}

// Revision returns the current revision.
func (r *Revisioned) Revision() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.revision
}

// Wire returns a copy of the current wire map.
func (r *Revisioned) Wire() map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.meta.ToWire()
}

// Get decodes a key's value per its suffix. See Meta.Get.
func (r *Revisioned) Get(key string) any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.meta.Get(key)
}

// GetJSON decodes a _j key's value into v. See Meta.GetJSON.
func (r *Revisioned) GetJSON(key string, v any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.meta.GetJSON(key, v)
}

// ApplyAuthoritative applies a server-confirmed or remotely-originated
// patch. The patch lands only when revision is strictly newer than the
// current one; stale or duplicate revisions are a no-op returning no
// changes, which makes duplicate delivery and our own echoed patches
// harmless.
func (r *Revisioned) ApplyAuthoritative(update map[string]string, remove []string, revision int64) []Change {
	r.mu.Lock()
	defer r.mu.Unlock()

	if revision <= r.revision {
		return nil
	}
	r.revision = revision

	changes := r.meta.Merge(update)
	changes = append(changes, r.meta.Remove(remove)...)
	return changes
}

// ForceRevision overwrites the revision without touching the store.
// Used when rematerializing from a ground-truth fetch.
func (r *Revisioned) ForceRevision(revision int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.revision = revision
}

// Propose performs a locally-originated write: the patch is sent
// through the writer at the current revision and, on success, folded
// into the local store with a revision bump.
//
// At most one write per entity is in flight. Proposals arriving while
// a flight is active are coalesced (last-value-wins per key) into the
// next flight, and every caller whose proposal rode a given flight
// shares that flight's outcome. On failure local state is unchanged.
func (r *Revisioned) Propose(ctx context.Context, update map[string]string, remove []string) error {
	if r.writer == nil {
		return fmt.Errorf("party: entity has no writer")
	}

	r.mu.Lock()
	if r.pending == nil {
		r.pending = &flight{
			update: make(map[string]string),
			remove: make(map[string]struct{}),
			done:   make(chan struct{}),
		}
	}
	for key, value := range update {
		r.pending.update[key] = value
		delete(r.pending.remove, key)
	}
	for _, key := range remove {
		r.pending.remove[key] = struct{}{}
		delete(r.pending.update, key)
	}
	current := r.pending
	if !r.sending {
		r.sending = true
		go r.dispatch()
	}
	r.mu.Unlock()

	select {
	case <-current.done:
		return current.err
	case <-ctx.Done():
		// The flight stays live; its outcome still applies for the
		// other riders. This caller just stops waiting.
		return ctx.Err()
	}
}

// dispatch drains pending flights one at a time until none remain.
func (r *Revisioned) dispatch() {
	for {
		r.mu.Lock()
		current := r.pending
		if current == nil {
			r.sending = false
			r.mu.Unlock()
			return
		}
		r.pending = nil
		base := r.revision
		r.mu.Unlock()

		err := r.send(current, base)

		if err == nil {
			r.mu.Lock()
			r.revision++
			r.meta.Merge(current.update)
			r.meta.Remove(removeList(current.remove))
			r.mu.Unlock()
		}

		current.err = err
		close(current.done)
	}
}

// send performs the write with bounded stale-revision retries. Each
// conflict refreshes the base revision from the server's error and
// waits an exponential backoff before retrying.
func (r *Revisioned) send(current *flight, base int64) error {
	policy := backoff.NewExponentialBackOff()
	remove := removeList(current.remove)

	for attempt := 1; ; attempt++ {
		err := r.writer(context.Background(), current.update, remove, base)
		if err == nil {
			return nil
		}

		serverRevision, stale := rest.StaleRevision(err)
		if !stale {
			return err
		}

		r.mu.Lock()
		if serverRevision > r.revision {
			r.revision = serverRevision
		}
		base = r.revision
		r.mu.Unlock()

		if attempt >= r.maxAttempts {
			r.logger.Warn("revision conflict retries exhausted",
				"attempts", attempt,
				"server_revision", serverRevision,
			)
			return fmt.Errorf("%w: lost %d revision races", ErrConflictExhausted, attempt)
		}

		r.logger.Debug("revision conflict, retrying",
			"attempt", attempt,
			"server_revision", serverRevision,
		)
		<-r.clock.After(policy.NextBackOff())
	}
}

func removeList(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	keys := make([]string, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
