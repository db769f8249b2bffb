// Package registry tracks in-flight credential verifications that complete
// out-of-band. A caller registers interest under the credential's content
// hash and blocks until the webhook path resolves the verification or the
// deadline fires. A separate completed-result cache supports poll-based
// access for callers that do not hold a blocking wait open.
package registry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Default policy values, applied when Config leaves them zero.
const (
	DefaultTimeout   = 30 * time.Second
	DefaultRetention = 5 * time.Minute
)

// Completed is the immutable outcome of one credential verification.
type Completed struct {
	Verified       bool      `json:"verified"`
	Revoked        bool      `json:"revoked"`
	SubjectDID     string    `json:"subjectDid"`
	LegalEntityID  string    `json:"legalEntityId,omitempty"`
	CredentialSAID string    `json:"credentialSaid"`
	Timestamp      time.Time `json:"timestamp"`
	Error          string    `json:"error,omitempty"`
}

// Config holds registry construction parameters.
type Config struct {
	Timeout   time.Duration // deadline for a pending verification
	Retention time.Duration // lifetime of entries in the completed cache
	Logger    *zap.Logger
}

// Registry owns the pending and completed maps. Construct one per process
// with New and share it by reference; there is no package-level instance.
type Registry struct {
	timeout   time.Duration
	retention time.Duration
	logger    *zap.Logger

	mu      sync.Mutex
	pending map[string]*pendingEntry

	cmu       sync.Mutex
	completed map[string]*completedEntry
}

type pendingEntry struct {
	subjectDID    string
	legalEntityID string
	observers     []chan Completed
	timer         *time.Timer
	startedAt     time.Time
}

type completedEntry struct {
	result Completed
	timer  *time.Timer
}

// New creates a Registry with the given configuration.
func New(cfg Config) *Registry {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Retention <= 0 {
		cfg.Retention = DefaultRetention
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Registry{
		timeout:   cfg.Timeout,
		retention: cfg.Retention,
		logger:    cfg.Logger,
		pending:   make(map[string]*pendingEntry),
		completed: make(map[string]*completedEntry),
	}
}

// Register records interest in the verification of the credential identified
// by credentialSAID and returns a channel on which exactly one Completed will
// be delivered: the explicit resolution, or a timeout result when the
// deadline fires first. A second Register for the same SAID attaches to the
// existing entry, so every observer receives the same outcome. Register never
// fails.
func (r *Registry) Register(credentialSAID, subjectDID, legalEntityID string) <-chan Completed {
	ch := make(chan Completed, 1)

	r.mu.Lock()
	defer r.mu.Unlock()

	if entry, ok := r.pending[credentialSAID]; ok {
		entry.observers = append(entry.observers, ch)
		r.logger.Debug("attached observer to pending verification",
			zap.String("credentialSaid", credentialSAID),
			zap.Int("observers", len(entry.observers)))
		return ch
	}

	entry := &pendingEntry{
		subjectDID:    subjectDID,
		legalEntityID: legalEntityID,
		observers:     []chan Completed{ch},
		startedAt:     time.Now(),
	}
	entry.timer = time.AfterFunc(r.timeout, func() {
		r.expire(credentialSAID)
	})
	r.pending[credentialSAID] = entry

	r.logger.Info("registered pending verification",
		zap.String("credentialSaid", credentialSAID),
		zap.String("subjectDid", subjectDID),
		zap.Duration("timeout", r.timeout))

	return ch
}

// Await registers and blocks until the verification completes, the deadline
// fires, or ctx is cancelled. Cancellation yields a Completed with
// Verified=false carrying the context error; the pending entry itself is left
// to its deadline so other observers are unaffected.
func (r *Registry) Await(ctx context.Context, credentialSAID, subjectDID, legalEntityID string) Completed {
	ch := r.Register(credentialSAID, subjectDID, legalEntityID)

	select {
	case result := <-ch:
		return result
	case <-ctx.Done():
		return Completed{
			Verified:       false,
			SubjectDID:     subjectDID,
			LegalEntityID:  legalEntityID,
			CredentialSAID: credentialSAID,
			Timestamp:      time.Now(),
			Error:          ctx.Err().Error(),
		}
	}
}

// Resolve completes the pending verification for credentialSAID and fans the
// result out to every observer. It returns false when nothing is pending,
// which is expected under duplicate or late webhook deliveries and is logged
// and absorbed rather than raised.
func (r *Registry) Resolve(credentialSAID string, verified, revoked bool) bool {
	r.mu.Lock()
	entry, ok := r.pending[credentialSAID]
	if !ok {
		r.mu.Unlock()
		r.logger.Info("no pending verification for callback",
			zap.String("credentialSaid", credentialSAID))
		return false
	}
	entry.timer.Stop()
	delete(r.pending, credentialSAID)
	r.mu.Unlock()

	result := Completed{
		Verified:       verified,
		Revoked:        revoked,
		SubjectDID:     entry.subjectDID,
		LegalEntityID:  entry.legalEntityID,
		CredentialSAID: credentialSAID,
		Timestamp:      time.Now(),
	}

	r.deliver(entry, result)

	r.logger.Info("resolved pending verification",
		zap.String("credentialSaid", credentialSAID),
		zap.Bool("verified", verified),
		zap.Bool("revoked", revoked),
		zap.Duration("elapsed", time.Since(entry.startedAt)))

	return true
}

// expire is the deadline path. Losing the race against Resolve makes it a
// no-op: the entry is already gone.
func (r *Registry) expire(credentialSAID string) {
	r.mu.Lock()
	entry, ok := r.pending[credentialSAID]
	if !ok {
		r.mu.Unlock()
		return
	}
	delete(r.pending, credentialSAID)
	r.mu.Unlock()

	result := Completed{
		Verified:       false,
		SubjectDID:     entry.subjectDID,
		LegalEntityID:  entry.legalEntityID,
		CredentialSAID: credentialSAID,
		Timestamp:      time.Now(),
		Error:          fmt.Sprintf("timeout after %dms", r.timeout.Milliseconds()),
	}

	r.deliver(entry, result)

	r.logger.Warn("pending verification timed out",
		zap.String("credentialSaid", credentialSAID),
		zap.String("subjectDid", entry.subjectDID),
		zap.Duration("timeout", r.timeout))
}

// deliver sends the terminal result to every observer. Channels are buffered
// with capacity 1 and receive at most one send, so delivery cannot block; the
// non-blocking send keeps one broken observer from starving the rest.
func (r *Registry) deliver(entry *pendingEntry, result Completed) {
	for _, ch := range entry.observers {
		select {
		case ch <- result:
		default:
		}
	}
}

// StoreCompleted caches a completed result for poll-based access. The entry
// is evicted after the configured retention window. Storing again under the
// same SAID replaces the previous result and restarts its window.
func (r *Registry) StoreCompleted(result Completed) {
	r.cmu.Lock()
	defer r.cmu.Unlock()

	if prev, ok := r.completed[result.CredentialSAID]; ok {
		prev.timer.Stop()
	}

	entry := &completedEntry{result: result}
	entry.timer = time.AfterFunc(r.retention, func() {
		r.evictCompleted(result.CredentialSAID)
	})
	r.completed[result.CredentialSAID] = entry
}

// GetCompleted returns the cached completed result for credentialSAID. The
// second return is false when no result is cached or it has expired.
func (r *Registry) GetCompleted(credentialSAID string) (Completed, bool) {
	r.cmu.Lock()
	defer r.cmu.Unlock()

	entry, ok := r.completed[credentialSAID]
	if !ok {
		return Completed{}, false
	}
	return entry.result, true
}

func (r *Registry) evictCompleted(credentialSAID string) {
	r.cmu.Lock()
	defer r.cmu.Unlock()
	delete(r.completed, credentialSAID)
}

// PendingCount reports the number of in-flight verifications.
func (r *Registry) PendingCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}
