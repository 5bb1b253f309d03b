// Package session runs builds and keeps records of them.
//
// A [Session] is one diagram build: it owns a private [diagram.Engine] and
// references the dispatcher (and through it the command registry) that is
// shared by every session. Engines are never shared, so concurrent builds
// cannot see each other's declarations.
//
// Completed builds are kept as [Record]s in a [Store]:
//   - memory: in-process storage for tests and the "none" backend
//   - file: JSON files, used by the CLI
//   - mongo: a MongoDB collection, used by the server
//
// # Usage
//
//	sess := session.New(dispatcher, renderer, logger)
//	res := sess.Run(ctx, p, dispatch.Options{})
//	rec := sess.Record(res, session.DefaultTTL)
//	if err := store.Put(ctx, rec); err != nil {
//	    return err
//	}
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/archviz/pkg/diagram"
	"github.com/matzehuels/archviz/pkg/dispatch"
	"github.com/matzehuels/archviz/pkg/plan"
)

// Sentinel errors for record storage.
var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrExpired is returned when a record has exceeded its TTL.
	ErrExpired = errors.New("expired")
)

// DefaultTTL is how long build records are kept.
const DefaultTTL = 7 * 24 * time.Hour

// Session is one build with its own engine.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu         sync.Mutex
	engine     *diagram.Engine
	dispatcher *dispatch.Dispatcher
	logger     *log.Logger
}

// New creates a session with a fresh engine rendering through renderer.
// A nil renderer still allows dry runs.
func New(d *dispatch.Dispatcher, renderer diagram.Renderer, logger *log.Logger) *Session {
	if logger == nil {
		logger = log.Default()
	}
	id := uuid.NewString()
	l := logger.With("session", id[:8])
	return &Session{
		ID:         id,
		CreatedAt:  time.Now(),
		engine:     diagram.New(renderer, diagram.WithLogger(l)),
		dispatcher: d,
		logger:     l,
	}
}

// Engine returns the session's engine.
func (s *Session) Engine() *diagram.Engine {
	return s.engine
}

// Run dispatches p against the session's engine. Calls on one session are
// serialized.
func (s *Session) Run(ctx context.Context, p *plan.Plan, opts dispatch.Options) *dispatch.Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.Debug("session build started", "title", p.Title, "steps", len(p.Steps))
	return s.dispatcher.Run(ctx, s.engine, p, opts)
}

// Record turns a build result into a record keyed by the session ID.
func (s *Session) Record(res *dispatch.Result, ttl time.Duration) *Record {
	return NewRecord(s.ID, res, ttl)
}

// =============================================================================
// Records
// =============================================================================

// Record is the stored outcome of one build.
type Record struct {
	ID               string          `json:"id" bson:"_id"`
	Title            string          `json:"title" bson:"title"`
	PlanHash         string          `json:"plan_hash,omitempty" bson:"plan_hash,omitempty"`
	Success          bool            `json:"success" bson:"success"`
	Format           string          `json:"format,omitempty" bson:"format,omitempty"`
	DryRun           bool            `json:"dry_run" bson:"dry_run"`
	ImageData        string          `json:"image_data,omitempty" bson:"image_data,omitempty"`
	Components       []string        `json:"components_used" bson:"components_used"`
	Errors           []string        `json:"errors" bson:"errors"`
	Warnings         []string        `json:"warnings" bson:"warnings"`
	Steps            []dispatch.Step `json:"steps" bson:"steps"`
	GenerationTimeMS int64           `json:"generation_time_ms" bson:"generation_time_ms"`
	CreatedAt        time.Time       `json:"created_at" bson:"created_at"`
	ExpiresAt        time.Time       `json:"expires_at" bson:"expires_at"`
}

// NewRecord builds a record for res. A ttl of zero means [DefaultTTL].
func NewRecord(id string, res *dispatch.Result, ttl time.Duration) *Record {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	now := time.Now().UTC()
	return &Record{
		ID:               id,
		Title:            res.Title,
		Success:          res.Success,
		Format:           res.Format,
		DryRun:           res.DryRun,
		ImageData:        res.ImageData,
		Components:       res.Components,
		Errors:           res.Errors,
		Warnings:         res.Warnings,
		Steps:            res.Steps,
		GenerationTimeMS: res.GenerationTimeMS,
		CreatedAt:        now,
		ExpiresAt:        now.Add(ttl),
	}
}

// IsExpired reports whether the record has outlived its TTL.
func (r *Record) IsExpired() bool {
	return time.Now().After(r.ExpiresAt)
}

// Result converts the record back into a build result. Image is left nil;
// use [dispatch.Result.DecodeImage] to restore it.
func (r *Record) Result() *dispatch.Result {
	return &dispatch.Result{
		Success:          r.Success,
		Title:            r.Title,
		Format:           r.Format,
		DryRun:           r.DryRun,
		ImageData:        r.ImageData,
		Components:       r.Components,
		GenerationTimeMS: r.GenerationTimeMS,
		Errors:           r.Errors,
		Warnings:         r.Warnings,
		Steps:            r.Steps,
	}
}

// Store persists build records.
type Store interface {
	// Get returns the record with the given ID, or ErrNotFound. Expired
	// records are removed and reported as ErrExpired.
	Get(ctx context.Context, id string) (*Record, error)

	// Put stores a record, replacing any record with the same ID.
	Put(ctx context.Context, r *Record) error

	// Delete removes a record. Deleting a missing record is not an error.
	Delete(ctx context.Context, id string) error

	// List returns up to limit records, newest first. A limit of zero
	// means no limit.
	List(ctx context.Context, limit int) ([]*Record, error)

	// Cleanup removes expired records.
	Cleanup(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}
