package cache

import (
	"context"
	"time"
)

// Cache stores opaque byte values under string keys.
//
// Implementations must be safe for concurrent use. A miss is reported as
// (nil, false, nil); errors are reserved for backend failures, which callers
// treat as misses.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Default TTLs per entry type.
const (
	TTLPlan     = 7 * 24 * time.Hour
	TTLArtifact = 24 * time.Hour
)

// =============================================================================
// Keys
// =============================================================================

// Keyer derives cache keys. Keys for equal inputs are equal across
// processes, so a shared backend (redis) serves every instance.
type Keyer interface {
	// PlanKey identifies the plan built from an analysis.
	PlanKey(analysisHash string, opts PlanKeyOpts) string

	// ArtifactKey identifies the build result of a plan.
	ArtifactKey(planHash string, opts ArtifactKeyOpts) string
}

// PlanKeyOpts are the plan options that change the generated plan.
type PlanKeyOpts struct {
	Title   string `json:"title,omitempty"`
	Layout  string `json:"layout,omitempty"`
	Pattern string `json:"pattern,omitempty"`
	Format  string `json:"format,omitempty"`

	GraphAttrs map[string]string `json:"graph_attrs,omitempty"`
}

// ArtifactKeyOpts are the dispatch options that change the artifact.
type ArtifactKeyOpts struct {
	Format string  `json:"format"`
	Scale  float64 `json:"scale,omitempty"`
}

// DefaultKeyer hashes key components with SHA-256.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// PlanKey implements Keyer.
func (DefaultKeyer) PlanKey(analysisHash string, opts PlanKeyOpts) string {
	return hashKey("plan", analysisHash, opts)
}

// ArtifactKey implements Keyer.
func (DefaultKeyer) ArtifactKey(planHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", planHash, opts)
}
