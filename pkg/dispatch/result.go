package dispatch

import (
	"encoding/base64"
	"time"
)

// StepStatus is the outcome of one plan step.
type StepStatus string

const (
	StatusOK      StepStatus = "ok"
	StatusFailed  StepStatus = "failed"
	StatusSkipped StepStatus = "skipped"
)

// Step records how one plan step went.
type Step struct {
	Order       int            `json:"execution_order"`
	Command     string         `json:"command_name"`
	Description string         `json:"description"`
	Status      StepStatus     `json:"status"`
	Error       string         `json:"error,omitempty"`
	ErrorType   string         `json:"error_type,omitempty"`
	Context     map[string]any `json:"context,omitempty"`
	Duration    time.Duration  `json:"execution_time_ns"`
}

// Result is the outcome of dispatching a whole plan.
type Result struct {
	Success bool   `json:"success"`
	Title   string `json:"title"`
	Format  string `json:"format,omitempty"`
	DryRun  bool   `json:"dry_run"`

	// Image is the rendered artifact. It is nil for dry runs and failures.
	Image []byte `json:"-"`

	// ImageData is Image encoded as standard base64, or the dry-run
	// placeholder.
	ImageData string `json:"image_data,omitempty"`

	Components       []string `json:"components_used"`
	GenerationTimeMS int64    `json:"generation_time_ms"`
	Errors           []string `json:"errors"`
	Warnings         []string `json:"warnings"`
	Steps            []Step   `json:"steps"`
}

// Err returns the first error as a value, or nil if the build succeeded.
func (r *Result) Err() error {
	if r.Success {
		return nil
	}
	if len(r.Errors) == 0 {
		return &BuildError{Message: "build failed"}
	}
	return &BuildError{Message: r.Errors[0]}
}

// BuildError is returned by [Result.Err].
type BuildError struct {
	Message string
}

func (e *BuildError) Error() string { return e.Message }

// DecodeImage returns the artifact bytes, decoding ImageData when Image is
// not populated (for results read back from JSON).
func (r *Result) DecodeImage() ([]byte, error) {
	if r.Image != nil || r.ImageData == "" || r.DryRun {
		return r.Image, nil
	}
	return base64.StdEncoding.DecodeString(r.ImageData)
}
