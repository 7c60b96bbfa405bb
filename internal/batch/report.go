package batch

import "github.com/codeatlas/engine/internal/graph"

// FailedFile records one file that could not be analyzed successfully.
type FailedFile struct {
	File      string     `json:"file"`
	ErrorKind graph.Kind `json:"errorKind"`
	Message   string     `json:"message"`
}

// Report is the user-visible summary of a batch run: which files succeeded,
// which failed and why, and whether the run was cut short by cancellation.
// Stats is populated by the caller after the run completes (the runner
// itself has no store reference).
type Report struct {
	Successful []string         `json:"successful"`
	Failed     []FailedFile     `json:"failed"`
	Cancelled  bool             `json:"cancelled"`
	Stats      *graph.GraphStats `json:"stats,omitempty"`
}
