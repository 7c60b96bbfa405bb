package graph

import "fmt"

// Kind classifies an engine error so callers can branch on failure category
// without string-matching messages.
type Kind string

const (
	KindConfigurationInvalid Kind = "configuration_invalid"
	KindPathInvalid          Kind = "path_invalid"
	KindFileNotFound         Kind = "file_not_found"
	KindUnsupportedLanguage  Kind = "unsupported_language"
	KindParseError           Kind = "parse_error"
	KindUnknownQueryKey      Kind = "unknown_query_key"
	KindUnknownEdgeType      Kind = "unknown_edge_type"
	KindHierarchyViolation   Kind = "hierarchy_violation"
	KindRegistryLocked       Kind = "registry_locked"
	KindMissingSourceFile    Kind = "missing_source_file"
	KindIdentifierConflict   Kind = "identifier_conflict"
	KindNotInitialized       Kind = "not_initialized"
	KindCycleDetected        Kind = "cycle_detected"
	KindDepthExceeded        Kind = "depth_exceeded"
	KindTimeout              Kind = "timeout"
	KindCancelled            Kind = "cancelled"
	KindValidationFailed     Kind = "validation_failed"
	KindIO                   Kind = "io"
)

// Error is the engine's structured error type: a Kind for programmatic
// branching, the failing operation name, and the wrapped cause.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is(err, &Error{Kind: K}) match any *Error sharing Kind K,
// regardless of Op or wrapped cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind == "" {
		return false
	}
	return e.Kind == t.Kind
}

// NewError wraps err with a Kind and operation name.
func NewError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}
