package relrag

import "fmt"

// NotFoundError reports that an entity was absent or soft-deleted when
// visibility was required.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// PermissionDeniedError reports an authorization failure at a use-case
// boundary. check() itself never returns this; only use cases raise it.
type PermissionDeniedError struct {
	Action string
}

func (e *PermissionDeniedError) Error() string {
	return fmt.Sprintf("permission denied: %s", e.Action)
}

// ValidationError reports malformed input: missing required fields, invalid
// UUIDs, unknown chunking strategies, mismatched embedding dimensions.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// DuplicateDocumentError is reserved for an explicit non-idempotent ingest
// mode. The default ingestion path dedups silently and never returns this.
type DuplicateDocumentError struct {
	SourceHash [16]byte
}

func (e *DuplicateDocumentError) Error() string {
	return "document with this content already exists"
}

// UpstreamFailureError wraps an error returned by the embedding provider or
// the identity collaborator.
type UpstreamFailureError struct {
	Cause error
}

func (e *UpstreamFailureError) Error() string {
	return fmt.Sprintf("upstream failure: %v", e.Cause)
}

func (e *UpstreamFailureError) Unwrap() error { return e.Cause }

// UnavailableError reports a transient condition safe to retry: pool
// exhaustion, an unreachable database, a connection timeout.
type UnavailableError struct {
	Cause error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("unavailable: %v", e.Cause)
}

func (e *UnavailableError) Unwrap() error { return e.Cause }

// InvalidArgumentError reports an unsupported chunking strategy or other
// caller-supplied argument the callee refuses to process.
type InvalidArgumentError struct {
	Message string
}

func (e *InvalidArgumentError) Error() string { return e.Message }
