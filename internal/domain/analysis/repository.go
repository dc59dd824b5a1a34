package analysis

import "context"

// ListFilter narrows List results.  Zero values match everything.
type ListFilter struct {
	// FileName matches records whose file name contains the value,
	// case-insensitively.
	FileName string

	// Limit caps the number of returned records; 0 means the repository
	// default.
	Limit int

	// Offset skips that many records in created-at-descending order.
	Offset int
}

// Repository is the persistence port for analysis records: a key-value store
// keyed by the opaque analysis ID.  Implementations must return a not-found
// error (pkg/errors.ErrCodeNotFound) for missing IDs.
type Repository interface {
	Get(ctx context.Context, id string) (*Record, error)
	Save(ctx context.Context, rec *Record) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter ListFilter) ([]*Record, error)
}
