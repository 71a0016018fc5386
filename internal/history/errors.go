package history

import (
	"github.com/Phaysik/database-normalizer/internal/foundation/errors"
)

var (
	// ErrRunNotFound indicates no run matches the requested ID.
	ErrRunNotFound = errors.StorageError("run not found").UserAction().Build()

	// ErrAmbiguousID indicates an ID prefix matches more than one run.
	ErrAmbiguousID = errors.StorageError("run ID prefix is ambiguous").UserAction().Build()
)
