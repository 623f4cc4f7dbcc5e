package vectorstore

import "errors"

var (
	// ErrDimensionMismatch is returned when a vector's length doesn't match
	// the store's configured dimensionality.
	ErrDimensionMismatch = errors.New("vectorstore: dimension mismatch")

	// ErrModelMismatch is returned by NewSelector when the embedding
	// model recorded in meta differs from the one currently configured.
	ErrModelMismatch = errors.New("vectorstore: embedding model mismatch")
)
