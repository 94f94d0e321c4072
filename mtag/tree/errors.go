package tree

import "errors"

var (
	// ErrBadCapacity indicates a pool or tree was created with a non-positive
	// node capacity.
	ErrBadCapacity = errors.New("tree: capacity must be positive")

	// ErrRegistryFull indicates the registry has no free slot left; the
	// calling thread stays uninstrumented.
	ErrRegistryFull = errors.New("tree: registry full")

	// ErrShutdown indicates a registration arrived after teardown started.
	ErrShutdown = errors.New("tree: registry is shut down")

	// ErrMainRegistered indicates RegisterMain was called twice.
	ErrMainRegistered = errors.New("tree: main tree already registered")
)
