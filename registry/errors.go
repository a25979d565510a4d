package registry

import "errors"

var (
	// ErrDuplicateAgent is returned when registering a name that already
	// exists in the registry.
	ErrDuplicateAgent = errors.New("agent already registered")

	// ErrUnknownAgent is returned when resolving a name that was never
	// registered.
	ErrUnknownAgent = errors.New("unknown agent")

	// ErrNoGeneralist is returned by Validate when no generalist entry is
	// configured, which would let goal dispatch fail on routing alone.
	ErrNoGeneralist = errors.New("no generalist agent registered")
)
