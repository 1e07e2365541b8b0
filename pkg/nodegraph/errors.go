package nodegraph

import "errors"

var (
	// ErrInvalidGraph is returned when a graph is nil or fails structural
	// validation (missing node id or type, missing edge endpoints).
	ErrInvalidGraph = errors.New("nodegraph: invalid graph")

	// ErrCycle is returned by dependency-ordered evaluation when edges form
	// a cycle. The wrapping error names the nodes left unresolved.
	ErrCycle = errors.New("nodegraph: dependency cycle")

	// ErrUnsupportedFormat is returned when a graph file is neither JSON nor YAML.
	ErrUnsupportedFormat = errors.New("nodegraph: unsupported graph format")
)
