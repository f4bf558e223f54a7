package fstlm

import "github.com/pkg/errors"

var (
	// ErrNonLinearPath means a best-path automaton is not a single chain.
	ErrNonLinearPath = errors.New("best path is not linear")
	// ErrNoBackoffArc means a state lacks the back-off arc it must have.
	ErrNoBackoffArc = errors.New("missing back-off arc")
	// ErrContiguity means the automaton does not number its context
	// states in contiguous per-order ranges.
	ErrContiguity = errors.New("state ids are not contiguous per order")
	// ErrUnknownFormat means a sentence record starts with an unknown tag.
	ErrUnknownFormat = errors.New("unknown sentence format")
	// ErrMissingSymbol means a reserved symbol is absent from the symbol
	// table.
	ErrMissingSymbol = errors.New("symbol not in symbol table")
	// ErrNoWords means nothing was scored so there is no perplexity.
	ErrNoWords = errors.New("no words scored")
	// ErrBadConfig means a Config failed validation.
	ErrBadConfig = errors.New("invalid configuration")
)
