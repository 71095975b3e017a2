package mcsim

import (
	"github.com/pkg/errors"
)

var (
	// ErrValidation is returned for malformed lattice dimensions, vectors, or parameters.
	// Nothing is mutated when it is returned.
	ErrValidation = errors.New("mcsim: validation")

	// ErrDomain is returned when a vector of zero or non-finite length would have to be normalised.
	ErrDomain = errors.New("mcsim: zero or non-finite vector cannot be normalised")
)
