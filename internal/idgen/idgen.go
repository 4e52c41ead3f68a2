package idgen

import "github.com/google/uuid"

// NewFunc produces a new globally unique identifier. Tests may stub it to
// obtain predictable ids.
var NewFunc = func() string { return uuid.New().String() }

// New returns a fresh unique identifier as string.
func New() string { return NewFunc() }
