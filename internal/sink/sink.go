// Package sink appends extracted job rows to external stores.
package sink

import "context"

// Sink is a destination that accepts one appended row per call
type Sink interface {
	Name() string
	Append(ctx context.Context, row []string) error
}

// Outcome is the result of appending one row to one sink
type Outcome struct {
	Sink string
	Err  error
}
