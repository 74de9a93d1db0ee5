// Package fallback evaluates an ordered list of alternatives until one produces an
// acceptable value.
package fallback

import (
	"context"
	"errors"
	"fmt"

	"github.com/hyperjump/mediatext/pkg/utils"
)

// Attempt is one alternative in a chain.
type Attempt[T any] struct {
	Name string
	Run  func(ctx context.Context) (T, error)
}

// Outcome reports which attempt won. Index is -1 when none was accepted.
type Outcome[T any] struct {
	Value T
	Index int
	Name  string
	// Tried counts attempts that were actually run.
	Tried int
	// Err is set only when every attempt that ran failed with an error.
	Err error
}

// Accepted reports whether an attempt produced an acceptable value.
func (o Outcome[T]) Accepted() bool { return o.Index >= 0 }

// First runs attempts in order and stops at the first error-free value accepted by ok.
// Errors from individual attempts are collected and only surface when no attempt ran cleanly.
// A cancelled context stops the chain before the next attempt.
func First[T any](ctx context.Context, ok func(T) bool, attempts ...Attempt[T]) Outcome[T] {
	out := Outcome[T]{Index: -1}
	var errs []error
	clean := false
	for i, a := range attempts {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		out.Tried++
		v, err := a.Run(ctx)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", a.Name, err))
			continue
		}
		clean = true
		if ok(v) {
			out.Value = v
			out.Index = i
			out.Name = a.Name
			return out
		}
	}
	if !clean && len(errs) > 0 {
		out.Err = errors.Join(errs...)
	}
	return out
}

// NonBlank accepts strings that contain something other than whitespace.
func NonBlank(s string) bool { return !utils.IsBlank(s) }

// Value wraps an already-known value as an attempt.
func Value[T any](name string, v T) Attempt[T] {
	return Attempt[T]{Name: name, Run: func(context.Context) (T, error) { return v, nil }}
}
