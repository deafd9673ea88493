package fallback

import (
	"context"
	"errors"
	"fmt"
)

// Strategy is one candidate in an ordered fallback chain.
type Strategy[I, O any] struct {
	Name string
	Run  func(ctx context.Context, in I) (O, error)
}

// First tries strategies in order and returns the first output accepted by
// the accept predicate, together with the name of the strategy that
// produced it. When every strategy fails or is rejected, the zero output is
// returned with the aggregated errors.
func First[I, O any](ctx context.Context, in I, accept func(O) bool, strategies []Strategy[I, O]) (O, string, error) {
	var zero O
	var errs []error

	for _, s := range strategies {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		out, err := s.Run(ctx, in)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Name, err))
			continue
		}
		if !accept(out) {
			errs = append(errs, fmt.Errorf("%s: produced no usable output", s.Name))
			continue
		}
		return out, s.Name, nil
	}

	return zero, "", errors.Join(errs...)
}
