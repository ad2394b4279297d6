package types

import (
	"fmt"

	"github.com/pkg/errors"
)

// ═══════════════════════════════════════════════════════════════
// ERROR TAXONOMY
// ═══════════════════════════════════════════════════════════════

var (
	// ErrValidation marks a missing or malformed parameter. Returned before
	// any network call is made.
	ErrValidation = errors.New("validation error")

	// ErrUpstreamUnavailable marks a transport failure or non-success response
	// from the market API, the subgraph, or the RPC node.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrDataShape marks an upstream response that lacks an expected field.
	ErrDataShape = errors.New("unexpected data shape")

	// ErrReadFailed marks a single failed entry of a batched on-chain read.
	// It only ever appears inside a ReadOutcome; operations absorb it.
	ErrReadFailed = errors.New("read failed")
)

func taxonomyErrorf(kind error, format string, args ...any) error {
	return errors.WithStack(fmt.Errorf("%w: %s", kind, fmt.Sprintf(format, args...)))
}

// ValidationErrorf builds an error matching ErrValidation.
func ValidationErrorf(format string, args ...any) error {
	return taxonomyErrorf(ErrValidation, format, args...)
}

// UpstreamErrorf builds an error matching ErrUpstreamUnavailable.
func UpstreamErrorf(format string, args ...any) error {
	return taxonomyErrorf(ErrUpstreamUnavailable, format, args...)
}

// DataShapeErrorf builds an error matching ErrDataShape.
func DataShapeErrorf(format string, args ...any) error {
	return taxonomyErrorf(ErrDataShape, format, args...)
}

// WrapUpstream tags a transport-level error as ErrUpstreamUnavailable while
// keeping the original error in the chain.
func WrapUpstream(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return errors.WithStack(fmt.Errorf("%w: %s: %w", ErrUpstreamUnavailable, fmt.Sprintf(format, args...), err))
}
