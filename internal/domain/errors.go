package domain

import (
	"errors"
)

// ──────────────────────────────────────────────────────────────────────────────
// Sentinel errors: compare with errors.Is()
// ──────────────────────────────────────────────────────────────────────────────

// Not-found errors
var (
	// ErrRoundNotFound is returned when no round has the given id.
	ErrRoundNotFound = errors.New("round not found")

	// ErrBetNotFound is returned when no bet has the given id.
	ErrBetNotFound = errors.New("bet not found")

	// ErrCandidateNotFound is returned when a bet or outcome names a
	// protocol the round does not track.
	ErrCandidateNotFound = errors.New("protocol not found")
)

// Invalid-input errors
var (
	// ErrMissingBetFields is returned when agentId, protocolId or amount is
	// absent.
	ErrMissingBetFields = errors.New("agentId, protocolId, and amount required")

	// ErrBetTooSmall is returned when a stake is below the round minimum.
	// It is wrapped with the required minimum.
	ErrBetTooSmall = errors.New("bet amount is below the minimum")

	// ErrInvalidDuration is returned when a round is created with a
	// non-positive duration.
	ErrInvalidDuration = errors.New("duration must be positive")

	// ErrInvalidMinBet is returned when a round is created with a
	// non-positive minimum bet.
	ErrInvalidMinBet = errors.New("minBet must be positive")

	// ErrEmptyOutcome is returned when a resolution carries no counts.
	ErrEmptyOutcome = errors.New("liquidationData required")

	// ErrNegativeCount is returned when an outcome count is below zero.
	ErrNegativeCount = errors.New("liquidation counts must be non-negative")
)

// Invalid-state errors
var (
	// ErrRoundNotOpen is returned when a bet targets a round that is no longer
	// accepting stakes.
	ErrRoundNotOpen = errors.New("round not open for betting")

	// ErrRoundAlreadyResolved is returned on a second resolution attempt.
	ErrRoundAlreadyResolved = errors.New("round already resolved")

	// ErrRoundNotResolved is returned when a post-mortem is requested for a
	// round that has no result yet.
	ErrRoundNotResolved = errors.New("round not resolved yet")
)

// Internal errors (collaborator failures)
var (
	// ErrNarrativeUnavailable is returned when no narrative backend is
	// configured.
	ErrNarrativeUnavailable = errors.New("narrative generation is not configured")

	// ErrNarrativeFailed wraps any failure of the narrative backend.
	ErrNarrativeFailed = errors.New("narrative generation failed")
)

// ──────────────────────────────────────────────────────────────────────────────
// Helper predicates
// ──────────────────────────────────────────────────────────────────────────────

var (
	notFoundErrors = []error{
		ErrRoundNotFound,
		ErrBetNotFound,
		ErrCandidateNotFound,
	}
	invalidInputErrors = []error{
		ErrMissingBetFields,
		ErrBetTooSmall,
		ErrInvalidDuration,
		ErrInvalidMinBet,
		ErrEmptyOutcome,
		ErrNegativeCount,
	}
	invalidStateErrors = []error{
		ErrRoundNotOpen,
		ErrRoundAlreadyResolved,
		ErrRoundNotResolved,
	}
	internalErrors = []error{
		ErrNarrativeUnavailable,
		ErrNarrativeFailed,
	}
)

// IsNotFound returns true when err (or any error in its chain) is one of the
// domain "not found" errors.  Handlers translate these to HTTP 404.
func IsNotFound(err error) bool {
	return isAny(err, notFoundErrors)
}

// IsInvalidInput returns true for missing or out-of-range request values.
func IsInvalidInput(err error) bool {
	return isAny(err, invalidInputErrors)
}

// IsInvalidState returns true for operations that the round's lifecycle
// state forbids.
func IsInvalidState(err error) bool {
	return isAny(err, invalidStateErrors)
}

// IsInternal returns true for collaborator failures.
func IsInternal(err error) bool {
	return isAny(err, internalErrors)
}

func isAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
