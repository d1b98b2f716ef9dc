// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across repo/service layers.
var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAuth indicates a missing, expired, or revoked calendar credential.
	// It aborts a whole sync pass; the caller should prompt re-authorization.
	ErrAuth = errors.New("calendar authorization required")

	// ErrSource indicates the assignment source is unreachable or not connected.
	// It aborts a whole sync pass; distinct from ErrAuth so the caller can
	// direct the tenant to the correct reconnection flow.
	ErrSource = errors.New("assignment source unavailable")

	// ErrSessionInvalid indicates the source session cookie is expired or revoked.
	ErrSessionInvalid = errors.New("source session invalid")

	// ErrInvalidDateFormat indicates a scraped date string with a malformed token count.
	ErrInvalidDateFormat = errors.New("invalid date format")

	// ErrInvalidMonth indicates an unrecognized localized month name.
	ErrInvalidMonth = errors.New("invalid month name")

	// ErrMissingStableID indicates an assignment link without a derivable stable ID.
	// Such a record cannot be deduplicated and is skipped.
	ErrMissingStableID = errors.New("missing stable assignment id")

	// ErrRemoteWrite indicates a failed calendar create/update call.
	// Per-record; folded into the batch result, never aborts the batch.
	ErrRemoteWrite = errors.New("remote calendar write failed")
)
