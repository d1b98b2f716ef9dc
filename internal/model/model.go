// Package model defines domain entities used by services and repositories.
package model

import (
	"regexp"
	"time"
)

// assignmentIDRe matches the numeric assignment ID in a Quera assignment URL,
// e.g. https://quera.org/course/assignments/85830/problems -> 85830.
var assignmentIDRe = regexp.MustCompile(`/assignments/(\d+)/`)

// StableIDFromLink derives the durable dedup key for an assignment from its
// canonical URL. Returns "" when no ID is derivable.
func StableIDFromLink(link string) string {
	m := assignmentIDRe.FindStringSubmatch(link)
	if m == nil {
		return ""
	}
	return m[1]
}

// RawAssignment is one scraped field tuple, exactly as harvested from the
// course page and not yet validated.
type RawAssignment struct {
	Title    string // assignment name
	Course   string // course qualifier
	DateText string // localized due date, e.g. "۲۵ اردیبهشت"
	Link     string // canonical assignment URL
}

// Assignment is the canonical in-memory representation of one scraped deadline.
// StableID stays fixed when the due date shifts; that is what makes
// update-detection possible.
type Assignment struct {
	Title       string    // display name plus course qualifier
	StableID    string    // derived from SourceLink; durable dedup key
	DueInstant  time.Time // end of the due day in the reference timezone
	WindowStart time.Time // beginning of the due day
	SourceLink  string    // retained for re-derivation and audit
}

// TenantCredential is the per-tenant calendar bearer-credential triple.
// It is created on the first successful authorization handshake and replaced
// in place whenever a refresh succeeds; only explicit tenant action removes it.
type TenantCredential struct {
	TenantID     string
	AccessToken  string
	RefreshToken string
	Expiry       time.Time
	UpdatedAt    time.Time
}

// TenantState holds per-tenant sync state that survives restarts.
type TenantState struct {
	TenantID     string
	QueraSession string // source session cookie; "" when disconnected
	AutoSync     bool
	UpdatedAt    time.Time
}

// SourceConnected reports whether the tenant has a usable source session.
func (s *TenantState) SourceConnected() bool { return s != nil && s.QueraSession != "" }

// SyncOutcome classifies the result of reconciling a single assignment.
type SyncOutcome string

const (
	OutcomeCreated   SyncOutcome = "created"
	OutcomeUpdated   SyncOutcome = "updated"
	OutcomeUnchanged SyncOutcome = "unchanged"
	OutcomeFailed    SyncOutcome = "failed"
)

// SyncFailure records one assignment that could not be reconciled.
type SyncFailure struct {
	Title string
	Link  string
	Err   error
}

// SyncReport aggregates outcomes over one reconciliation pass.
// Ephemeral: reported to the caller, never persisted.
type SyncReport struct {
	Created   int
	Updated   int
	Unchanged int
	Failed    int
	Failures  []SyncFailure
}

// Add folds a single outcome into the report.
func (r *SyncReport) Add(outcome SyncOutcome, f *SyncFailure) {
	switch outcome {
	case OutcomeCreated:
		r.Created++
	case OutcomeUpdated:
		r.Updated++
	case OutcomeUnchanged:
		r.Unchanged++
	case OutcomeFailed:
		r.Failed++
		if f != nil {
			r.Failures = append(r.Failures, *f)
		}
	}
}

// Total returns the number of records covered by the report.
func (r *SyncReport) Total() int {
	return r.Created + r.Updated + r.Unchanged + r.Failed
}
