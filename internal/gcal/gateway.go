// Package gcal talks to the tenant's remote calendar.
//
// The remote entry ID is assigned by the calendar service and not known in
// advance, so dedup relies solely on a private extended property carrying
// the assignment's stable ID.
package gcal

import (
	"context"
	"time"
)

// Property keys stored in each event's private extended-property map.
const (
	PropAssignmentID = "queraAssignmentId"
	PropSource       = "source"
	SourceTag        = "quera-automation"
)

// Entry is the reconciler's view of an existing remote calendar entry.
type Entry struct {
	RemoteID  string // calendar-service event ID
	StartDate string // full-day start, "2006-01-02"
}

// Event is the full body written on create/update.
type Event struct {
	Title       string
	Description string
	StartDate   string // "2006-01-02", inclusive
	EndDate     string // "2006-01-02", exclusive (day after the due date)
	StableID    string
}

// Gateway abstracts the remote calendar operations the reconciler needs.
type Gateway interface {
	// FindByStableID returns entries whose stable-ID property matches,
	// restricted to the [from, to] time window.
	FindByStableID(ctx context.Context, stableID string, from, to time.Time) ([]Entry, error)
	// Insert creates a new full-day event.
	Insert(ctx context.Context, ev Event) error
	// Update replaces the event body of an existing entry.
	Update(ctx context.Context, remoteID string, ev Event) error
	// Delete removes an entry; used to heal duplicate matches.
	Delete(ctx context.Context, remoteID string) error
}
