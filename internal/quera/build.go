package quera

import (
	"time"

	"github.com/erfnzdeh/edusync/internal/jalali"
	"github.com/erfnzdeh/edusync/internal/model"
)

// BuildAssignments normalizes raw tuples into assignment records.
// Tuples with a malformed date become failures rather than aborting the
// batch; everything else flows through untouched for the reconciler to judge.
func BuildAssignments(raws []model.RawAssignment, now time.Time) ([]model.Assignment, []model.SyncFailure) {
	var (
		records  []model.Assignment
		failures []model.SyncFailure
	)
	for _, raw := range raws {
		due, err := jalali.Normalize(raw.DateText, now)
		if err != nil {
			failures = append(failures, model.SyncFailure{
				Title: raw.Title + " | " + raw.Course,
				Link:  raw.Link,
				Err:   err,
			})
			continue
		}
		records = append(records, model.Assignment{
			Title:       raw.Title + " | " + raw.Course,
			StableID:    model.StableIDFromLink(raw.Link),
			DueInstant:  due,
			WindowStart: jalali.StartOfDay(due),
			SourceLink:  raw.Link,
		})
	}
	return records, failures
}
