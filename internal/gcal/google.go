package gcal

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2"
	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

const (
	calendarID = "primary"
	timezone   = "Asia/Tehran"
)

// Client implements Gateway against the Google Calendar v3 API.
type Client struct {
	svc     *calendar.Service
	timeout time.Duration
}

// NewClient builds a calendar client authorized by the given token source.
func NewClient(ctx context.Context, ts oauth2.TokenSource, timeout time.Duration) (*Client, error) {
	svc, err := calendar.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("build calendar service: %w", err)
	}
	return &Client{svc: svc, timeout: timeout}, nil
}

// FindByStableID queries the primary calendar for events carrying the
// stable-ID private property within [from, to].
func (c *Client) FindByStableID(ctx context.Context, stableID string, from, to time.Time) ([]Entry, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	res, err := c.svc.Events.List(calendarID).
		TimeMin(from.Format(time.RFC3339)).
		TimeMax(to.Format(time.RFC3339)).
		PrivateExtendedProperty(PropAssignmentID + "=" + stableID).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("list events for %s: %w", stableID, err)
	}

	entries := make([]Entry, 0, len(res.Items))
	for _, item := range res.Items {
		var start string
		if item.Start != nil {
			start = item.Start.Date
		}
		entries = append(entries, Entry{RemoteID: item.Id, StartDate: start})
	}
	return entries, nil
}

// Insert creates a new full-day event on the primary calendar.
func (c *Client) Insert(ctx context.Context, ev Event) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if _, err := c.svc.Events.Insert(calendarID, eventBody(ev)).Context(ctx).Do(); err != nil {
		return fmt.Errorf("insert event %s: %w", ev.StableID, err)
	}
	return nil
}

// Update replaces an existing event's body.
func (c *Client) Update(ctx context.Context, remoteID string, ev Event) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if _, err := c.svc.Events.Update(calendarID, remoteID, eventBody(ev)).Context(ctx).Do(); err != nil {
		return fmt.Errorf("update event %s: %w", remoteID, err)
	}
	return nil
}

// Delete removes an event from the primary calendar.
func (c *Client) Delete(ctx context.Context, remoteID string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.svc.Events.Delete(calendarID, remoteID).Context(ctx).Do(); err != nil {
		return fmt.Errorf("delete event %s: %w", remoteID, err)
	}
	return nil
}

func eventBody(ev Event) *calendar.Event {
	return &calendar.Event{
		Summary:     ev.Title,
		Description: ev.Description,
		Start:       &calendar.EventDateTime{Date: ev.StartDate, TimeZone: timezone},
		End:         &calendar.EventDateTime{Date: ev.EndDate, TimeZone: timezone},
		ExtendedProperties: &calendar.EventExtendedProperties{
			Private: map[string]string{
				PropAssignmentID: ev.StableID,
				PropSource:       SourceTag,
			},
		},
	}
}
