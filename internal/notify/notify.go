// Package notify delivers match lifecycle events to users.
//
// Services call a Dispatcher. In production the dispatcher publishes on a
// Redis channel; every instance runs a Subscriber that forwards the events
// to the recipient's websocket connections held by the local Hub.
package notify

import (
	"context"
	"errors"
	"time"
)

type Type string

const (
	MatchCreated  Type = "match.created"
	MatchAccepted Type = "match.accepted"
)

// Event is one notification for one recipient.
type Event struct {
	Type          Type      `json:"type"`
	UserID        string    `json:"userId"`
	MatchID       string    `json:"matchId"`
	EventID       string    `json:"eventId"`
	CounterpartID string    `json:"counterpartId"`
	Score         int       `json:"score"`
	At            time.Time `json:"at"`
}

// Dispatcher delivers events. Implementations must be safe for concurrent use.
type Dispatcher interface {
	Dispatch(ctx context.Context, events ...Event) error
}

// Nop discards every event.
type Nop struct{}

func (Nop) Dispatch(context.Context, ...Event) error { return nil }

// Multi fans events out to several dispatchers and joins their errors.
type Multi []Dispatcher

func (m Multi) Dispatch(ctx context.Context, events ...Event) error {
	var errs []error
	for _, d := range m {
		if err := d.Dispatch(ctx, events...); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ForPair builds the same event for both participants of a match, each
// pointing at the other as counterpart.
func ForPair(t Type, matchID, eventID, a, b string, score int, at time.Time) []Event {
	return []Event{
		{Type: t, UserID: a, CounterpartID: b, MatchID: matchID, EventID: eventID, Score: score, At: at},
		{Type: t, UserID: b, CounterpartID: a, MatchID: matchID, EventID: eventID, Score: score, At: at},
	}
}
