package events

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/jrsteele09/go-schooltracker-client/notify"
	"github.com/jrsteele09/go-schooltracker-client/syncstore"
)

const ResourceName = "events"

func Policy() syncstore.FilterPolicy[Event] {
	return syncstore.FilterPolicy[Event]{
		Local: map[string]syncstore.LocalField[Event]{
			"event_color": syncstore.Equals(func(e *Event) string { return e.EventColor }),
			"application": syncstore.Equals((*Event).applicationKey),
			"search": syncstore.Contains(
				func(e *Event) string { return e.EventTitle },
				func(e *Event) string { return e.Notes },
			),
		},
	}
}

func Resource() syncstore.Resource[Event] {
	messages := syncstore.DefaultMessages("event", "events")
	messages.CreateUnauthenticated = "Authentication required to create events"
	messages.Created = "Event added successfully"
	messages.CreateFailed = "Failed to add event"

	return syncstore.Resource[Event]{
		Name:                ResourceName,
		ID:                  func(e *Event) int64 { return e.ID },
		Parent:              (*Event).applicationKey,
		Policy:              Policy(),
		Messages:            messages,
		QuietInitialFailure: true,
	}
}

// Remote is the events endpoint set plus the per-application listing.
type Remote struct {
	*syncstore.HTTPRemote[Event]
	client syncstore.Client
}

var _ syncstore.Remote[Event] = (*Remote)(nil)

func NewRemote(client syncstore.Client) *Remote {
	return &Remote{
		HTTPRemote: syncstore.NewHTTPRemote[Event](client, syncstore.RESTEndpoints(ResourceName)),
		client:     client,
	}
}

// ListForApplication asks the server for the events of one application.
func (r *Remote) ListForApplication(ctx context.Context, applicationID int64) ([]*Event, error) {
	var page syncstore.Page[Event]
	if err := r.client.GetJSON(ctx, fmt.Sprintf("/events/applications/%d/", applicationID), nil, &page); err != nil {
		return nil, err
	}
	return page.Results, nil
}

type Store struct {
	*syncstore.Store[Event]
	remote *Remote
}

func NewStore(remote *Remote, session syncstore.Session, subscriber syncstore.Subscriber, notifier notify.Notifier, opts ...syncstore.Option) *Store {
	return &Store{
		Store:  syncstore.New[Event](Resource(), remote, session, subscriber, notifier, opts...),
		remote: remote,
	}
}

func (s *Store) ByApplication(applicationID int64) []*Event {
	return s.ByParent(strconv.FormatInt(applicationID, 10))
}

// ForApplication returns the cached events of an application, asking the
// server when the cache holds none.
func (s *Store) ForApplication(ctx context.Context, applicationID int64) ([]*Event, error) {
	if cached := s.ByApplication(applicationID); len(cached) > 0 {
		return cached, nil
	}
	return s.remote.ListForApplication(ctx, applicationID)
}

// Between returns cached events dated within [from, to], ordered by date.
func (s *Store) Between(from, to time.Time) []*Event {
	var out []*Event
	for _, e := range s.Items() {
		d, ok := e.Date()
		if !ok || d.Before(from) || d.After(to) {
			continue
		}
		out = append(out, e)
	}
	slices.SortStableFunc(out, func(a, b *Event) int {
		return cmp.Compare(a.EventDate, b.EventDate)
	})
	return out
}
