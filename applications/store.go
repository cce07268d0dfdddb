package applications

import (
	"github.com/jrsteele09/go-schooltracker-client/notify"
	"github.com/jrsteele09/go-schooltracker-client/syncstore"
)

const ResourceName = "applications"

// Policy answers status, degree type and program/department search from the
// cache. Ordering and anything else goes to the server.
func Policy() syncstore.FilterPolicy[Application] {
	return syncstore.FilterPolicy[Application]{
		Local: map[string]syncstore.LocalField[Application]{
			"status":      syncstore.Equals(func(a *Application) string { return a.Status }),
			"degree_type": syncstore.Equals(func(a *Application) string { return a.DegreeType }),
			"search": syncstore.Contains(
				func(a *Application) string { return a.ProgramName },
				func(a *Application) string { return a.Department },
			),
		},
	}
}

func Resource() syncstore.Resource[Application] {
	return syncstore.Resource[Application]{
		Name:     ResourceName,
		ID:       func(a *Application) int64 { return a.ID },
		Parent:   func(a *Application) string { return a.Institution },
		Policy:   Policy(),
		Messages: syncstore.DefaultMessages("application", "applications"),
	}
}

// NewRemote returns the applications endpoints on client.
func NewRemote(client syncstore.Client) *syncstore.HTTPRemote[Application] {
	r := syncstore.NewHTTPRemote[Application](client, syncstore.RESTEndpoints(ResourceName))
	r.PrepareCreate = PrepareCreate
	r.PrepareUpdate = PrepareUpdate
	return r
}

type Store struct {
	*syncstore.Store[Application]
}

func NewStore(remote syncstore.Remote[Application], session syncstore.Session, subscriber syncstore.Subscriber, notifier notify.Notifier, opts ...syncstore.Option) *Store {
	return &Store{
		Store: syncstore.New(Resource(), remote, session, subscriber, notifier, opts...),
	}
}

// ByInstitution returns cached applications to the given institution.
func (s *Store) ByInstitution(institutionID string) []*Application {
	return s.ByParent(institutionID)
}

// CountByStatus tallies the cached applications per status.
func (s *Store) CountByStatus() map[string]int {
	counts := make(map[string]int, len(Statuses))
	for _, st := range Statuses {
		counts[st] = 0
	}
	for _, a := range s.Items() {
		counts[a.Status]++
	}
	return counts
}
