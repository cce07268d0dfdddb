package applications_test

import (
	"context"
	"encoding/json"
	"maps"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/jrsteele09/go-schooltracker-client/applications"
	"github.com/jrsteele09/go-schooltracker-client/credentials"
	"github.com/jrsteele09/go-schooltracker-client/gateway"
	"github.com/jrsteele09/go-schooltracker-client/notify"
	"github.com/jrsteele09/go-schooltracker-client/sessions"
	"github.com/jrsteele09/go-schooltracker-client/syncstore"
	"github.com/stretchr/testify/require"
)

type testFixture struct {
	server   *httptest.Server
	creds    *credentials.Store
	notes    *notify.Recorder
	store    *applications.Store
	mu       sync.Mutex
	requests []string
	created  map[string]any
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	f := &testFixture{notes: notify.NewRecorder(nil)}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /applications/", func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"count":    3,
			"next":     nil,
			"previous": nil,
			"results": []map[string]any{
				{"id": 1, "program_name": "BSc Biology", "degree_type": "Bachelor", "status": "Draft"},
				{"id": 2, "program_name": "MSc Physics", "degree_type": "Master", "status": "Accepted"},
				{"id": 3, "program_name": "PhD Chemistry", "degree_type": "PhD", "status": "Rejected"},
			},
		})
	})
	mux.HandleFunc("POST /applications/create/", func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		var in map[string]any
		_ = json.NewDecoder(r.Body).Decode(&in)
		f.mu.Lock()
		f.created = maps.Clone(in)
		f.mu.Unlock()
		in["id"] = 4
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(in)
	})
	mux.HandleFunc("DELETE /applications/{id}/delete/", func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		if r.PathValue("id") == "99" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"Cannot delete an application with documents"}`))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)

	f.creds = credentials.NewStore(credentials.NewMemoryTier(), credentials.NewMemoryTier())
	require.NoError(t, f.creds.Store(credentials.TokenPair{Access: "access", Refresh: "refresh"}, false))

	gw := gateway.New(f.server.URL, f.creds, nil)
	f.store = applications.NewStore(applications.NewRemote(gw), f.creds, sessions.NewBroadcaster(), f.notes)
	t.Cleanup(f.store.Close)
	return f
}

func (f *testFixture) record(r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, r.Method+" "+r.URL.Path)
}

func (f *testFixture) requestLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requests...)
}

func TestStore_FilterThenRemoveAccepted(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	require.NoError(t, f.store.Fetch(ctx, false))
	require.Len(t, f.store.Items(), 3)
	require.Equal(t, 3, f.store.Pagination().Count)

	require.NoError(t, f.store.Filter(ctx, syncstore.Filter{"status": applications.StatusAccepted}))
	view := f.store.FilteredView()
	require.Len(t, view, 1)
	require.Equal(t, applications.StatusAccepted, view[0].Status)
	require.Equal(t, []string{"GET /applications/"}, f.requestLog())

	res := f.store.Remove(ctx, view[0].ID)
	require.True(t, res.Success)
	require.Equal(t, "Application deleted successfully", res.Message)
	require.Len(t, f.store.Items(), 2)
	require.Empty(t, f.store.FilteredView())
	require.Equal(t, 2, f.store.Pagination().Count)
	require.Equal(t, []string{"GET /applications/", "DELETE /applications/2/delete/"}, f.requestLog())
}

func TestStore_RemoveFailureMessage(t *testing.T) {
	f := setupTestFixture(t)

	res := f.store.Remove(context.Background(), 99)
	require.Equal(t, syncstore.MutationResult{Message: "Cannot delete an application with documents"}, res)
	require.Empty(t, f.notes.Messages())
}

func TestStore_CreateSendsCleanPayload(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.Fetch(ctx, false))
	require.NoError(t, f.store.Filter(ctx, syncstore.Filter{"status": applications.StatusDraft}))

	created := f.store.Create(ctx, syncstore.Payload{
		"institution_id":   "oxford",
		"institution_name": "University of Oxford",
		"program_name":     "DPhil History",
		"degree_type":      "PhD",
		"status":           applications.StatusDraft,
	})
	require.NotNil(t, created)
	require.Equal(t, int64(4), created.ID)
	require.Equal(t, "oxford", created.Institution)
	require.Equal(t, map[string]any{
		"institution":  "oxford",
		"program_name": "DPhil History",
		"degree_type":  "PhD",
		"status":       applications.StatusDraft,
	}, f.created)

	view := f.store.FilteredView()
	require.Len(t, view, 2)
	require.Same(t, created, view[0])
	require.Equal(t, []*applications.Application{created}, f.store.ByInstitution("oxford"))
	require.Equal(t, 2, f.store.CountByStatus()[applications.StatusDraft])
}

func TestStore_SignedOutSessionSkipsNetwork(t *testing.T) {
	f := setupTestFixture(t)
	require.NoError(t, f.creds.Clear())

	require.NoError(t, f.store.Fetch(context.Background(), true))
	require.Nil(t, f.store.Create(context.Background(), syncstore.Payload{"program_name": "x"}))
	require.Empty(t, f.requestLog())
	require.Equal(t, []string{"Authentication required to add applications"}, f.notes.Errors())
}
