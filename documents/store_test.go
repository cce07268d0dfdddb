package documents_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/jrsteele09/go-schooltracker-client/credentials"
	"github.com/jrsteele09/go-schooltracker-client/documents"
	"github.com/jrsteele09/go-schooltracker-client/gateway"
	"github.com/jrsteele09/go-schooltracker-client/internal/utils"
	"github.com/jrsteele09/go-schooltracker-client/notify"
	"github.com/jrsteele09/go-schooltracker-client/sessions"
	"github.com/jrsteele09/go-schooltracker-client/syncstore"
	"github.com/stretchr/testify/require"
)

type upload struct {
	fields  map[string]string
	content string
}

type testFixture struct {
	notes    *notify.Recorder
	store    *documents.Store
	uploads  chan upload
	tooLarge atomic.Bool
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	f := &testFixture{notes: notify.NewRecorder(nil), uploads: make(chan upload, 4)}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /documents/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"count":4,"next":null,"previous":null,"results":[
			{"id":1,"document_type":"Transcript","file_name":"transcript.pdf","application_id":7},
			{"id":2,"document_type":"Essay","file_name":"Personal Statement.docx","application_id":7},
			{"id":3,"document_type":"Essay","file_name":"why-physics.pdf","application_id":null},
			{"id":4,"document_type":"Portfolio","file_name":"art.zip","application_id":8}
		]}`))
	})
	mux.HandleFunc("POST /documents/upload/", func(w http.ResponseWriter, r *http.Request) {
		if f.tooLarge.Load() {
			w.WriteHeader(http.StatusRequestEntityTooLarge)
			return
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"file":["No file was submitted."]}`))
			return
		}
		data, _ := io.ReadAll(file)
		fields := map[string]string{"header_filename": header.Filename}
		for k, v := range r.MultipartForm.Value {
			fields[k] = v[0]
		}
		f.uploads <- upload{fields: fields, content: string(data)}

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":            10,
			"document_type": fields["document_type"],
			"file_name":     fields["file_name"],
			"file_url":      "/media/documents/10",
			"application":   7,
		})
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	creds := credentials.NewStore(credentials.NewMemoryTier(), credentials.NewMemoryTier())
	require.NoError(t, creds.Store(credentials.TokenPair{Access: "access", Refresh: "refresh"}, true))

	gw := gateway.New(server.URL, creds, nil)
	f.store = documents.NewStore(documents.NewRemote(gw), creds, sessions.NewBroadcaster(), f.notes)
	t.Cleanup(f.store.Close)
	return f
}

func TestStore_ByCategory(t *testing.T) {
	f := setupTestFixture(t)
	require.NoError(t, f.store.Fetch(context.Background(), false))

	byType := f.store.ByCategory()
	require.Len(t, byType, len(documents.Types)+1)
	require.Len(t, byType[documents.All], 4)
	require.Len(t, byType[documents.TypeEssay], 2)
	require.Len(t, byType[documents.TypeTranscript], 1)
	require.Empty(t, byType[documents.TypeCV])
	require.NotContains(t, byType, "Portfolio")

	items := f.store.Items()
	require.Same(t, items[1], byType[documents.TypeEssay][0])
}

func TestStore_LocalFilters(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.Fetch(ctx, false))

	require.NoError(t, f.store.Filter(ctx, syncstore.Filter{"application": "7", "document_type": documents.TypeEssay}))
	view := f.store.FilteredView()
	require.Len(t, view, 1)
	require.Equal(t, int64(2), view[0].ID)

	require.NoError(t, f.store.Filter(ctx, syncstore.Filter{"search": "PERSONAL"}))
	require.Len(t, f.store.FilteredView(), 1)

	require.Len(t, f.store.ByApplication(7), 2)
	require.Empty(t, f.store.ByApplication(99))
}

func TestStore_Upload(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.Fetch(ctx, false))
	require.NoError(t, f.store.Filter(ctx, syncstore.Filter{"document_type": documents.TypeCV}))

	doc := f.store.Upload(ctx, documents.Upload{
		File:          []byte("resume"),
		FileName:      "cv.pdf",
		DocumentType:  documents.TypeCV,
		ApplicationID: utils.Ptr(int64(7)),
	})
	require.NotNil(t, doc)
	require.Equal(t, "7", doc.ApplicationKey())

	got := <-f.uploads
	require.Equal(t, "resume", got.content)
	require.Equal(t, map[string]string{
		"header_filename": "cv.pdf",
		"file_name":       "cv.pdf",
		"document_type":   documents.TypeCV,
		"application":     "7",
	}, got.fields)

	require.Equal(t, []*documents.Document{doc}, f.store.FilteredView())
	require.Len(t, f.store.ByCategory()[documents.TypeCV], 1)
	require.Equal(t, 5, f.store.Pagination().Count)
	require.Equal(t, []string{"Document uploaded successfully"}, f.notes.Successes())
}

func TestStore_UploadTooLarge(t *testing.T) {
	f := setupTestFixture(t)
	f.tooLarge.Store(true)

	doc := f.store.Upload(context.Background(), documents.Upload{File: []byte("x"), FileName: "big.pdf", DocumentType: documents.TypeOther})
	require.Nil(t, doc)
	require.Equal(t, []string{"File size exceeds maximum allowed (50 MB)"}, f.notes.Errors())
}

func TestStore_UploadWithoutFile(t *testing.T) {
	f := setupTestFixture(t)

	doc := f.store.Upload(context.Background(), documents.Upload{FileName: "empty.pdf", DocumentType: documents.TypeOther})
	require.Nil(t, doc)
	require.Equal(t, []string{"Failed to upload document"}, f.notes.Errors())
}
