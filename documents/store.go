package documents

import (
	"context"
	"strconv"

	"github.com/jrsteele09/go-schooltracker-client/notify"
	"github.com/jrsteele09/go-schooltracker-client/syncstore"
)

// Policy answers document type, application and file name search from the
// cache.
func Policy() syncstore.FilterPolicy[Document] {
	return syncstore.FilterPolicy[Document]{
		Local: map[string]syncstore.LocalField[Document]{
			"document_type": syncstore.Equals(func(d *Document) string { return d.DocumentType }),
			"application":   syncstore.Equals((*Document).ApplicationKey),
			"search":        syncstore.Contains(func(d *Document) string { return d.FileName }),
		},
	}
}

func Resource() syncstore.Resource[Document] {
	messages := syncstore.DefaultMessages("document", "documents")
	messages.CreateUnauthenticated = "Authentication required to upload documents"
	messages.Created = "Document uploaded successfully"
	messages.CreateFailed = "Failed to upload document"

	return syncstore.Resource[Document]{
		Name:     ResourceName,
		ID:       func(d *Document) int64 { return d.ID },
		Parent:   (*Document).ApplicationKey,
		Policy:   Policy(),
		Messages: messages,
	}
}

type Store struct {
	*syncstore.Store[Document]
}

func NewStore(remote syncstore.Remote[Document], session syncstore.Session, subscriber syncstore.Subscriber, notifier notify.Notifier, opts ...syncstore.Option) *Store {
	return &Store{
		Store: syncstore.New(Resource(), remote, session, subscriber, notifier, opts...),
	}
}

// Upload creates a document from file content.
func (s *Store) Upload(ctx context.Context, upload Upload) *Document {
	return s.Create(ctx, upload.payload())
}

func (s *Store) ByApplication(applicationID int64) []*Document {
	return s.ByParent(strconv.FormatInt(applicationID, 10))
}

// ByCategory partitions the cached documents by type. Every known type and
// All are always present; documents of an unknown type appear only under All.
func (s *Store) ByCategory() map[string][]*Document {
	out := make(map[string][]*Document, len(Types)+1)
	out[All] = []*Document{}
	for _, t := range Types {
		out[t] = []*Document{}
	}
	for _, d := range s.Items() {
		out[All] = append(out[All], d)
		if _, known := out[d.DocumentType]; known && d.DocumentType != All {
			out[d.DocumentType] = append(out[d.DocumentType], d)
		}
	}
	return out
}
