package documents

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/jrsteele09/go-schooltracker-client/gateway"
	"github.com/jrsteele09/go-schooltracker-client/syncstore"
)

const (
	ResourceName = "documents"
	uploadPath   = "/documents/upload/"

	fileTooLargeMessage = "File size exceeds maximum allowed (50 MB)"
)

// Upload is the content of a new document.
type Upload struct {
	File          []byte
	FileName      string
	DocumentType  string
	ApplicationID *int64
}

func (u Upload) payload() syncstore.Payload {
	p := syncstore.Payload{
		"file":          u.File,
		"file_name":     u.FileName,
		"document_type": u.DocumentType,
	}
	if u.ApplicationID != nil {
		p["application"] = *u.ApplicationID
	}
	return p
}

// Client adds multipart uploads to the JSON client.
type Client interface {
	syncstore.Client
	PostMultipart(ctx context.Context, path string, fields map[string]string, files []gateway.FormFile, out any) error
}

// Remote is the documents endpoint set. Create is a multipart upload.
type Remote struct {
	*syncstore.HTTPRemote[Document]
	client Client
}

var _ syncstore.Remote[Document] = (*Remote)(nil)

func NewRemote(client Client) *Remote {
	return &Remote{
		HTTPRemote: syncstore.NewHTTPRemote[Document](client, syncstore.Endpoints{
			List:   "/documents/",
			Create: uploadPath,
			Detail: "/documents/%d/",
			Delete: "/documents/%d/delete/",
		}),
		client: client,
	}
}

// Create uploads the payload built by Upload: the file bytes under "file"
// and the remaining keys as form fields.
func (r *Remote) Create(ctx context.Context, payload syncstore.Payload) (*Document, error) {
	content, _ := payload["file"].([]byte)
	fileName, _ := payload["file_name"].(string)
	if len(content) == 0 {
		return nil, fmt.Errorf("documents: upload has no file content")
	}
	if fileName == "" {
		fileName = "upload"
	}

	fields := map[string]string{}
	for k, v := range payload {
		if k == "file" || v == nil {
			continue
		}
		switch val := v.(type) {
		case string:
			if val != "" {
				fields[k] = val
			}
		case int64:
			fields[k] = strconv.FormatInt(val, 10)
		default:
			fields[k] = fmt.Sprint(val)
		}
	}

	var doc Document
	err := r.client.PostMultipart(ctx, uploadPath, fields,
		[]gateway.FormFile{{Field: "file", FileName: fileName, Content: content}},
		&doc)
	if gateway.StatusCode(err) == http.StatusRequestEntityTooLarge {
		return nil, &FileTooLargeError{err: err}
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// FileTooLargeError is returned when the server rejects an upload by size.
type FileTooLargeError struct {
	err error
}

func (e *FileTooLargeError) Error() string {
	return "documents: " + fileTooLargeMessage
}

func (e *FileTooLargeError) Unwrap() error {
	return e.err
}

func (e *FileTooLargeError) UserMessage() string {
	return fileTooLargeMessage
}
