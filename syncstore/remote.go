package syncstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
)

// Payload is a partial entity as sent to create and update endpoints.
type Payload map[string]any

// Page is one collection response.
type Page[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []*T    `json:"results"`
}

func (p *Page[T]) pagination() Pagination {
	out := Pagination{Count: p.Count}
	if p.Next != nil {
		out.Next = *p.Next
	}
	if p.Previous != nil {
		out.Previous = *p.Previous
	}
	return out
}

// pageEnvelope has Page's fields without its UnmarshalJSON method.
type pageEnvelope[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []*T    `json:"results"`
}

// UnmarshalJSON accepts both the paginated envelope and a bare array.
func (p *Page[T]) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var results []*T
		if err := json.Unmarshal(trimmed, &results); err != nil {
			return err
		}
		*p = Page[T]{Count: len(results), Results: results}
		return nil
	}

	var env pageEnvelope[T]
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return err
	}
	*p = Page[T](env)
	return nil
}

// Remote is the server side of one collection.
type Remote[T any] interface {
	List(ctx context.Context, query url.Values) (*Page[T], error)
	Retrieve(ctx context.Context, id int64) (*T, error)
	Create(ctx context.Context, payload Payload) (*T, error)
	Update(ctx context.Context, id int64, payload Payload) (*T, error)
	Delete(ctx context.Context, id int64) error
}

// Client is the subset of the gateway used by HTTPRemote.
type Client interface {
	GetJSON(ctx context.Context, path string, query url.Values, out any) error
	PostJSON(ctx context.Context, path string, in, out any) error
	PatchJSON(ctx context.Context, path string, in, out any) error
	Delete(ctx context.Context, path string) error
}

// Endpoints are the paths of one resource. Detail and Delete are format
// strings taking the numeric id.
type Endpoints struct {
	List   string
	Create string
	Detail string
	Delete string
}

// RESTEndpoints returns the conventional paths for resource, e.g.
// /applications/, /applications/create/, /applications/%d/, /applications/%d/delete/.
func RESTEndpoints(resource string) Endpoints {
	return Endpoints{
		List:   "/" + resource + "/",
		Create: "/" + resource + "/create/",
		Detail: "/" + resource + "/%d/",
		Delete: "/" + resource + "/%d/delete/",
	}
}

// HTTPRemote implements Remote over the authenticated gateway.
type HTTPRemote[T any] struct {
	client    Client
	endpoints Endpoints

	// PrepareCreate and PrepareUpdate may rewrite a payload before it is sent.
	PrepareCreate func(Payload) Payload
	PrepareUpdate func(Payload) Payload
}

var _ Remote[struct{}] = (*HTTPRemote[struct{}])(nil)

func NewHTTPRemote[T any](client Client, endpoints Endpoints) *HTTPRemote[T] {
	return &HTTPRemote[T]{client: client, endpoints: endpoints}
}

func (r *HTTPRemote[T]) List(ctx context.Context, query url.Values) (*Page[T], error) {
	var page Page[T]
	if err := r.client.GetJSON(ctx, r.endpoints.List, query, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (r *HTTPRemote[T]) Retrieve(ctx context.Context, id int64) (*T, error) {
	out := new(T)
	if err := r.client.GetJSON(ctx, fmt.Sprintf(r.endpoints.Detail, id), nil, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *HTTPRemote[T]) Create(ctx context.Context, payload Payload) (*T, error) {
	if r.PrepareCreate != nil {
		payload = r.PrepareCreate(payload)
	}
	out := new(T)
	if err := r.client.PostJSON(ctx, r.endpoints.Create, payload, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *HTTPRemote[T]) Update(ctx context.Context, id int64, payload Payload) (*T, error) {
	if r.PrepareUpdate != nil {
		payload = r.PrepareUpdate(payload)
	}
	out := new(T)
	if err := r.client.PatchJSON(ctx, fmt.Sprintf(r.endpoints.Detail, id), payload, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *HTTPRemote[T]) Delete(ctx context.Context, id int64) error {
	return r.client.Delete(ctx, fmt.Sprintf(r.endpoints.Delete, id))
}
