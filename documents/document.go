// Package documents is the client cache of uploaded documents.
package documents

import (
	"strconv"
	"time"
)

const (
	TypeTranscript     = "Transcript"
	TypeEssay          = "Essay"
	TypeCV             = "CV"
	TypeRecommendation = "Recommendation Letter"
	TypeOther          = "Other"

	// All is the ByCategory key holding every document.
	All = "All"
)

var Types = []string{TypeTranscript, TypeEssay, TypeCV, TypeRecommendation, TypeOther}

type Document struct {
	ID            int64     `json:"id" yaml:"id"`
	DocumentType  string    `json:"document_type" yaml:"document_type"`
	FileName      string    `json:"file_name" yaml:"file_name"`
	FileURL       string    `json:"file_url,omitempty" yaml:"file_url,omitempty"`
	UploadedAt    time.Time `json:"uploaded_at,omitzero" yaml:"uploaded_at,omitempty"`
	ApplicationID *int64    `json:"application_id,omitempty" yaml:"application_id,omitempty"`
	Application   *int64    `json:"application,omitempty" yaml:"application,omitempty"`
}

// ApplicationKey returns the owning application id as a string, or "" when
// the document is not attached to one. List and detail responses name the
// field differently.
func (d *Document) ApplicationKey() string {
	switch {
	case d.ApplicationID != nil:
		return strconv.FormatInt(*d.ApplicationID, 10)
	case d.Application != nil:
		return strconv.FormatInt(*d.Application, 10)
	}
	return ""
}
