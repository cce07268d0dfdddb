// Package applications is the client cache of the user's program applications.
package applications

import (
	"time"
)

const (
	StatusDraft      = "Draft"
	StatusInProgress = "In Progress"
	StatusSubmitted  = "Submitted"
	StatusInterview  = "Interview"
	StatusAccepted   = "Accepted"
	StatusRejected   = "Rejected"
)

var Statuses = []string{StatusDraft, StatusInProgress, StatusSubmitted, StatusInterview, StatusAccepted, StatusRejected}

var DegreeTypes = []string{"Associate", "Bachelor", "Master", "PhD", "Certificate", "Diploma", "Other"}

// Application is one program application. List responses carry a subset of
// the fields; the detail endpoint fills in the rest.
type Application struct {
	ID                 int64     `json:"id" yaml:"id"`
	Institution        string    `json:"institution,omitempty" yaml:"institution,omitempty"`
	InstitutionName    string    `json:"institution_name,omitempty" yaml:"institution_name,omitempty"`
	InstitutionCountry string    `json:"institution_country,omitempty" yaml:"institution_country,omitempty"`
	ProgramName        string    `json:"program_name" yaml:"program_name"`
	DegreeType         string    `json:"degree_type" yaml:"degree_type"`
	Department         string    `json:"department,omitempty" yaml:"department,omitempty"`
	DurationYears      string    `json:"duration_years,omitempty" yaml:"duration_years,omitempty"`
	TuitionFee         string    `json:"tuition_fee,omitempty" yaml:"tuition_fee,omitempty"`
	ApplicationLink    string    `json:"application_link,omitempty" yaml:"application_link,omitempty"`
	ScholarshipLink    string    `json:"scholarship_link,omitempty" yaml:"scholarship_link,omitempty"`
	ProgramInfoLink    string    `json:"program_info_link,omitempty" yaml:"program_info_link,omitempty"`
	Status             string    `json:"status" yaml:"status"`
	StartDate          string    `json:"start_date,omitempty" yaml:"start_date,omitempty"`
	SubmittedDate      string    `json:"submitted_date,omitempty" yaml:"submitted_date,omitempty"`
	DecisionDate       string    `json:"decision_date,omitempty" yaml:"decision_date,omitempty"`
	Notes              string    `json:"notes,omitempty" yaml:"notes,omitempty"`
	CreatedAt          time.Time `json:"created_at,omitzero" yaml:"created_at,omitempty"`
	UpdatedAt          time.Time `json:"updated_at,omitzero" yaml:"updated_at,omitempty"`
}
