// Package events is the client cache of calendar events attached to
// applications.
package events

import (
	"strconv"
	"time"
)

const (
	ColorDanger  = "danger"
	ColorSuccess = "success"
	ColorPrimary = "primary"
	ColorWarning = "warning"
)

var Colors = []string{ColorDanger, ColorSuccess, ColorPrimary, ColorWarning}

type Event struct {
	ID          int64     `json:"id" yaml:"id"`
	Application int64     `json:"application" yaml:"application"`
	EventTitle  string    `json:"event_title" yaml:"event_title"`
	EventColor  string    `json:"event_color" yaml:"event_color"`
	EventDate   string    `json:"event_date" yaml:"event_date"` // YYYY-MM-DD
	Notes       string    `json:"notes,omitempty" yaml:"notes,omitempty"`
	CreatedAt   time.Time `json:"created_at,omitzero" yaml:"created_at,omitempty"`
	UpdatedAt   time.Time `json:"updated_at,omitzero" yaml:"updated_at,omitempty"`
}

func (e *Event) applicationKey() string {
	return strconv.FormatInt(e.Application, 10)
}

// Date parses EventDate; ok is false when it is not a YYYY-MM-DD date.
func (e *Event) Date() (time.Time, bool) {
	t, err := time.Parse(time.DateOnly, e.EventDate)
	return t, err == nil
}
