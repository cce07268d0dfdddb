package applications

import (
	"fmt"
	"strings"
	"time"

	"github.com/jrsteele09/go-schooltracker-client/syncstore"
)

// createFields are the only keys the create endpoint accepts.
var createFields = []string{
	"institution",
	"program_name",
	"degree_type",
	"department",
	"duration_years",
	"tuition_fee",
	"application_link",
	"scholarship_link",
	"program_info_link",
	"status",
	"start_date",
	"submitted_date",
	"decision_date",
	"notes",
}

var dateFields = []string{"start_date", "submitted_date", "decision_date"}

var dateLayouts = []string{
	time.DateOnly,
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"01/02/2006",
	"Jan 2, 2006",
	"January 2, 2006",
}

// PrepareCreate copies institution_id into institution when needed and drops
// every key the create endpoint does not expect.
func PrepareCreate(in syncstore.Payload) syncstore.Payload {
	out := make(syncstore.Payload, len(createFields))
	for _, k := range createFields {
		if v, ok := in[k]; ok {
			out[k] = v
		}
	}
	if isEmpty(out["institution"]) && !isEmpty(in["institution_id"]) {
		out["institution"] = in["institution_id"]
	}
	return out
}

// PrepareUpdate rewrites date fields as YYYY-MM-DD. Values that do not parse
// are sent unchanged.
func PrepareUpdate(in syncstore.Payload) syncstore.Payload {
	out := make(syncstore.Payload, len(in))
	for k, v := range in {
		out[k] = v
	}
	for _, k := range dateFields {
		if v, ok := out[k]; ok && !isEmpty(v) {
			if d, ok := NormalizeDate(v); ok {
				out[k] = d
			}
		}
	}
	return out
}

// NormalizeDate formats a date given as a string or time.Time as YYYY-MM-DD
// in UTC.
func NormalizeDate(v any) (string, bool) {
	switch d := v.(type) {
	case time.Time:
		if d.IsZero() {
			return "", false
		}
		return d.UTC().Format(time.DateOnly), true
	case *time.Time:
		if d == nil {
			return "", false
		}
		return NormalizeDate(*d)
	case string:
		s := strings.TrimSpace(d)
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC().Format(time.DateOnly), true
			}
		}
	}
	return "", false
}

func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	return strings.TrimSpace(fmt.Sprint(v)) == ""
}
