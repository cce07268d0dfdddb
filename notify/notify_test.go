package notify_test

import (
	"testing"

	"github.com/jrsteele09/go-schooltracker-client/notify"
	"github.com/stretchr/testify/require"
)

func TestRecorder(t *testing.T) {
	inner := notify.NewRecorder(nil)
	r := notify.NewRecorder(inner)

	r.Success("Application created successfully")
	r.Error("Failed to load documents")

	require.Equal(t, []string{"Application created successfully"}, r.Successes())
	require.Equal(t, []string{"Failed to load documents"}, r.Errors())
	require.Equal(t, r.Messages(), inner.Messages())

	r.Reset()
	require.Empty(t, r.Messages())
	require.Len(t, inner.Messages(), 2)
}
