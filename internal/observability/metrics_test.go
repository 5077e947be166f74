package observability

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordSessionTransition(t *testing.T) {
	before := testutil.ToFloat64(getMetrics().sessionTransitions.WithLabelValues("completed"))
	RecordSessionTransition("completed")
	after := testutil.ToFloat64(getMetrics().sessionTransitions.WithLabelValues("completed"))
	assert.Equal(t, before+1, after)
}

func TestRecordProviderCall(t *testing.T) {
	before := testutil.ToFloat64(getMetrics().providerCallTotal.WithLabelValues("openai", "error"))
	RecordProviderCall("openai", 2*time.Second, false)
	after := testutil.ToFloat64(getMetrics().providerCallTotal.WithLabelValues("openai", "error"))
	assert.Equal(t, before+1, after)
}

func TestWriteTextfile(t *testing.T) {
	RecordSessionCreated()
	RecordDispatch("multi", "completed")

	path := filepath.Join(t.TempDir(), "nested", "oracle.prom")
	require.NoError(t, WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.True(t, strings.Contains(text, "oracle_sessions_created_total"))
	assert.True(t, strings.Contains(text, `oracle_dispatch_total{kind="multi",outcome="completed"}`))
}

func TestWriteTextfile_EmptyPath(t *testing.T) {
	assert.NoError(t, WriteTextfile(""))
}
