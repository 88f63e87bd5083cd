package observability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("/chat", "POST", 200, time.Millisecond)
	m.RecordRequest("/chat", "POST", 200, time.Millisecond)
	m.RecordError("/chat", "POST", "UPSTREAM_FAILED")
	m.RecordEvent("session_rotated")

	snap := m.Snapshot()
	assert.Equal(t, int64(2), snap.Requests["/chat|POST|200"])
	assert.Equal(t, int64(1), snap.Errors["/chat|POST|UPSTREAM_FAILED"])
	assert.Equal(t, int64(1), snap.Events["session_rotated"])

	snap.Requests["/chat|POST|200"] = 99
	assert.Equal(t, int64(2), m.Snapshot().Requests["/chat|POST|200"])
}

func TestMetricsNilSafe(t *testing.T) {
	var m *Metrics
	m.RecordRequest("/", "GET", 200, 0)
	m.RecordError("/", "GET", "X")
	m.RecordEvent("x")
	assert.Empty(t, m.Snapshot().Requests)
}
