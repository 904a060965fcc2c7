package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.Upload("ok")
	m.Upload("ok")
	m.Upload("bad_document")
	m.Question("ok")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.uploads.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.uploads.WithLabelValues("bad_document")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.questions.WithLabelValues("ok")))
}

func TestMetrics_IndexChunks(t *testing.T) {
	m := New()
	m.IndexChunks(42)
	assert.Equal(t, 42.0, testutil.ToFloat64(m.indexChunks))
}

func TestMetrics_Stage(t *testing.T) {
	m := New()
	done := m.Stage("extract")
	done()

	n, err := testutil.GatherAndCount(m.Registry, "pdfqa_stage_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
