package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_RecordEntity(t *testing.T) {
	r := NewRecorder()
	r.RecordEntity("lab", "instance", "add", ResultSuccess)
	r.RecordEntity("lab", "instance", "add", ResultSuccess)
	r.RecordEntity("lab", "ha_group", "remove", ResultFailed)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.entityOps.WithLabelValues("lab", "instance", "add", ResultSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.entityOps.WithLabelValues("lab", "ha_group", "remove", ResultFailed)))
}

func TestRecorder_RecordRun(t *testing.T) {
	r := NewRecorder()
	r.RecordRun("lab", "apply", 3*time.Second, 2)
	r.RecordPhase("lab", "instance-add")

	assert.Equal(t, 2.0, testutil.ToFloat64(r.failedEntities.WithLabelValues("lab", "apply")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.phaseTotal.WithLabelValues("lab", "instance-add")))
	assert.Greater(t, testutil.ToFloat64(r.lastRun.WithLabelValues("lab", "apply")), 0.0)
	assert.Equal(t, 1, testutil.CollectAndCount(r.runDuration))
}

func TestRecorder_NilIsSafe(t *testing.T) {
	var r *Recorder
	r.RecordEntity("lab", "instance", "add", ResultSuccess)
	r.RecordRun("lab", "apply", time.Second, 0)
	r.RecordPhase("lab", "x")
	assert.Nil(t, r.Registry())
	assert.NoError(t, r.Push(context.Background(), "http://unused", "proxcli"))
}

func TestRecorder_Push(t *testing.T) {
	var gotPath, gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		gotPath = req.URL.Path
		body, _ := io.ReadAll(req.Body)
		gotBody = string(body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	r := NewRecorder()
	r.RecordEntity("lab", "instance", "add", ResultSuccess)

	require.NoError(t, r.Push(context.Background(), server.URL, "proxcli"))
	assert.Equal(t, "/metrics/job/proxcli", gotPath)
	assert.NotEmpty(t, gotBody)
}

func TestRecorder_PushError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	r := NewRecorder()
	err := r.Push(context.Background(), server.URL, "proxcli")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "failed to push metrics"))
}
