package update

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func checker(url string) *Checker {
	c := NewChecker()
	c.BaseURL = url
	return c
}

func TestLatestUpdateAvailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/erik-smit/scrutinizer/releases/latest", r.URL.Path)
		_, _ = w.Write([]byte(`{"tag_name": "v1.4.0"}`))
	}))
	defer srv.Close()

	r, err := checker(srv.URL).Latest(context.Background(), "v1.3.2")
	require.NoError(t, err)
	assert.Equal(t, "v1.4.0", r.Latest)
	assert.True(t, r.NeedsUpdate())
	assert.Contains(t, r.UpdateCmd, "go install")
}

func TestLatestUpToDate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"tag_name": "v1.3.0"}`))
	}))
	defer srv.Close()

	r, err := checker(srv.URL).Latest(context.Background(), "1.3.0")
	require.NoError(t, err)
	assert.False(t, r.NeedsUpdate())

	r.Current = "1.10.0"
	assert.False(t, r.NeedsUpdate(), "semantic, not lexical, comparison")
}

func TestLatestRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"tag_name": "v2.0.0"}`))
	}))
	defer srv.Close()

	r, err := checker(srv.URL).Latest(context.Background(), "v1.0.0")
	require.NoError(t, err)
	assert.Equal(t, "v2.0.0", r.Latest)
	assert.Equal(t, int32(2), calls.Load())
}

func TestLatestNoReleaseIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := checker(srv.URL).Latest(context.Background(), "v1.0.0")
	require.ErrorIs(t, err, errNoRelease)
	assert.Equal(t, int32(1), calls.Load())
}

func TestLatestSkipsDevBuilds(t *testing.T) {
	r, err := checker("http://127.0.0.1:0").Latest(context.Background(), "dev")
	require.NoError(t, err)
	assert.Nil(t, r)
}

func TestNeedsUpdateUnparsable(t *testing.T) {
	assert.False(t, (&Result{Latest: "nightly", Current: "v1.0.0"}).NeedsUpdate())
}
