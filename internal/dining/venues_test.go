package dining_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neexbeast/dininguru/internal/dining"
	"github.com/neexbeast/dininguru/internal/venue"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func venuesHandler(t *testing.T, names ...string) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		venues := make([]venue.Venue, 0, len(names))
		for i, n := range names {
			venues = append(venues, venue.Venue{ID: i + 1, Name: n, Days: []venue.Day{}})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(venues)
	}
}

func failingHandler(status int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad", status)
	}
}

// countingServer wraps h and counts requests.
func countingServer(t *testing.T, h http.Handler) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var n atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n.Add(1)
		h.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, &n
}

func TestFetchVenues_PrimarySucceeds(t *testing.T) {
	primary, _ := countingServer(t, venuesHandler(t, "Hill House", "Falk"))
	backup, backupHits := countingServer(t, venuesHandler(t, "Backup"))

	src := dining.NewVenueSource(primary.URL, backup.URL, discardLogger())
	venues, err := src.FetchVenues(context.Background())
	require.NoError(t, err)
	require.Len(t, venues, 2)
	assert.Equal(t, "Hill House", venues[0].Name)
	assert.Zero(t, backupHits.Load(), "backup must not be touched when primary succeeds")
}

func TestFetchVenues_PrimaryStatusError_UsesBackup(t *testing.T) {
	primary, primaryHits := countingServer(t, failingHandler(http.StatusBadGateway))
	backup, backupHits := countingServer(t, venuesHandler(t, "Backup Hall"))

	src := dining.NewVenueSource(primary.URL, backup.URL, discardLogger())
	venues, err := src.FetchVenues(context.Background())
	require.NoError(t, err)
	require.Len(t, venues, 1)
	assert.Equal(t, "Backup Hall", venues[0].Name)
	assert.EqualValues(t, 1, primaryHits.Load(), "primary is tried exactly once")
	assert.EqualValues(t, 1, backupHits.Load())
}

func TestFetchVenues_PrimaryDecodeError_UsesBackup(t *testing.T) {
	primary, _ := countingServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"not": "a list"`))
	}))
	backup, _ := countingServer(t, venuesHandler(t, "Backup Hall"))

	src := dining.NewVenueSource(primary.URL, backup.URL, discardLogger())
	venues, err := src.FetchVenues(context.Background())
	require.NoError(t, err)
	require.Len(t, venues, 1)
}

func TestFetchVenues_PrimaryNull_UsesBackup(t *testing.T) {
	primary, _ := countingServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`null`))
	}))
	backup, backupHits := countingServer(t, venuesHandler(t, "Backup Hall"))

	src := dining.NewVenueSource(primary.URL, backup.URL, discardLogger())
	_, err := src.FetchVenues(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, backupHits.Load())
}

func TestFetchVenues_PrimaryUnreachable_UsesBackup(t *testing.T) {
	backup, _ := countingServer(t, venuesHandler(t, "Backup Hall"))

	src := dining.NewVenueSource("http://127.0.0.1:1", backup.URL, discardLogger())
	venues, err := src.FetchVenues(context.Background())
	require.NoError(t, err)
	require.Len(t, venues, 1)
}

func TestFetchVenues_BothFail(t *testing.T) {
	primary, _ := countingServer(t, failingHandler(http.StatusInternalServerError))
	backup, backupHits := countingServer(t, failingHandler(http.StatusNotFound))

	src := dining.NewVenueSource(primary.URL, backup.URL, discardLogger())
	_, err := src.FetchVenues(context.Background())
	require.Error(t, err)
	assert.EqualValues(t, 1, backupHits.Load(), "backup is tried exactly once")

	var statusErr *dining.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode, "the final error is the backup's")
}

func TestFetchVenues_EmptyListIsValid(t *testing.T) {
	primary, _ := countingServer(t, venuesHandler(t))
	backup, backupHits := countingServer(t, venuesHandler(t, "Backup"))

	src := dining.NewVenueSource(primary.URL, backup.URL, discardLogger())
	venues, err := src.FetchVenues(context.Background())
	require.NoError(t, err)
	assert.Empty(t, venues)
	assert.Zero(t, backupHits.Load())
}

func TestFetchVenues_Timeout(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	defer slow.Close()

	src := dining.NewVenueSource(slow.URL, slow.URL, discardLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := src.FetchVenues(ctx)
	require.Error(t, err)
}

func TestFetchListing_ReportsSource(t *testing.T) {
	var primaryUp atomic.Bool
	primary, _ := countingServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !primaryUp.Load() {
			failingHandler(http.StatusInternalServerError)(w, r)
			return
		}
		venuesHandler(t, "Live Hall")(w, r)
	}))
	backup, _ := countingServer(t, venuesHandler(t, "Backup Hall"))
	src := dining.NewVenueSource(primary.URL, backup.URL, discardLogger())

	venues, fromBackup, err := src.FetchListing(context.Background())
	require.NoError(t, err)
	assert.True(t, fromBackup)
	assert.Equal(t, "Backup Hall", venues[0].Name)

	primaryUp.Store(true)
	venues, fromBackup, err = src.FetchListing(context.Background())
	require.NoError(t, err)
	assert.False(t, fromBackup)
	assert.Equal(t, "Live Hall", venues[0].Name)
}
