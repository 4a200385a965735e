package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/morpheusmaps/backend/internal/domain"
)

func newTestNominatim(t *testing.T, handler http.HandlerFunc) (*NominatimGeocoder, *int32) {
	t.Helper()
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	g := NewNominatimGeocoder(NominatimOptions{
		BaseURL:   srv.URL,
		UserAgent: "morpheus-test",
		RPS:       1000,
		CacheTTL:  time.Minute,
		Timeout:   time.Second,
	}, nil, nopLogger())
	return g, &hits
}

func TestParseCoordinateLiteral(t *testing.T) {
	tests := []struct {
		in   string
		want domain.Coordinate
		ok   bool
	}{
		{"26.9124,75.7873", jaipur, true},
		{" 26.9124 , 75.7873 ", jaipur, true},
		{"91,0", domain.Coordinate{}, false},
		{"Jaipur", domain.Coordinate{}, false},
		{"1,2,3", domain.Coordinate{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseCoordinateLiteral(tt.in)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestNominatimGeocoder_GeocodeCachesResults(t *testing.T) {
	g, hits := newTestNominatim(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "Jaipur", r.URL.Query().Get("q"))
		assert.Equal(t, "morpheus-test", r.Header.Get("User-Agent"))
		w.Write([]byte(`[{"lat":"26.9124","lon":"75.7873","display_name":"Jaipur, Rajasthan"}]`))
	})

	ctx := context.Background()
	c, err := g.Geocode(ctx, "Jaipur")
	require.NoError(t, err)
	assert.Equal(t, jaipur, c)

	again, err := g.Geocode(ctx, "jaipur")
	require.NoError(t, err)
	assert.Equal(t, jaipur, again)
	assert.Equal(t, int32(1), atomic.LoadInt32(hits))
}

func TestNominatimGeocoder_SharedLookupSurvivesCancelledCaller(t *testing.T) {
	entered := make(chan struct{}, 2)
	release := make(chan struct{})
	g, hits := newTestNominatim(t, func(w http.ResponseWriter, r *http.Request) {
		entered <- struct{}{}
		<-release
		w.Write([]byte(`[{"lat":"26.9124","lon":"75.7873"}]`))
	})
	defer func() {
		select {
		case <-release:
		default:
			close(release)
		}
	}()

	first, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := g.Geocode(first, "Jaipur")
		firstErr <- err
	}()
	<-entered

	type result struct {
		c   domain.Coordinate
		err error
	}
	second := make(chan result, 1)
	go func() {
		c, err := g.Geocode(context.Background(), "Jaipur")
		second <- result{c, err}
	}()
	// let the second caller join the in-flight lookup
	time.Sleep(50 * time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-firstErr, context.Canceled)

	close(release)
	got := <-second
	require.NoError(t, got.err)
	assert.Equal(t, jaipur, got.c)
	assert.Equal(t, int32(1), atomic.LoadInt32(hits))
}

func TestNominatimGeocoder_LiteralSkipsProvider(t *testing.T) {
	g, hits := newTestNominatim(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("provider must not be called for coordinate input")
	})

	c, err := g.Geocode(context.Background(), "26.4499, 74.6399")
	require.NoError(t, err)
	assert.Equal(t, ajmer, c)
	assert.Zero(t, atomic.LoadInt32(hits))
}

func TestNominatimGeocoder_Errors(t *testing.T) {
	g, _ := newTestNominatim(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})
	ctx := context.Background()

	_, err := g.Geocode(ctx, "   ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = g.Geocode(ctx, "Atlantis")
	assert.ErrorIs(t, err, domain.ErrGeocodeNotFound)
}

func TestNominatimGeocoder_ServerError(t *testing.T) {
	g, _ := newTestNominatim(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := g.Geocode(context.Background(), "Jaipur")
	assert.Error(t, err)
}

func TestNominatimGeocoder_Reverse(t *testing.T) {
	g, _ := newTestNominatim(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/reverse", r.URL.Path)
		assert.Equal(t, "18", r.URL.Query().Get("zoom"))
		assert.Equal(t, "26.912400", r.URL.Query().Get("lat"))
		w.Write([]byte(`{"display_name":"MI Road, Jaipur"}`))
	})

	address, err := g.Reverse(context.Background(), jaipur)
	require.NoError(t, err)
	assert.Equal(t, "MI Road, Jaipur", address)

	_, err = g.Reverse(context.Background(), domain.Coordinate{Lat: 100})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
