package catalogclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCities(t *testing.T) {
	t.Run("should decode the city list", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/cities", r.URL.Path)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"cities":[{"name":"Delhi","base_rate":542.82,"anchor":{"lat":28.6,"lng":77.2},
				"hotspots":[{"id":"d1","name":"Station","position":{"lat":28.61,"lng":77.21},"density":400}]}]}`))
		}))
		defer srv.Close()

		records, err := NewHTTPCatalogClient(srv.URL+"/", time.Second).LoadCities(context.Background())
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "Delhi", records[0].Name)
		assert.Equal(t, 542.82, records[0].BaseRate)
		assert.Nil(t, records[0].HourFactors)
		require.Len(t, records[0].Hotspots, 1)
		assert.Equal(t, 400.0, records[0].Hotspots[0].Density)
	})

	t.Run("should fail on non-200", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		_, err := NewHTTPCatalogClient(srv.URL, time.Second).LoadCities(context.Background())
		assert.ErrorContains(t, err, "502")
	})

	t.Run("should fail on an empty catalog", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"cities":[]}`))
		}))
		defer srv.Close()

		_, err := NewHTTPCatalogClient(srv.URL, time.Second).LoadCities(context.Background())
		assert.Error(t, err)
	})
}
