package bcb

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetSeries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/dados/serie/bcdata.sgs.12/dados", r.URL.Path)
		assert.Equal(t, "json", r.URL.Query().Get("formato"))
		assert.Equal(t, "01/01/2024", r.URL.Query().Get("dataInicial"))
		assert.Equal(t, "05/01/2024", r.URL.Query().Get("dataFinal"))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[
			{"data":"02/01/2024","valor":"11.65"},
			{"data":"03/01/2024","valor":"11.65"},
			{"data":"bogus","valor":"11.65"},
			{"data":"04/01/2024","valor":"not-a-number"},
			{"data":"05/01/2024","valor":"11.55"}
		]`)
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))

	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	points, err := client.GetSeries(context.Background(), SeriesCDI, from, to)
	require.NoError(t, err)

	// Unparseable rows are skipped, not fatal.
	require.Len(t, points, 3)
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), points[0].Date)
	assert.Equal(t, 11.65, points[0].Value)
	assert.Equal(t, 11.55, points[2].Value)
}

func TestGetSeriesServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))

	_, err := client.GetSeries(context.Background(), SeriesIPCA, time.Now().AddDate(0, -1, 0), time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SGS API error")
}

func TestGetSeriesEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[]`)
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))

	points, err := client.GetSeries(context.Background(), SeriesCDI, time.Now().AddDate(0, 0, -5), time.Now())
	require.NoError(t, err)
	assert.Empty(t, points)
}
