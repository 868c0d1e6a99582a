package facility_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"sort"
	"testing"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/h2operator/h2operator-backend/internal/db"
	"github.com/h2operator/h2operator-backend/internal/facility"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// datasetAvailable is set when DATABASE_URL points at a loaded SDWIS dataset.
var datasetAvailable bool

var testServer *httptest.Server

func TestMain(m *testing.M) {
	// Load .env.local from the repository root (two directories up).
	_ = godotenv.Load("../../.env.local")

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		os.Exit(m.Run())
	}

	db.Connect(databaseURL, "warn")
	datasetAvailable = true

	store := facility.Init(db.DB)

	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Route("/api", facility.NewHandler(store, nil).Routes)

	testServer = httptest.NewServer(r)
	code := m.Run()
	testServer.Close()
	os.Exit(code)
}

func skipIfNoDataset(t *testing.T) {
	t.Helper()
	if !datasetAvailable {
		t.Skip("DATABASE_URL not set, skipping dataset integration test")
	}
}

func TestDataset_SearchIsBoundedSortedAndActive(t *testing.T) {
	skipIfNoDataset(t)

	resp, err := http.Get(testServer.URL + "/api/search?q=water")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Results []facility.WaterSystem `json:"results"`
		Count   int                    `json:"count"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))

	assert.LessOrEqual(t, body.Count, facility.SearchLimit)
	assert.Equal(t, len(body.Results), body.Count)

	names := make([]string, 0, len(body.Results))
	for _, ws := range body.Results {
		assert.Equal(t, facility.ActivityActive, ws.ActivityCode)
		names = append(names, ws.Name)
	}
	assert.True(t, sort.StringsAreSorted(names), "results are ordered by name")
}

func TestDataset_TopViolatorsAreRanked(t *testing.T) {
	skipIfNoDataset(t)

	resp, err := http.Get(testServer.URL + "/api/top-violators")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Results []facility.Violator `json:"results"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.LessOrEqual(t, len(body.Results), facility.TopViolatorsLimit)

	for i := 1; i < len(body.Results); i++ {
		assert.GreaterOrEqual(t, body.Results[i-1].ViolationCount, body.Results[i].ViolationCount)
	}
}

func TestDataset_UnknownFacilityIs404(t *testing.T) {
	skipIfNoDataset(t)

	resp, err := http.Get(testServer.URL + "/api/facility/ZZ_NOT_A_PWSID")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
