package server

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/statusdeck/statusdeck/internal/models"
	"github.com/statusdeck/statusdeck/internal/status"
	"github.com/statusdeck/statusdeck/internal/store"
	"github.com/statusdeck/statusdeck/internal/store/memory"
)

func newTestServer(t *testing.T) (store.Directory, *httptest.Server) {
	t.Helper()

	dir := memory.NewDirectory().Stores()
	srv := New(dir, nil)
	t.Cleanup(srv.Close)

	ts := httptest.NewServer(srv.Handler(zerolog.Nop(), []string{"*"}))
	t.Cleanup(ts.Close)

	return dir, ts
}

func seedOrg(t *testing.T, dir store.Directory) *models.Organization {
	t.Helper()

	ctx := context.Background()
	org := &models.Organization{Name: "Acme", OwnerID: "u1", Members: []string{"u1"}}
	require.NoError(t, dir.Accounts.CreateAccount(ctx, org, &models.UserProfile{
		UID: "u1", Email: "jane@acme.com", DisplayName: "Jane",
	}))

	return org
}

func TestHealth(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestGetStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown organization is 404 with error envelope", func(t *testing.T) {
		_, ts := newTestServer(t)

		resp, err := http.Get(ts.URL + "/api/v1/status/missing")
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusNotFound, resp.StatusCode)

		var body struct {
			Error struct {
				Code string `json:"code"`
			} `json:"error"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		require.Equal(t, "NOT_FOUND", body.Error.Code)
	})

	t.Run("snapshot carries derived status and partitions", func(t *testing.T) {
		dir, ts := newTestServer(t)
		org := seedOrg(t, dir)

		require.NoError(t, dir.Services.Create(ctx, org.ID, &models.Service{Name: "API", Status: models.StatusMajor}))
		require.NoError(t, dir.Services.Create(ctx, org.ID, &models.Service{Name: "Web", Status: models.StatusOperational}))

		active := &models.Incident{Title: "API down", Status: models.IncidentInvestigating, Impact: models.ImpactCritical}
		require.NoError(t, dir.Incidents.Create(ctx, org.ID, active))

		resolved := &models.Incident{Title: "Old incident", Status: models.IncidentResolved, Impact: models.ImpactMinor}
		require.NoError(t, dir.Incidents.Create(ctx, org.ID, resolved))

		resp, err := http.Get(ts.URL + "/api/v1/status/" + org.ID)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var page statusPayload
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&page))
		require.Equal(t, "Acme", page.Organization.Name)
		require.Equal(t, string(models.StatusMajor), page.OverallStatus)
		require.Len(t, page.Services, 2)
		require.Len(t, page.ActiveIncidents, 1)
		require.Len(t, page.ResolvedIncidents, 1)
		require.Equal(t, "API down", page.ActiveIncidents[0].Title)
	})

	t.Run("empty organization reports unknown status", func(t *testing.T) {
		dir, ts := newTestServer(t)
		org := seedOrg(t, dir)

		resp, err := http.Get(ts.URL + "/api/v1/status/" + org.ID)
		require.NoError(t, err)
		defer resp.Body.Close()

		var page statusPayload
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&page))
		require.Equal(t, status.Unknown, page.OverallStatus)
	})
}

func TestStreamStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("stream delivers the initial snapshot and live changes", func(t *testing.T) {
		dir, ts := newTestServer(t)
		org := seedOrg(t, dir)

		require.NoError(t, dir.Services.Create(ctx, org.ID, &models.Service{Name: "API", Status: models.StatusOperational}))

		reqCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, ts.URL+"/api/v1/status/"+org.ID+"/stream", nil)
		require.NoError(t, err)

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

		scanner := bufio.NewScanner(resp.Body)

		first := readStatusEvent(t, scanner)
		require.Equal(t, status.AllOperational, first.OverallStatus)

		// A write lands as a fresh snapshot on the open stream.
		require.NoError(t, dir.Services.Create(ctx, org.ID, &models.Service{Name: "Web", Status: models.StatusMajor}))

		for {
			next := readStatusEvent(t, scanner)
			if len(next.Services) == 2 {
				require.Equal(t, string(models.StatusMajor), next.OverallStatus)
				break
			}
		}
	})

	t.Run("stream for unknown organization is 404", func(t *testing.T) {
		_, ts := newTestServer(t)

		resp, err := http.Get(ts.URL + "/api/v1/status/missing/stream")
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

// readStatusEvent scans one status event frame off an SSE stream.
func readStatusEvent(t *testing.T, scanner *bufio.Scanner) *statusPayload {
	t.Helper()

	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}

		var page statusPayload
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &page))
		return &page
	}

	t.Fatalf("stream ended before a status event arrived: %v", scanner.Err())
	return nil
}

func TestDashboardRequiresAuth(t *testing.T) {
	_, ts := newTestServer(t)

	for _, route := range []string{
		"/api/v1/profile",
		"/api/v1/services",
		"/api/v1/incidents",
		"/api/v1/team",
	} {
		resp, err := http.Get(ts.URL + route)
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode, route)
	}
}
