package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	logtest "github.com/sirupsen/logrus/hooks/test"

	"justapengu.in/bestlap/pkg/bestlap"
)

func newTestServer(t *testing.T) (*Server, *bestlap.Store) {
	t.Helper()

	logger, _ := logtest.NewNullLogger()
	store := bestlap.NewStore()

	return NewServer("127.0.0.1:0", store, logger), store
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))

	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()

	if err := json.NewDecoder(rr.Body).Decode(v); err != nil {
		t.Fatalf("could not decode response: %v (body: %s)", err, rr.Body.String())
	}
}

func TestBestLaps(t *testing.T) {
	t.Run("Empty table", func(t *testing.T) {
		server, _ := newTestServer(t)

		rr := get(t, server.Router(), "/api/best-laps")

		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}

		if body := strings.TrimSpace(rr.Body.String()); body != "[]" {
			t.Errorf("expected an empty array, got %s", body)
		}
	})

	t.Run("Sorted by lap time", func(t *testing.T) {
		server, store := newTestServer(t)

		store.TryUpdateAllTime("Bob", 95000)
		store.TryUpdateAllTime("Alice", 92345)
		store.TryUpdateAllTime("Carol", 125001)

		rr := get(t, server.Router(), "/api/best-laps")

		if contentType := rr.Header().Get("Content-Type"); contentType != "application/json" {
			t.Errorf("unexpected content type %s", contentType)
		}

		var laps []BestLap
		decode(t, rr, &laps)

		expected := []BestLap{
			{Name: "Alice", LapTimeMs: 92345, FormattedTime: "01:32.345"},
			{Name: "Bob", LapTimeMs: 95000, FormattedTime: "01:35.000"},
			{Name: "Carol", LapTimeMs: 125001, FormattedTime: "02:05.001"},
		}

		if len(laps) != len(expected) {
			t.Fatalf("expected %d laps, got %d", len(expected), len(laps))
		}

		for i, lap := range laps {
			if lap.Name != expected[i].Name || lap.LapTimeMs != expected[i].LapTimeMs || lap.FormattedTime != expected[i].FormattedTime {
				t.Errorf("position %d: expected %+v, got %+v", i, expected[i], lap)
			}

			if lap.UpdatedAt.IsZero() {
				t.Errorf("position %d: expected an update time", i)
			}
		}
	})
}

func TestBestLap(t *testing.T) {
	server, store := newTestServer(t)

	store.TryUpdateAllTime("Max Power", 80000)
	store.TryUpdateSession("Max Power", 81000)
	store.TryUpdateSession("Newcomer", 99000)

	t.Run("Both tables, case-insensitive", func(t *testing.T) {
		rr := get(t, server.Router(), "/api/best-laps/max%20POWER")

		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}

		var out DriverBestLaps
		decode(t, rr, &out)

		if out.AllTime == nil || out.AllTime.Name != "Max Power" || out.AllTime.LapTimeMs != 80000 {
			t.Errorf("unexpected all time entry %+v", out.AllTime)
		}

		if out.Session == nil || out.Session.LapTimeMs != 81000 {
			t.Errorf("unexpected session entry %+v", out.Session)
		}
	})

	t.Run("Session only", func(t *testing.T) {
		var out DriverBestLaps
		decode(t, get(t, server.Router(), "/api/best-laps/Newcomer"), &out)

		if out.AllTime != nil || out.Session == nil || out.Session.FormattedTime != "01:39.000" {
			t.Errorf("unexpected entries %+v", out)
		}
	})

	t.Run("Unknown driver", func(t *testing.T) {
		if rr := get(t, server.Router(), "/api/best-laps/nobody"); rr.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rr.Code)
		}
	})
}

func TestRouter(t *testing.T) {
	server, _ := newTestServer(t)

	t.Run("Metrics", func(t *testing.T) {
		rr := get(t, server.Router(), "/metrics")

		if rr.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", rr.Code)
		}
	})

	t.Run("Unknown path", func(t *testing.T) {
		if rr := get(t, server.Router(), "/api/unknown"); rr.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rr.Code)
		}
	})

	t.Run("Method not allowed", func(t *testing.T) {
		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/best-laps", nil))

		if rr.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", rr.Code)
		}
	})
}

func TestListenAndShutdown(t *testing.T) {
	server, _ := newTestServer(t)

	if err := server.Listen(); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		t.Error(err)
	}
}
