package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"justapengu.in/bestlap/internal/acserver"
	"justapengu.in/bestlap/pkg/bestlap"
)

// Server is a read-only view of the best lap tables over HTTP.
type Server struct {
	server *http.Server
	logger acserver.Logger

	address string
	store   *bestlap.Store
}

func NewServer(address string, store *bestlap.Store, logger acserver.Logger) *Server {
	return &Server{
		address: address,
		store:   store,
		logger:  logger,
	}
}

func (s *Server) Listen() error {
	s.logger.Infof("HTTP server listening on: %s", s.address)

	s.server = &http.Server{
		Handler:      s.Router(),
		Addr:         s.address,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		err := s.server.ListenAndServe()

		if err == http.ErrServerClosed {
			return
		} else if err != nil {
			s.logger.WithError(err).Errorf("Could not start HTTP server")
		}
	}()

	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}

	return s.server.Shutdown(ctx)
}

func (s *Server) Router() http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)

	router.Get("/api/best-laps", s.BestLaps)
	router.Get("/api/best-laps/{name}", s.BestLap)
	router.Method(http.MethodGet, "/metrics", promhttp.Handler())

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.logger.Debugf("Could not find HTTP response for URL: %s", r.URL.String())

		http.NotFound(w, r)
	})

	return router
}

type BestLap struct {
	Name          string    `json:"name"`
	LapTimeMs     uint32    `json:"lapTimeMs"`
	FormattedTime string    `json:"formattedTime"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func newBestLap(entry bestlap.Entry) *BestLap {
	return &BestLap{
		Name:          entry.Name,
		LapTimeMs:     entry.LapTimeMs,
		FormattedTime: bestlap.FormatLapTime(entry.LapTimeMs),
		UpdatedAt:     entry.UpdatedAt,
	}
}

func (s *Server) BestLaps(w http.ResponseWriter, r *http.Request) {
	entries := s.store.Snapshot()

	laps := make([]*BestLap, 0, len(entries))

	for _, entry := range entries {
		laps = append(laps, newBestLap(entry))
	}

	s.writeJSON(w, r, http.StatusOK, laps)
}

// DriverBestLaps is a single driver's entry in each table. Either may be nil.
type DriverBestLaps struct {
	AllTime *BestLap `json:"allTime"`
	Session *BestLap `json:"session"`
}

func (s *Server) BestLap(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var out DriverBestLaps

	if entry, ok := s.store.AllTime(name); ok {
		out.AllTime = newBestLap(entry)
	}

	if entry, ok := s.store.SessionBest(name); ok {
		out.Session = newBestLap(entry)
	}

	if out.AllTime == nil && out.Session == nil {
		http.NotFound(w, r)
		return
	}

	s.writeJSON(w, r, http.StatusOK, out)
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.WithError(err).WithField("request_id", middleware.GetReqID(r.Context())).Error("Could not encode response")
	}
}
