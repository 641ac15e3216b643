package main

import (
	"encoding/json"
	"net/http"

	"github.com/anshumansinghneu/kyokushin-karate-india-sub004/internal/httputil"
	"github.com/anshumansinghneu/kyokushin-karate-india-sub004/internal/middleware"
	"github.com/anshumansinghneu/kyokushin-karate-india-sub004/internal/service"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

func urlID(w http.ResponseWriter, r *http.Request, key string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, key))
	if err != nil {
		httputil.BadRequest(w, "Invalid "+key, err)
		return uuid.Nil, false
	}
	return id, true
}

func newRouter(app *application) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.HandlerFor(app.registry, promhttp.HandlerOpts{}))

	r.Route("/events/{eventID}", func(r chi.Router) {
		r.Get("/categories", func(w http.ResponseWriter, r *http.Request) {
			eventID, ok := urlID(w, r, "eventID")
			if !ok {
				return
			}
			preview, err := app.categorization.Preview(r.Context(), eventID)
			if err != nil {
				httputil.Error(w, "Failed to preview categories", err)
				return
			}
			httputil.WriteJSON(w, http.StatusOK, preview)
		})

		r.Post("/brackets", func(w http.ResponseWriter, r *http.Request) {
			eventID, ok := urlID(w, r, "eventID")
			if !ok {
				return
			}
			summary, err := app.categorization.GenerateBrackets(r.Context(), eventID)
			if err != nil {
				httputil.Error(w, "Failed to generate brackets", err)
				return
			}
			httputil.WriteJSON(w, http.StatusCreated, summary)
		})

		r.Get("/brackets", func(w http.ResponseWriter, r *http.Request) {
			eventID, ok := urlID(w, r, "eventID")
			if !ok {
				return
			}
			brackets, err := app.tournaments.ListBrackets(r.Context(), eventID)
			if err != nil {
				httputil.Error(w, "Failed to list brackets", err)
				return
			}
			httputil.WriteJSON(w, http.StatusOK, brackets)
		})
	})

	r.Route("/brackets/{bracketID}", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			bracketID, ok := urlID(w, r, "bracketID")
			if !ok {
				return
			}
			data, err := app.tournaments.GetBracketData(r.Context(), bracketID)
			if err != nil {
				httputil.Error(w, "Failed to get bracket", err)
				return
			}
			httputil.WriteJSON(w, http.StatusOK, data)
		})

		r.Get("/results", func(w http.ResponseWriter, r *http.Request) {
			bracketID, ok := urlID(w, r, "bracketID")
			if !ok {
				return
			}
			results, err := app.results.GetResults(r.Context(), bracketID)
			if err != nil {
				httputil.Error(w, "Failed to get results", err)
				return
			}
			httputil.WriteJSON(w, http.StatusOK, results)
		})

		r.Post("/results/regenerate", func(w http.ResponseWriter, r *http.Request) {
			bracketID, ok := urlID(w, r, "bracketID")
			if !ok {
				return
			}
			results, err := app.results.Regenerate(r.Context(), bracketID)
			if err != nil {
				httputil.Error(w, "Failed to regenerate results", err)
				return
			}
			httputil.WriteJSON(w, http.StatusOK, results)
		})

		r.Get("/live", func(w http.ResponseWriter, r *http.Request) {
			bracketID, ok := urlID(w, r, "bracketID")
			if !ok {
				return
			}
			if _, err := app.tournaments.GetBracket(r.Context(), bracketID); err != nil {
				httputil.Error(w, "Failed to get bracket", err)
				return
			}
			conn, err := upgrader.Upgrade(w, r, nil)
			if err != nil {
				// Upgrade has already replied
				app.logger.Warn("websocket upgrade failed", "bracket_id", bracketID, "error", err)
				return
			}
			app.hub.Attach(conn, bracketID.String())
		})
	})

	r.Route("/matches/{matchID}", func(r chi.Router) {
		r.Use(middleware.RateLimit(app.scoreLimiter))

		r.Post("/start", func(w http.ResponseWriter, r *http.Request) {
			matchID, ok := urlID(w, r, "matchID")
			if !ok {
				return
			}
			match, err := app.matches.StartMatch(r.Context(), matchID)
			if err != nil {
				httputil.Error(w, "Failed to start match", err)
				return
			}
			httputil.WriteJSON(w, http.StatusOK, match)
		})

		r.Post("/outcome", func(w http.ResponseWriter, r *http.Request) {
			matchID, ok := urlID(w, r, "matchID")
			if !ok {
				return
			}
			var outcome service.Outcome
			if err := json.NewDecoder(r.Body).Decode(&outcome); err != nil {
				httputil.BadRequest(w, "Invalid outcome body", err)
				return
			}
			if outcome.WinnerID == uuid.Nil {
				httputil.BadRequest(w, "winner_id is required", nil)
				return
			}
			progress, err := app.matches.RecordOutcome(r.Context(), matchID, outcome)
			if err != nil {
				httputil.Error(w, "Failed to record outcome", err)
				return
			}
			httputil.WriteJSON(w, http.StatusOK, progress)
		})
	})

	return r
}
