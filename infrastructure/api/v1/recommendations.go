// Package v1 implements the versioned JSON API for the recommendation
// picker.
package v1

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/cinemind/cinemind/application/service"
	"github.com/cinemind/cinemind/domain/movie"
	"github.com/cinemind/cinemind/domain/recommend"
	"github.com/cinemind/cinemind/infrastructure/api/middleware"
)

// maxChoices caps the blind option count a client may request.
const maxChoices = 20

// Router handles the picker endpoints.
type Router struct {
	recommender *service.Recommender
	choices     int
	logger      *slog.Logger
}

// NewRouter creates a Router over a recommender. choices is the option count
// served when the client does not ask for a specific one.
func NewRouter(recommender *service.Recommender, choices int, logger *slog.Logger) *Router {
	if choices <= 0 || choices > maxChoices {
		choices = recommend.DefaultLimit
	}
	return &Router{recommender: recommender, choices: choices, logger: logger}
}

// Routes returns the chi router for the picker endpoints.
func (rt *Router) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/choices", rt.Choices)
	router.Post("/recommendations", rt.Recommendations)
	router.Get("/movies/{id}", rt.Movie)

	return router
}

// Choices handles GET /api/v1/choices. It returns random blind options,
// synopsis only, for the user to pick from.
func (rt *Router) Choices(w http.ResponseWriter, r *http.Request) {
	n := rt.choices
	if raw := r.URL.Query().Get("n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > maxChoices {
			middleware.WriteError(w, r,
				middleware.NewAPIError(http.StatusBadRequest, "n must be between 1 and 20", err),
				rt.logger)
			return
		}
		n = parsed
	}

	choices := rt.recommender.Choices(n)
	middleware.WriteJSON(w, http.StatusOK, map[string]any{"choices": choices})
}

// recommendationRequest is the POST /api/v1/recommendations body.
type recommendationRequest struct {
	ChosenID *int `json:"chosen_id"`
	Limit    int  `json:"limit"`
}

// Recommendations handles POST /api/v1/recommendations. It reveals the
// chosen movie and returns ranked same-cluster recommendations.
func (rt *Router) Recommendations(w http.ResponseWriter, r *http.Request) {
	var body recommendationRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		middleware.WriteError(w, r,
			middleware.NewAPIError(http.StatusBadRequest, "invalid request body", err),
			rt.logger)
		return
	}
	if body.ChosenID == nil {
		middleware.WriteError(w, r,
			middleware.NewAPIError(http.StatusBadRequest, "chosen_id is required", nil),
			rt.logger)
		return
	}

	rec, err := rt.recommender.Recommend(r.Context(), *body.ChosenID, body.Limit)
	if err != nil {
		if errors.Is(err, movie.ErrNotFound) {
			middleware.WriteError(w, r,
				middleware.NewAPIError(http.StatusNotFound, "movie not found, request new choices and pick again", err),
				rt.logger)
			return
		}
		middleware.WriteError(w, r, err, rt.logger)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, rec)
}

// Movie handles GET /api/v1/movies/{id}.
func (rt *Router) Movie(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		middleware.WriteError(w, r,
			middleware.NewAPIError(http.StatusBadRequest, "id must be an integer", err),
			rt.logger)
		return
	}

	card, err := rt.recommender.Movie(r.Context(), id)
	if err != nil {
		if errors.Is(err, movie.ErrNotFound) {
			middleware.WriteError(w, r,
				middleware.NewAPIError(http.StatusNotFound, "movie not found", err),
				rt.logger)
			return
		}
		middleware.WriteError(w, r, err, rt.logger)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, card)
}
