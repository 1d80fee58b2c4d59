package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/pbaille/portfolio/internal/catalog"
	"github.com/pbaille/portfolio/internal/domain"
	"github.com/pbaille/portfolio/internal/facet"
)

// Client-facing error messages
const (
	msgMissingQuery  = "Provide either slug or tags query parameter."
	msgNotFound      = "Project not found."
	msgNoTagMatch    = "No project with the given tags."
	msgBadLimit      = "limit must be a non-negative integer."
	msgUnavailable   = "Project catalog is unavailable."
	msgInternalError = "Internal server error."
)

// ProjectsResponse is the body of GET /projects
type ProjectsResponse struct {
	Items []domain.Project `json:"items"`
	Tags  []string         `json:"tags"`
}

// SuggestResponse is the body of GET /projects/suggest
type SuggestResponse struct {
	Suggestions []string `json:"suggestions"`
}

// ServicesResponse is the body of GET /services
type ServicesResponse struct {
	Items []domain.Service `json:"items"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (s *Server) listProjects(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		s.fail(w, r, err, msgBadLimit)
		return
	}

	cat, err := s.source.Load(r.Context())
	if err != nil {
		s.fail(w, r, err, "")
		return
	}

	items, tags := cat.GetAll()
	if r.URL.Query().Get("featured") == "true" {
		items = cat.Featured()
	}
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	if items == nil {
		items = []domain.Project{}
	}

	writeJSON(w, http.StatusOK, ProjectsResponse{Items: items, Tags: tags})
}

func (s *Server) getProject(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	slug := q.Get("slug")
	if slug == "" && !q.Has("tags") {
		writeError(w, http.StatusBadRequest, msgMissingQuery)
		return
	}

	cat, err := s.source.Load(r.Context())
	if err != nil {
		s.fail(w, r, err, "")
		return
	}

	var project domain.Project
	if slug != "" {
		project, err = cat.GetBySlug(slug)
		if err != nil {
			s.fail(w, r, err, msgNotFound)
			return
		}
	} else {
		project, err = cat.FindByTags(catalog.ParseTagList(q.Get("tags")))
		if errors.Is(err, catalog.ErrInvalidQuery) {
			writeError(w, http.StatusBadRequest, msgMissingQuery)
			return
		}
		if err != nil {
			s.fail(w, r, err, msgNoTagMatch)
			return
		}
	}

	writeJSON(w, http.StatusOK, project)
}

func (s *Server) facets(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		s.fail(w, r, err, msgBadLimit)
		return
	}

	cat, err := s.source.Load(r.Context())
	if err != nil {
		s.fail(w, r, err, "")
		return
	}

	sel := facet.NewSelection(catalog.ParseTagList(r.URL.Query().Get("selected"))...)
	items, tags := cat.GetAll()
	writeJSON(w, http.StatusOK, facet.Build(items, tags, sel, limit))
}

func (s *Server) suggest(w http.ResponseWriter, r *http.Request) {
	cat, err := s.source.Load(r.Context())
	if err != nil {
		s.fail(w, r, err, "")
		return
	}

	q := r.URL.Query()
	sel := facet.NewSelection(catalog.ParseTagList(q.Get("selected"))...)
	items, tags := cat.GetAll()
	writeJSON(w, http.StatusOK, SuggestResponse{
		Suggestions: facet.Suggest(items, tags, sel, q.Get("q")),
	})
}

func (s *Server) nextProject(w http.ResponseWriter, r *http.Request) {
	cat, err := s.source.Load(r.Context())
	if err != nil {
		s.fail(w, r, err, "")
		return
	}

	project, err := cat.Next(r.PathValue("slug"))
	if err != nil {
		s.fail(w, r, err, msgNotFound)
		return
	}

	writeJSON(w, http.StatusOK, project)
}

func (s *Server) listServices(w http.ResponseWriter, r *http.Request) {
	cat, err := s.source.Load(r.Context())
	if err != nil {
		s.fail(w, r, err, "")
		return
	}

	writeJSON(w, http.StatusOK, ServicesResponse{Items: cat.Services()})
}

// fail maps err onto a status code. message is used for not-found and
// invalid-query errors.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error, message string) {
	fields := []zap.Field{zap.String("path", r.URL.Path), zap.Error(err)}

	switch {
	case errors.Is(err, catalog.ErrNotFound):
		s.logger.Debug("Lookup missed", fields...)
		writeError(w, http.StatusNotFound, message)
	case errors.Is(err, catalog.ErrInvalidQuery):
		s.logger.Debug("Rejected query", fields...)
		writeError(w, http.StatusBadRequest, message)
	case errors.Is(err, catalog.ErrSourceUnavailable):
		s.logger.Warn("Catalog source unavailable", fields...)
		writeError(w, http.StatusServiceUnavailable, msgUnavailable)
	default:
		s.logger.Error("Request failed", fields...)
		writeError(w, http.StatusInternalServerError, msgInternalError)
	}
}

func parseLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("limit %q: %w", raw, catalog.ErrInvalidQuery)
	}
	return n, nil
}
