package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/forgeevents/eventcatalog/internal/catalog"
	"github.com/forgeevents/eventcatalog/internal/release"
)

type handlers struct {
	store  Store
	logger *zap.Logger
}

// ReleaseSummary is one entry of GET /releases
type ReleaseSummary struct {
	Release       string `json:"release"`
	ForgeVersion  string `json:"forgeVersion"`
	Previous      string `json:"previous,omitempty"`
	HasProduction bool   `json:"production"`
}

func (h *handlers) listReleases(w http.ResponseWriter, r *http.Request) {
	infos, err := h.store.Releases(r.Context())
	if err != nil {
		h.internalError(w, r, err)
		return
	}

	byID := make(map[string]catalog.ReleaseInfo, len(infos))
	ids := make([]string, 0, len(infos))
	for _, info := range infos {
		byID[info.Release] = info
		ids = append(ids, info.Release)
	}
	sorted, err := release.SortAscending(ids)
	if err != nil {
		h.internalError(w, r, err)
		return
	}

	summaries := make([]ReleaseSummary, 0, len(sorted))
	for i, id := range sorted {
		hasProduction, err := h.store.HasProduction(r.Context(), id)
		if err != nil {
			h.internalError(w, r, err)
			return
		}
		summary := ReleaseSummary{
			Release:       id,
			ForgeVersion:  byID[id].ForgeVersion,
			HasProduction: hasProduction,
		}
		if i > 0 {
			summary.Previous = sorted[i-1]
		}
		summaries = append(summaries, summary)
	}

	renderJSON(w, http.StatusOK, summaries)
}

func (h *handlers) listEvents(w http.ResponseWriter, r *http.Request) {
	records, ok := h.records(w, r)
	if !ok {
		return
	}
	if records == nil {
		records = []catalog.EventRecord{}
	}
	renderJSON(w, http.StatusOK, records)
}

func (h *handlers) getEvent(w http.ResponseWriter, r *http.Request) {
	records, ok := h.records(w, r)
	if !ok {
		return
	}

	name := chi.URLParam(r, "name")
	for i := range records {
		if records[i].Name == name {
			renderJSON(w, http.StatusOK, &records[i])
			return
		}
	}
	renderError(w, http.StatusNotFound, "event_not_found",
		fmt.Sprintf("no event %q in release %s", name, chi.URLParam(r, "release")))
}

// records loads the requested view, writing the error response itself
// when it cannot.
func (h *handlers) records(w http.ResponseWriter, r *http.Request) ([]catalog.EventRecord, bool) {
	rel := chi.URLParam(r, "release")
	if err := release.Validate(rel); err != nil {
		renderError(w, http.StatusBadRequest, "invalid_release", err.Error())
		return nil, false
	}

	view := catalog.Production
	switch r.URL.Query().Get("view") {
	case "", "production":
	case "staging":
		view = catalog.Staging
	default:
		renderError(w, http.StatusBadRequest, "invalid_view", "view must be production or staging")
		return nil, false
	}

	known, err := h.isKnown(r, rel)
	if err != nil {
		h.internalError(w, r, err)
		return nil, false
	}
	if !known {
		renderError(w, http.StatusNotFound, "release_not_found", fmt.Sprintf("release %s has not been published", rel))
		return nil, false
	}

	records, err := h.store.Records(r.Context(), rel, view)
	if errors.Is(err, catalog.ErrNoProduction) {
		renderError(w, http.StatusNotFound, "no_production", fmt.Sprintf("release %s has no production view", rel))
		return nil, false
	}
	if err != nil {
		h.internalError(w, r, err)
		return nil, false
	}
	return records, true
}

func (h *handlers) isKnown(r *http.Request, rel string) (bool, error) {
	infos, err := h.store.Releases(r.Context())
	if err != nil {
		return false, err
	}
	for _, info := range infos {
		if info.Release == rel {
			return true, nil
		}
	}
	return false, nil
}

func (h *handlers) internalError(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Error("catalog read failed",
		zap.String("request_id", GetRequestID(r.Context())),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	renderError(w, http.StatusInternalServerError, "internal_error", "catalog read failed")
}
