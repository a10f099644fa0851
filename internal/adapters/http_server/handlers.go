package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"hostel_guide/internal/adapters/markup"
	"hostel_guide/internal/app"
	"hostel_guide/internal/domain"
)

const maxMarkupBytes = 2 << 20

type Handlers struct {
	Content      *app.ContentStore
	Annotator    *app.Annotator
	IP           IPLocator // nil: no approximate fallback
	UpcomingDays int
	RateLimitRPS int
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Route("/v1", func(r chi.Router) {
		r.Get("/settings", h.getSettings)
		r.Get("/categories", h.listCategories)
		r.Get("/categories/{slug}", h.getCategory)
		r.Get("/spots", h.listAllSpots)
		r.Get("/spots/{category}", h.listSpots)
		r.Get("/spots/{category}/{id}", h.getSpot)
		r.Get("/find/{id}", h.findSpot)
		r.Get("/events", h.listEvents)
		r.Get("/events/upcoming", h.listUpcomingEvents)

		r.Group(func(r chi.Router) {
			r.Use(RateLimit(h.RateLimitRPS))
			r.Get("/distances/{category}", h.spotDistances)
			r.Post("/annotate", h.annotate)
		})
	})
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// writeContentError maps content errors to HTTP problems.
func writeContentError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidCategory):
		writeProblem(w, http.StatusNotFound, "Unknown category", err.Error())
	case errors.Is(err, domain.ErrContentLoad):
		writeProblem(w, http.StatusServiceUnavailable, "Content unavailable", "content could not be loaded")
	default:
		log.Error().Err(err).Msg("unexpected content error")
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

func writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	if body == nil {
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "")
		return
	}
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("failed to write body")
	}
}

func categoryParam(w http.ResponseWriter, r *http.Request) (domain.Category, bool) {
	c, err := domain.ParseCategory(chi.URLParam(r, "category"))
	if err != nil {
		writeContentError(w, err)
		return "", false
	}
	return c, true
}

func (h *Handlers) getSettings(w http.ResponseWriter, r *http.Request) {
	s, err := h.Content.GetSettings(r.Context())
	if err != nil {
		writeContentError(w, err)
		return
	}
	writeJSON(w, r, s)
}

func (h *Handlers) listCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, h.Content.Categories())
}

func (h *Handlers) getCategory(w http.ResponseWriter, r *http.Request) {
	m, ok := h.Content.CategoryMeta(domain.Category(chi.URLParam(r, "slug")))
	if !ok {
		writeProblem(w, http.StatusNotFound, "Unknown category", "no such category")
		return
	}
	writeJSON(w, r, m)
}

func (h *Handlers) listAllSpots(w http.ResponseWriter, r *http.Request) {
	all, err := h.Content.GetAllSpots(r.Context())
	if err != nil {
		writeContentError(w, err)
		return
	}
	writeJSON(w, r, all)
}

func (h *Handlers) listSpots(w http.ResponseWriter, r *http.Request) {
	c, ok := categoryParam(w, r)
	if !ok {
		return
	}
	spots, err := h.Content.GetSpots(r.Context(), c)
	if err != nil {
		writeContentError(w, err)
		return
	}
	writeJSON(w, r, spots)
}

func (h *Handlers) getSpot(w http.ResponseWriter, r *http.Request) {
	c, ok := categoryParam(w, r)
	if !ok {
		return
	}
	sp, found, err := h.Content.GetSpotByID(r.Context(), c, chi.URLParam(r, "id"))
	if err != nil {
		writeContentError(w, err)
		return
	}
	if !found {
		writeProblem(w, http.StatusNotFound, "Not Found", "spot not found")
		return
	}
	writeJSON(w, r, sp)
}

func (h *Handlers) findSpot(w http.ResponseWriter, r *http.Request) {
	m, found, err := h.Content.FindSpotByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeContentError(w, err)
		return
	}
	if !found {
		writeProblem(w, http.StatusNotFound, "Not Found", "spot not found")
		return
	}
	writeJSON(w, r, m)
}

type eventView struct {
	domain.HostelEvent
	CTAHref string `json:"ctaHref,omitempty"`
}

type eventsResponse struct {
	Events   []eventView `json:"events"`
	Warnings []string    `json:"warnings,omitempty"`
}

func (h *Handlers) eventViews(r *http.Request, evs []domain.HostelEvent) []eventView {
	settings, err := h.Content.GetSettings(r.Context())
	if err != nil {
		// hrefs for templated CTAs need the contact number; serve events without them
		log.Warn().Err(err).Msg("settings unavailable, CTA links omitted")
	}
	out := make([]eventView, len(evs))
	for i, ev := range evs {
		out[i] = eventView{HostelEvent: ev}
		if ev.CTA != nil && err == nil {
			out[i].CTAHref = ev.CTA.Href(settings)
		}
	}
	return out
}

func (h *Handlers) listEvents(w http.ResponseWriter, r *http.Request) {
	evs, err := h.Content.GetEvents(r.Context())
	if err != nil {
		writeContentError(w, err)
		return
	}
	writeJSON(w, r, eventsResponse{Events: h.eventViews(r, evs)})
}

func (h *Handlers) listUpcomingEvents(w http.ResponseWriter, r *http.Request) {
	days := h.UpcomingDays
	if ds := r.URL.Query().Get("days"); ds != "" {
		d, err := strconv.Atoi(ds)
		if err != nil || d < 0 || d > 366 {
			writeProblem(w, http.StatusBadRequest, "Invalid days", "days must be an integer between 0 and 366")
			return
		}
		days = d
	}

	evs, err := h.Content.GetUpcomingEvents(r.Context(), days)
	resp := eventsResponse{}
	var derr *domain.EventDateError
	switch {
	case err == nil:
	case errors.As(err, &derr):
		for _, e := range derr.Entries {
			resp.Warnings = append(resp.Warnings, e.Error())
		}
	default:
		writeContentError(w, err)
		return
	}
	resp.Events = h.eventViews(r, evs)
	writeJSON(w, r, resp)
}

type distancesResponse struct {
	Located   bool                  `json:"located"`
	Distances []domain.SpotDistance `json:"distances"`
}

func (h *Handlers) spotDistances(w http.ResponseWriter, r *http.Request) {
	c, ok := categoryParam(w, r)
	if !ok {
		return
	}
	spots, err := h.Content.GetSpots(r.Context(), c)
	if err != nil {
		writeContentError(w, err)
		return
	}
	ds, located := h.Annotator.SpotDistances(r.Context(), h.locateRequest(r), spots)
	if ds == nil {
		ds = []domain.SpotDistance{}
	}
	w.Header().Set("Cache-Control", "private, no-store")
	writeJSON(w, r, distancesResponse{Located: located, Distances: ds})
}

// annotate takes rendered HTML (a full page or a fragment) and returns it with
// distances filled in. When no position is available the markup comes back
// as posted, with nothing revealed.
func (h *Handlers) annotate(w http.ResponseWriter, r *http.Request) {
	doc, err := markup.Parse(io.LimitReader(r.Body, maxMarkupBytes))
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid markup", err.Error())
		return
	}
	anns, located := h.Annotator.Annotate(r.Context(), h.locateRequest(r), doc.Targets())
	if located {
		doc.Apply(anns)
	}
	log.Debug().Bool("located", located).Int("annotated", len(anns)).Int("targets", len(doc.Targets())).Msg("markup annotated")

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "private, no-store")
	w.Header().Set("X-Distance-Located", strconv.FormatBool(located))
	w.WriteHeader(http.StatusOK)
	if err := doc.Render(w); err != nil {
		log.Error().Err(err).Msg("failed to render annotated markup")
	}
}
