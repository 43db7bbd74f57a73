package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"steeple/internal/location/models"
	"steeple/internal/location/service"
	"steeple/internal/platform/middleware"
	"steeple/pkg/domain"
	dErrors "steeple/pkg/domain-errors"
	"steeple/pkg/platform/httputil"
	pstrings "steeple/pkg/platform/strings"
)

// Handler exposes the location registry over HTTP. All routes are
// admin-only; deletion additionally requires the ELDER role.
type Handler struct {
	svc    *service.Service
	logger *slog.Logger
}

func New(svc *service.Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Register mounts the registry routes on an already-authenticated router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/locations", func(r chi.Router) {
		r.Post("/", h.create)
		r.Get("/", h.list)
		r.Get("/active", h.activeOverview)
		r.Post("/deactivate", h.deactivate)
		r.Route("/{locationID}", func(r chi.Router) {
			r.Get("/", h.get)
			r.Patch("/", h.update)
			r.Post("/activate", h.activate)
			r.With(middleware.RequireRole(h.logger, middleware.RoleElder)).
				Delete("/", h.delete)
		})
	})
}

type createRequest struct {
	Name         string  `json:"name"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	RadiusMeters int     `json:"radiusMeters"`
	Address      string  `json:"address"`
	Description  string  `json:"description"`
}

type updateRequest struct {
	Name         *string  `json:"name"`
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
	RadiusMeters *int     `json:"radiusMeters"`
	Address      *string  `json:"address"`
	Description  *string  `json:"description"`
}

type servicesRequest struct {
	Services []string `json:"services"`
}

type locationResponse struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	Latitude           float64   `json:"latitude"`
	Longitude          float64   `json:"longitude"`
	RadiusMeters       int       `json:"radiusMeters"`
	Address            string    `json:"address,omitempty"`
	Description        string    `json:"description,omitempty"`
	ActiveForSabbath   bool      `json:"activeForSabbath"`
	ActiveForWednesday bool      `json:"activeForWednesday"`
	ActiveForFriday    bool      `json:"activeForFriday"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	loc, err := h.svc.Create(r.Context(), service.CreateParams{
		Name:         req.Name,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		RadiusMeters: req.RadiusMeters,
		Address:      req.Address,
		Description:  req.Description,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toResponse(models.View{Location: *loc}))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	views, err := h.svc.List(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := make([]locationResponse, 0, len(views))
	for _, view := range views {
		out = append(out, toResponse(view))
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"locations": out})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseLocationID(chi.URLParam(r, "locationID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	view, err := h.svc.Get(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(*view))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseLocationID(chi.URLParam(r, "locationID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	loc, err := h.svc.Update(r.Context(), id, models.UpdateParams{
		Name:         req.Name,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		RadiusMeters: req.RadiusMeters,
		Address:      req.Address,
		Description:  req.Description,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	view, err := h.svc.Get(r.Context(), loc.ID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(*view))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseLocationID(chi.URLParam(r, "locationID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.svc.Delete(r.Context(), id); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) activate(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseLocationID(chi.URLParam(r, "locationID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	services, err := h.decodeServices(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	view, err := h.svc.Activate(r.Context(), id, services)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(*view))
}

func (h *Handler) deactivate(w http.ResponseWriter, r *http.Request) {
	services, err := h.decodeServices(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.svc.Deactivate(r.Context(), services); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) activeOverview(w http.ResponseWriter, r *http.Request) {
	overview, err := h.svc.ActiveOverview(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	out := make(map[string]any, len(overview))
	for serviceType, loc := range overview {
		if loc == nil {
			out[serviceType.String()] = nil
			continue
		}
		view := models.View{Location: *loc, ActiveFor: []domain.ServiceType{serviceType}}
		resp := toResponse(view)
		out[serviceType.String()] = resp
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"services": out})
}

func (h *Handler) decodeServices(r *http.Request) ([]domain.ServiceType, error) {
	var req servicesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "invalid request body")
	}
	services := make([]domain.ServiceType, 0, len(req.Services))
	for _, raw := range pstrings.Dedupe(req.Services) {
		service, err := domain.ParseServiceType(raw)
		if err != nil {
			return nil, err
		}
		services = append(services, service)
	}
	return services, nil
}

func toResponse(view models.View) locationResponse {
	return locationResponse{
		ID:                 view.ID.String(),
		Name:               view.Name,
		Latitude:           view.Latitude,
		Longitude:          view.Longitude,
		RadiusMeters:       view.RadiusMeters,
		Address:            view.Address,
		Description:        view.Description,
		ActiveForSabbath:   view.ActiveForService(domain.ServiceSabbathMorning),
		ActiveForWednesday: view.ActiveForService(domain.ServiceWednesdayVespers),
		ActiveForFriday:    view.ActiveForService(domain.ServiceFridayVespers),
		CreatedAt:          view.CreatedAt,
		UpdatedAt:          view.UpdatedAt,
	}
}
