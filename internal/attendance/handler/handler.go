package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"steeple/internal/attendance/models"
	"steeple/internal/attendance/service"
	"steeple/pkg/domain"
	dErrors "steeple/pkg/domain-errors"
	"steeple/pkg/platform/httputil"
)

// Handler exposes attendance marking and reporting. The mark, status and
// history routes are member-facing and unauthenticated; the listing route
// is mounted on the admin router.
type Handler struct {
	svc    *service.Service
	logger *slog.Logger
}

func New(svc *service.Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// RegisterPublic mounts the member-facing routes.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Route("/attendance", func(r chi.Router) {
		r.Post("/mark", h.mark)
		r.Get("/status", h.status)
		r.Get("/history", h.history)
	})
}

// RegisterAdmin mounts the reporting routes on an authenticated router.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/attendance", h.list)
}

type markRequest struct {
	Email     string  `json:"email"`
	DeviceID  string  `json:"deviceId"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type recordResponse struct {
	ID           string    `json:"id"`
	MemberID     string    `json:"memberId"`
	ServiceType  string    `json:"serviceType"`
	RecordedAt   time.Time `json:"recordedAt"`
	AttendedOn   string    `json:"attendedOn"`
	LocationName string    `json:"locationName"`
	Verified     bool      `json:"verified"`
}

func toRecordResponse(rec models.Record) recordResponse {
	return recordResponse{
		ID:           rec.ID.String(),
		MemberID:     rec.MemberID.String(),
		ServiceType:  rec.ServiceType.String(),
		RecordedAt:   rec.RecordedAt,
		AttendedOn:   rec.AttendedOn,
		LocationName: rec.LocationName,
		Verified:     rec.Verified,
	}
}

func (h *Handler) mark(w http.ResponseWriter, r *http.Request) {
	var req markRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	result, err := h.svc.Mark(r.Context(), service.MarkParams{
		Email:     req.Email,
		DeviceID:  req.DeviceID,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, map[string]any{
		"record":         toRecordResponse(result.Record),
		"memberName":     result.Member.FirstName + " " + result.Member.LastName,
		"distanceMeters": int(result.DistanceMeters + 0.5),
	})
}

func (h *Handler) status(w http.ResponseWriter, r *http.Request) {
	status, err := h.svc.Status(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	schedule := make([]map[string]any, 0, len(status.Schedule))
	for _, win := range status.Schedule {
		schedule = append(schedule, map[string]any{
			"service":   win.Service.String(),
			"weekday":   win.Weekday.String(),
			"startHour": win.StartHour,
			"endHour":   win.EndHour,
		})
	}

	resp := map[string]any{
		"active":   status.Active,
		"schedule": schedule,
	}
	if status.Active {
		resp["serviceType"] = status.Service.String()
		if loc := status.ActiveLocation; loc != nil {
			resp["location"] = map[string]any{
				"name":         loc.Name,
				"latitude":     loc.Latitude,
				"longitude":    loc.Longitude,
				"radiusMeters": loc.RadiusMeters,
			}
		}
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	history, err := h.svc.History(r.Context(), r.URL.Query().Get("email"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	records := make([]recordResponse, 0, len(history.Records))
	for _, rec := range history.Records {
		records = append(records, toRecordResponse(rec))
	}
	totals := make(map[string]int, len(history.Totals))
	totalCount := 0
	for serviceType, count := range history.Totals {
		totals[serviceType.String()] = count
		totalCount += count
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"member": map[string]any{
			"id":        history.Member.ID.String(),
			"email":     history.Member.Email,
			"firstName": history.Member.FirstName,
			"lastName":  history.Member.LastName,
		},
		"records":    records,
		"totals":     totals,
		"totalCount": totalCount,
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter, err := parseListFilter(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	listing, err := h.svc.List(r.Context(), filter, r.URL.Query().Get("email"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	records := make([]recordResponse, 0, len(listing.Records))
	for _, rec := range listing.Records {
		records = append(records, toRecordResponse(rec))
	}
	counts := make(map[string]int, len(listing.Counts))
	for serviceType, count := range listing.Counts {
		counts[serviceType.String()] = count
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"records": records,
		"counts":  counts,
	})
}

func parseListFilter(r *http.Request) (models.ListFilter, error) {
	var filter models.ListFilter
	q := r.URL.Query()

	for param, dst := range map[string]*string{
		"date": &filter.Day,
		"from": &filter.From,
		"to":   &filter.To,
	} {
		day := q.Get(param)
		if day == "" {
			continue
		}
		if _, err := time.Parse("2006-01-02", day); err != nil {
			return filter, dErrors.New(dErrors.CodeInvalidInput, param+" must be formatted YYYY-MM-DD").
				Add(param, day)
		}
		*dst = day
	}
	if raw := q.Get("serviceType"); raw != "" {
		serviceType, err := domain.ParseServiceType(raw)
		if err != nil {
			return filter, err
		}
		filter.Service = &serviceType
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return filter, dErrors.New(dErrors.CodeInvalidInput, "limit must be a positive integer")
		}
		filter.Limit = limit
	}
	return filter, nil
}
