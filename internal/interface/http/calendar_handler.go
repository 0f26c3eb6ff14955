package handlers

import (
	"encoding/csv"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/kalenso/kalenso/internal/application/calendar"
	"github.com/kalenso/kalenso/internal/domain/entity"
	"github.com/kalenso/kalenso/internal/interface/middleware"
	"github.com/kalenso/kalenso/pkg/response"
	"github.com/kalenso/kalenso/pkg/validation"
)

type CalendarHandler struct {
	Svc    *calendar.Service
	Logger *logrus.Logger
}

func NewCalendarHandler(svc *calendar.Service, logger *logrus.Logger) *CalendarHandler {
	return &CalendarHandler{Svc: svc, Logger: logger}
}

type eventRequest struct {
	Title    string    `json:"title" binding:"required,max=200"`
	StartsAt time.Time `json:"starts_at" binding:"required"`
	EndsAt   time.Time `json:"ends_at" binding:"required"`
	Location *string   `json:"location"`
	Notes    *string   `json:"notes"`
}

func (r *eventRequest) toInput() calendar.EventInput {
	return calendar.EventInput{
		Title:    r.Title,
		StartsAt: r.StartsAt,
		EndsAt:   r.EndsAt,
		Location: r.Location,
		Notes:    r.Notes,
	}
}

func eventJSON(e *entity.Event) gin.H {
	return gin.H{
		"id":        e.ID,
		"title":     e.Title,
		"starts_at": e.StartsAt,
		"ends_at":   e.EndsAt,
		"location":  e.Location,
		"notes":     e.Notes,
	}
}

// window parses ?from=&to= (RFC3339), defaulting to the next 30 days.
func window(c *gin.Context) (time.Time, time.Time, bool) {
	from := time.Now().Truncate(24 * time.Hour)
	to := from.AddDate(0, 0, 30)
	if v := c.Query("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			response.Error[any](c, http.StatusBadRequest, "invalid from timestamp", nil)
			return time.Time{}, time.Time{}, false
		}
		from = t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			response.Error[any](c, http.StatusBadRequest, "invalid to timestamp", nil)
			return time.Time{}, time.Time{}, false
		}
		to = t
	}
	return from, to, true
}

// List GET /api/events
func (h *CalendarHandler) List(c *gin.Context) {
	from, to, ok := window(c)
	if !ok {
		return
	}
	events, err := h.Svc.List(c.Request.Context(), middleware.UserID(c), from, to)
	if err != nil {
		h.Logger.WithError(err).Error("list events failed")
		response.Error[any](c, http.StatusInternalServerError, "internal error", nil)
		return
	}
	out := make([]gin.H, 0, len(events))
	for i := range events {
		out = append(out, eventJSON(&events[i]))
	}
	response.Success(c, http.StatusOK, out, "events", gin.H{"count": len(out)})
}

// Create POST /api/events
func (h *CalendarHandler) Create(c *gin.Context) {
	var req eventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	if !req.EndsAt.After(req.StartsAt) {
		response.Error[any](c, http.StatusBadRequest, "invalid payload",
			map[string]string{"ends_at": "must be after starts_at"})
		return
	}
	e, err := h.Svc.Create(c.Request.Context(), middleware.UserID(c), req.toInput())
	if err != nil {
		h.Logger.WithError(err).Error("create event failed")
		response.Error[any](c, http.StatusInternalServerError, "internal error", nil)
		return
	}
	response.Success(c, http.StatusCreated, eventJSON(e), "event created", nil)
}

// Update PUT /api/events/:id
func (h *CalendarHandler) Update(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error[any](c, http.StatusBadRequest, "invalid event id", nil)
		return
	}
	var req eventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	if !req.EndsAt.After(req.StartsAt) {
		response.Error[any](c, http.StatusBadRequest, "invalid payload",
			map[string]string{"ends_at": "must be after starts_at"})
		return
	}
	e, err := h.Svc.Update(c.Request.Context(), middleware.UserID(c), id, req.toInput())
	if err != nil {
		if errors.Is(err, calendar.ErrEventNotFound) {
			response.Error[any](c, http.StatusNotFound, "event not found", nil)
			return
		}
		h.Logger.WithError(err).Error("update event failed")
		response.Error[any](c, http.StatusInternalServerError, "internal error", nil)
		return
	}
	response.Success(c, http.StatusOK, eventJSON(e), "event updated", nil)
}

// Delete DELETE /api/events/:id
func (h *CalendarHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error[any](c, http.StatusBadRequest, "invalid event id", nil)
		return
	}
	if err := h.Svc.Delete(c.Request.Context(), middleware.UserID(c), id); err != nil {
		if errors.Is(err, calendar.ErrEventNotFound) {
			response.Error[any](c, http.StatusNotFound, "event not found", nil)
			return
		}
		h.Logger.WithError(err).Error("delete event failed")
		response.Error[any](c, http.StatusInternalServerError, "internal error", nil)
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"deleted": true}, "event deleted", nil)
}

// Export GET /api/events/export streams the requested window as CSV.
func (h *CalendarHandler) Export(c *gin.Context) {
	from, to, ok := window(c)
	if !ok {
		return
	}
	events, err := h.Svc.List(c.Request.Context(), middleware.UserID(c), from, to)
	if err != nil {
		h.Logger.WithError(err).Error("export events failed")
		response.Error[any](c, http.StatusInternalServerError, "internal error", nil)
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="events.csv"`)
	w := csv.NewWriter(c.Writer)
	_ = w.Write([]string{"id", "title", "starts_at", "ends_at", "location", "notes"})
	for i := range events {
		e := &events[i]
		_ = w.Write([]string{
			strconv.FormatInt(e.ID, 10),
			e.Title,
			e.StartsAt.Format(time.RFC3339),
			e.EndsAt.Format(time.RFC3339),
			deref(e.Location),
			deref(e.Notes),
		})
	}
	w.Flush()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
