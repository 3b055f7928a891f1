package reminders

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/afyamama/afyamama/internal/platform/auth"
	"github.com/afyamama/afyamama/pkg/pagination"
)

type Handler struct {
	svc       *Service
	scheduler *Scheduler
	tracker   *Tracker
}

func NewHandler(svc *Service, scheduler *Scheduler, tracker *Tracker) *Handler {
	return &Handler{svc: svc, scheduler: scheduler, tracker: tracker}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	staff := auth.RequireRole(auth.RoleNurse, auth.RoleCHV)
	admin := auth.RequireRole(auth.RoleAdmin)

	g := api.Group("", staff)
	g.POST("/reminders", h.CreateManual)
	g.GET("/reminders", h.List)
	g.GET("/reminders/stats", h.Stats)
	g.GET("/reminders/:id", h.Get)
	g.GET("/reminder-templates", h.ListTemplates)

	a := api.Group("", admin)
	a.PUT("/reminder-templates/:id", h.UpdateTemplate)
	a.POST("/reminders/run", h.Run)
	a.POST("/reminders/dispatch", h.Dispatch)

	// Gateway callback, authenticated out of band (IP allowlist at the edge).
	api.POST("/reminders/delivery-report", h.DeliveryReport)
}

// CreateManual books a one-off reminder, typically a PNC follow-up after a
// facility schedules the visit.
func (h *Handler) CreateManual(c echo.Context) error {
	var req ManualReminder
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	r, err := h.svc.CreateManual(c.Request().Context(), &req)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, r)
}

func (h *Handler) List(c echo.Context) error {
	motherID := uuid.Nil
	if raw := c.QueryParam("mother_id"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid mother_id")
		}
		motherID = parsed
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListReminders(c.Request().Context(), motherID, c.QueryParam("status"), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	r, err := h.svc.GetReminder(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "reminder not found")
	}
	return c.JSON(http.StatusOK, r)
}

func (h *Handler) Stats(c echo.Context) error {
	stats, err := h.svc.Stats(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, stats)
}

func (h *Handler) ListTemplates(c echo.Context) error {
	templates, err := h.svc.ListTemplates(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, templates)
}

func (h *Handler) UpdateTemplate(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var t Template
	if err := c.Bind(&t); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	t.ID = id
	if err := h.svc.UpdateTemplate(c.Request().Context(), &t); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, t)
}

type runRequest struct {
	Date   string `json:"date"`
	DryRun bool   `json:"dry_run"`
}

// Run triggers a scheduler pass on demand, the same pass cron runs daily.
func (h *Handler) Run(c echo.Context) error {
	var req runRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	day := h.scheduler.clk.Today()
	if req.Date != "" {
		parsed, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "date must be YYYY-MM-DD")
		}
		day = parsed
	}
	stats, err := h.scheduler.Run(c.Request().Context(), day, req.DryRun)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, stats)
}

func (h *Handler) Dispatch(c echo.Context) error {
	sent, failed, err := h.tracker.DispatchPending(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]int{"sent": sent, "failed": failed})
}

type deliveryReport struct {
	MessageID string `json:"message_id"`
	Status    string `json:"status"`
}

func (h *Handler) DeliveryReport(c echo.Context) error {
	var report deliveryReport
	if err := c.Bind(&report); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if report.MessageID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "message_id is required")
	}
	if err := h.tracker.HandleDeliveryReport(c.Request().Context(), report.MessageID, report.Status); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
