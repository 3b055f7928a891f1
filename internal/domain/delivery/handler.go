package delivery

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/afyamama/afyamama/internal/platform/auth"
	"github.com/afyamama/afyamama/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	role := auth.RequireRole(auth.RoleNurse, auth.RoleCHV)

	g := api.Group("", role)
	g.POST("/deliveries", h.RecordDelivery)
	g.GET("/deliveries", h.ListDeliveries)
	g.GET("/deliveries/:id", h.GetDelivery)
	g.PUT("/deliveries/:id", h.UpdateDelivery)
	g.GET("/deliveries/:id/babies", h.ListBabiesByDelivery)
	g.POST("/babies", h.RegisterBaby)
	g.GET("/babies", h.ListBabies)
	g.GET("/babies/:id", h.GetBaby)
	g.PUT("/babies/:id", h.UpdateBaby)
}

func (h *Handler) RecordDelivery(c echo.Context) error {
	var d Delivery
	if err := c.Bind(&d); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.RecordDelivery(c.Request().Context(), &d); err != nil {
		if errors.Is(err, ErrAlreadyRecorded) {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, d)
}

func (h *Handler) GetDelivery(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	d, err := h.svc.GetDelivery(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "delivery not found")
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) ListDeliveries(c echo.Context) error {
	if pregnancyID := c.QueryParam("pregnancy_id"); pregnancyID != "" {
		pid, err := uuid.Parse(pregnancyID)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid pregnancy_id")
		}
		d, err := h.svc.GetDeliveryByPregnancy(c.Request().Context(), pid)
		if err != nil {
			return echo.NewHTTPError(http.StatusNotFound, "delivery not found")
		}
		return c.JSON(http.StatusOK, d)
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListDeliveries(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdateDelivery(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var d Delivery
	if err := c.Bind(&d); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	d.ID = id
	if err := h.svc.UpdateDelivery(c.Request().Context(), &d); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) RegisterBaby(c echo.Context) error {
	var b Baby
	if err := c.Bind(&b); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.RegisterBaby(c.Request().Context(), &b); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, b)
}

func (h *Handler) GetBaby(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	b, err := h.svc.GetBaby(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "baby not found")
	}
	return c.JSON(http.StatusOK, b)
}

func (h *Handler) UpdateBaby(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var b Baby
	if err := c.Bind(&b); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	b.ID = id
	if err := h.svc.UpdateBaby(c.Request().Context(), &b); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, b)
}

func (h *Handler) ListBabiesByDelivery(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	babies, err := h.svc.ListBabiesByDelivery(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, babies)
}

func (h *Handler) ListBabies(c echo.Context) error {
	if motherID := c.QueryParam("mother_id"); motherID != "" {
		mid, err := uuid.Parse(motherID)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid mother_id")
		}
		babies, err := h.svc.ListBabiesByMother(c.Request().Context(), mid)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, babies)
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListBabies(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}
