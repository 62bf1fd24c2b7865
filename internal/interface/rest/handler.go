package rest

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/bridgekit/mentiond/internal/domain"
	"github.com/bridgekit/mentiond/internal/store"
	"github.com/bridgekit/mentiond/internal/usecase"
)

// Handler exposes the webmention endpoint and the read/admin API.
type Handler struct {
	receive    *usecase.ReceiveUsecase
	mentions   usecase.MentionStore
	adminToken string
}

func NewHandler(receive *usecase.ReceiveUsecase, mentions usecase.MentionStore, adminToken string) *Handler {
	return &Handler{
		receive:    receive,
		mentions:   mentions,
		adminToken: adminToken,
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	// The notification endpoint answers every method itself so the
	// pipeline can map non-POST to 405 instead of echo's default 404.
	e.Any("/webmention", h.handleWebmention)

	e.GET("/healthz", h.handleHealthz)
	e.GET("/api/v1/mentions/:slug", h.handleList)
	e.GET("/api/v1/mentions/:slug/counts", h.handleCounts)

	// Delete routes exist only when an admin token is configured.
	if h.adminToken != "" {
		admin := e.Group("/api/v1/mentions", h.requireAdmin)
		admin.DELETE("/:slug/:id", h.handleDelete)
		admin.DELETE("/:slug", h.handleDeleteAll)
	}
}

func (h *Handler) handleWebmention(c echo.Context) error {
	ctx := c.Request().Context()

	receipt := h.receive.Handle(ctx, usecase.ReceiveInput{
		Method:     c.Request().Method,
		RemoteAddr: c.RealIP(),
		Source:     c.FormValue("source"),
		Target:     c.FormValue("target"),
	})

	return c.JSON(receipt.Status, receipt.Body)
}

func (h *Handler) handleHealthz(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

func (h *Handler) handleList(c echo.Context) error {
	ctx := c.Request().Context()
	slug := c.Param("slug")

	q := store.Query{}
	if t := c.QueryParam("type"); t != "" {
		mt := domain.MentionType(t)
		if !domain.KnownType(mt) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown type"})
		}
		q.Type = mt
	}
	switch order := c.QueryParam("order"); order {
	case "", "asc", "desc":
		q.Order = order
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "order must be asc or desc"})
	}

	mentions, err := h.mentions.GetBySlug(ctx, slug, q)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Internal Server Error"})
	}
	if mentions == nil {
		mentions = []domain.Webmention{}
	}
	return c.JSON(http.StatusOK, mentions)
}

func (h *Handler) handleCounts(c echo.Context) error {
	ctx := c.Request().Context()

	counts, err := h.mentions.GetCounts(ctx, c.Param("slug"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Internal Server Error"})
	}
	return c.JSON(http.StatusOK, counts)
}

func (h *Handler) handleDelete(c echo.Context) error {
	ctx := c.Request().Context()

	err := h.mentions.Delete(ctx, c.Param("slug"), c.Param("id"))
	if errors.Is(err, domain.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Internal Server Error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "deleted"})
}

func (h *Handler) handleDeleteAll(c echo.Context) error {
	ctx := c.Request().Context()

	if err := h.mentions.DeleteAll(ctx, c.Param("slug")); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Internal Server Error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "deleted"})
}

func (h *Handler) requireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token != h.adminToken {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
		}
		return next(c)
	}
}
