package vocab

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/mdt/mdt/internal/platform/apperr"
	"github.com/mdt/mdt/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts /vocab/<list> on an authenticated group. Writes
// additionally require an administrator.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/vocab")
	for _, v := range Vocabularies {
		path := "/" + string(v)
		g.GET(path, h.list(v))
		g.POST(path, h.add(v), auth.RequireAdmin())
		g.DELETE(path+"/:id", h.delete(v), auth.RequireAdmin())
	}
}

func (h *Handler) list(v Vocabulary) echo.HandlerFunc {
	return func(c echo.Context) error {
		terms, err := h.svc.List(c.Request().Context(), v, c.QueryParam("kind"))
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, map[string]interface{}{"data": terms})
	}
}

func (h *Handler) add(v Vocabulary) echo.HandlerFunc {
	return func(c echo.Context) error {
		var in TermInput
		if err := c.Bind(&in); err != nil {
			return apperr.Validation("", "invalid request body")
		}
		t, err := h.svc.Add(c.Request().Context(), v, in)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusCreated, t)
	}
}

func (h *Handler) delete(v Vocabulary) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil || id <= 0 {
			return apperr.Validation("id", "invalid id")
		}
		if err := h.svc.Delete(c.Request().Context(), v, id); err != nil {
			return err
		}
		return c.NoContent(http.StatusNoContent)
	}
}
