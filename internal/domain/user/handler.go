package user

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mdt/mdt/internal/platform/apperr"
	"github.com/mdt/mdt/internal/platform/auth"
	"github.com/mdt/mdt/pkg/pagination"
)

// Issuer signs session tokens for authenticated users.
type Issuer interface {
	Issue(id auth.Identity) (string, time.Time, error)
}

type Handler struct {
	svc          *Service
	issuer       Issuer
	secureCookie bool
}

func NewHandler(svc *Service, issuer Issuer, secureCookie bool) *Handler {
	return &Handler{svc: svc, issuer: issuer, secureCookie: secureCookie}
}

// RegisterRoutes mounts login and logout on the public group, the caller
// endpoint on the authenticated group and account management on the admin
// group.
func (h *Handler) RegisterRoutes(public, api, admin *echo.Group) {
	public.POST("/auth/login", h.Login)
	public.POST("/auth/logout", h.Logout)
	api.GET("/auth/me", h.Me)

	admin.GET("/users", h.List)
	admin.POST("/users", h.Create)
	admin.POST("/users/:id/deactivate", h.Deactivate)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      *User     `json:"user"`
}

func (h *Handler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("", "invalid request body")
	}
	u, err := h.svc.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	token, expires, err := h.issuer.Issue(u.Identity())
	if err != nil {
		return apperr.Internal(err)
	}
	c.SetCookie(h.cookie(token, expires))
	return c.JSON(http.StatusOK, loginResponse{Token: token, ExpiresAt: expires, User: u})
}

func (h *Handler) Logout(c echo.Context) error {
	ck := h.cookie("", time.Unix(0, 0))
	ck.MaxAge = -1
	c.SetCookie(ck)
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) Me(c echo.Context) error {
	u, err := h.svc.Me(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, u)
}

func (h *Handler) Create(c echo.Context) error {
	var in CreateInput
	if err := c.Bind(&in); err != nil {
		return apperr.Validation("", "invalid request body")
	}
	u, err := h.svc.Create(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, u)
}

func (h *Handler) Deactivate(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return apperr.Validation("id", "invalid id")
	}
	if err := h.svc.Deactivate(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	users, total, err := h.svc.List(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	if users == nil {
		users = []*User{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(users, total, pg))
}

func (h *Handler) cookie(value string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     auth.CookieName,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	}
}
