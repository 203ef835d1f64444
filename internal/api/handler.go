// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package api serves the identity backend over HTTP.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/samber/oops"

	"github.com/holomush/hybridid/internal/identity"
	"github.com/holomush/hybridid/pkg/errutil"
)

// Backend is the part of identity.Backend the API exposes.
type Backend interface {
	Authenticate(ctx context.Context, userID, password string) (*identity.AuthResult, error)
	GetUser(ctx context.Context, id string) (*identity.User, error)
	GetUserByName(ctx context.Context, name, domainID string) (*identity.User, error)
	ListUsers(ctx context.Context, hints identity.ListHints) ([]*identity.User, error)
}

// Handler serves identity requests.
type Handler struct {
	backend Backend
	logger  *slog.Logger
}

// NewHandler creates a Handler. A nil logger uses slog.Default.
func NewHandler(backend Backend, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{backend: backend, logger: logger}
}

// Register adds the routes to e.
func (h *Handler) Register(e *echo.Echo) {
	v1 := e.Group("/v1")
	v1.POST("/auth", h.authenticate)
	v1.GET("/users", h.listUsers)
	v1.GET("/users/by-name/:name", h.getUserByName)
	v1.GET("/users/:id", h.getUser)
}

type authRequest struct {
	UserID   string `json:"user_id"`
	Password string `json:"password"`
}

func (h *Handler) authenticate(c echo.Context) error {
	var req authRequest
	if err := c.Bind(&req); err != nil {
		return oops.Code("INVALID_REQUEST").Wrap(err)
	}
	if req.UserID == "" {
		return oops.Code("INVALID_REQUEST").Errorf("user_id is required")
	}

	res, err := h.backend.Authenticate(c.Request().Context(), req.UserID, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, NewAuthView(res))
}

func (h *Handler) getUser(c echo.Context) error {
	id, err := pathParam(c, "id")
	if err != nil {
		return err
	}
	u, err := h.backend.GetUser(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, NewUserView(u))
}

func (h *Handler) getUserByName(c echo.Context) error {
	name, err := pathParam(c, "name")
	if err != nil {
		return err
	}
	domainID := c.QueryParam("domain")
	if domainID == "" {
		domainID = identity.DefaultDomainID
	}
	u, err := h.backend.GetUserByName(c.Request().Context(), name, domainID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, NewUserView(u))
}

// listUsers takes repeated filter=field:comparator:value parameters plus
// case_sensitive and limit.
func (h *Handler) listUsers(c echo.Context) error {
	var (
		filters       []string
		caseSensitive bool
		limit         int
	)
	err := echo.QueryParamsBinder(c).
		Strings("filter", &filters).
		Bool("case_sensitive", &caseSensitive).
		Int("limit", &limit).
		BindError()
	if err != nil {
		return oops.Code("INVALID_REQUEST").Wrap(err)
	}

	hints, err := identity.ParseHints(filters, caseSensitive, limit)
	if err != nil {
		return err
	}
	users, err := h.backend.ListUsers(c.Request().Context(), hints)
	if err != nil {
		return err
	}
	views := make([]UserView, 0, len(users))
	for _, u := range users {
		views = append(views, NewUserView(u))
	}
	return c.JSON(http.StatusOK, views)
}

func pathParam(c echo.Context, name string) (string, error) {
	v, err := url.PathUnescape(c.Param(name))
	if err != nil {
		return "", oops.Code("INVALID_REQUEST").With(name, c.Param(name)).Wrap(err)
	}
	if strings.TrimSpace(v) == "" {
		return "", oops.Code("INVALID_REQUEST").Errorf("%s is required", name)
	}
	return v, nil
}

// handleError writes err as a JSON error body. Authentication failures
// carry one fixed message whatever the cause.
func (h *Handler) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, msg := http.StatusInternalServerError, "internal error"
	var he *echo.HTTPError
	switch {
	case errors.Is(err, identity.ErrAuthenticationFailed):
		status, msg = http.StatusUnauthorized, "invalid user or password"
	case errors.Is(err, identity.ErrUserNotFound):
		status, msg = http.StatusNotFound, "user not found"
	case errors.As(err, &he):
		status, msg = he.Code, http.StatusText(he.Code)
	default:
		switch errutil.Code(err) {
		case "INVALID_REQUEST", "INVALID_FILTER", "INVALID_HINTS":
			status, msg = http.StatusBadRequest, err.Error()
		}
	}

	if status >= http.StatusInternalServerError {
		errutil.LogErrorContext(c.Request().Context(), h.logger, "request failed", err)
	}

	var writeErr error
	if c.Request().Method == http.MethodHead {
		writeErr = c.NoContent(status)
	} else {
		writeErr = c.JSON(status, errorView{Error: msg})
	}
	if writeErr != nil {
		h.logger.DebugContext(c.Request().Context(), "failed to write error response", "error", writeErr)
	}
}
