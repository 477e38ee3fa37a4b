package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/ednar28/user-admin/internal/api/metrics"
	"github.com/ednar28/user-admin/internal/core/ports"
)

// auditTrailLimit caps the events returned for one user.
const auditTrailLimit = 50

type UserHandler struct {
	userService ports.UserService
	auditReader ports.AuditReader
}

func NewUserHandler(userService ports.UserService, auditReader ports.AuditReader) *UserHandler {
	return &UserHandler{userService: userService, auditReader: auditReader}
}

type userRequest struct {
	Name  jsonString `json:"name" validate:"required,string,max=255" swaggertype:"string"`
	Email jsonString `json:"email" validate:"required,string,max=255,email" swaggertype:"string"`
	Role  jsonString `json:"role" validate:"required,string" swaggertype:"string" enums:"superadmin,admin"`
}

func (r userRequest) input() ports.UserInput {
	return ports.UserInput{Name: r.Name.Value, Email: r.Email.Value, Role: r.Role.Value}
}

func (h *UserHandler) bindUser(c echo.Context) (ports.UserInput, error) {
	var req userRequest
	if err := c.Bind(&req); err != nil {
		return ports.UserInput{}, echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return ports.UserInput{}, err
	}
	return req.input(), nil
}

// List returns one page of administrators, ordered by name.
//
// @Summary      List users
// @Tags         users
// @Security     BearerAuth
// @Produce      json
// @Param        page  query     int  false  "Page number (1-based)"
// @Success      200   {object}  userPageView
// @Failure      401   {object}  map[string]any
// @Router       /user [get]
func (h *UserHandler) List(c echo.Context) error {
	identity, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	page, err := strconv.Atoi(c.QueryParam("page"))
	if err != nil || page < 1 {
		page = 1
	}

	result, err := h.userService.List(c.Request().Context(), identity, page)
	if err != nil {
		return err
	}

	path := c.Scheme() + "://" + c.Request().Host + c.Request().URL.Path
	return c.JSON(http.StatusOK, toUserPageView(result, path))
}

// Create adds a user with the given role and the default password.
//
// @Summary      Create user
// @Tags         users
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        body  body      userRequest  true  "User attributes"
// @Success      201   {object}  userWithRoleView
// @Failure      401   {object}  map[string]any
// @Failure      422   {object}  map[string]any
// @Router       /user [post]
func (h *UserHandler) Create(c echo.Context) error {
	identity, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	in, err := h.bindUser(c)
	if err != nil {
		return err
	}

	user, err := h.userService.Create(c.Request().Context(), identity, in)
	if err != nil {
		return err
	}
	metrics.UserMutationsTotal.WithLabelValues("created").Inc()

	return c.JSON(http.StatusCreated, toUserWithRoleView(user))
}

// Get returns one live user with its role.
//
// @Summary      Get user
// @Tags         users
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      int  true  "User ID"
// @Success      200  {object}  userWithRoleView
// @Failure      401  {object}  map[string]any
// @Failure      404  {object}  map[string]any
// @Router       /user/{id} [get]
func (h *UserHandler) Get(c echo.Context) error {
	identity, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}

	user, err := h.userService.Get(c.Request().Context(), identity, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserWithRoleView(user))
}

// Update replaces name, email and role of a live user.
//
// @Summary      Update user
// @Tags         users
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id    path      int          true  "User ID"
// @Param        body  body      userRequest  true  "User attributes"
// @Success      200   {object}  userWithRoleView
// @Failure      401   {object}  map[string]any
// @Failure      404   {object}  map[string]any
// @Failure      422   {object}  map[string]any
// @Router       /user/{id} [put]
func (h *UserHandler) Update(c echo.Context) error {
	identity, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	in, err := h.bindUser(c)
	if err != nil {
		return err
	}

	user, err := h.userService.Update(c.Request().Context(), identity, id, in)
	if err != nil {
		return err
	}
	metrics.UserMutationsTotal.WithLabelValues("updated").Inc()

	return c.JSON(http.StatusOK, toUserWithRoleView(user))
}

// Delete soft-deletes a user.
//
// @Summary      Delete user
// @Tags         users
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      int  true  "User ID"
// @Success      200  {object}  deletionView
// @Failure      401  {object}  map[string]any
// @Failure      404  {object}  map[string]any
// @Router       /user/{id} [delete]
func (h *UserHandler) Delete(c echo.Context) error {
	identity, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}

	receipt, err := h.userService.Delete(c.Request().Context(), identity, id)
	if err != nil {
		return err
	}
	metrics.UserMutationsTotal.WithLabelValues("deleted").Inc()

	return c.JSON(http.StatusOK, toDeletionView(receipt))
}

// Audit returns the most recent audit events about a user, including users
// that have been soft-deleted.
//
// @Summary      User audit trail
// @Tags         users
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      int  true  "User ID"
// @Success      200  {object}  auditTrailView
// @Failure      401  {object}  map[string]any
// @Failure      404  {object}  map[string]any
// @Router       /user/{id}/audit [get]
func (h *UserHandler) Audit(c echo.Context) error {
	if _, err := ctxIdentity(c); err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	if _, err := h.userService.FindWithTrashed(ctx, id); err != nil {
		return err
	}
	events, err := h.auditReader.ForTarget(ctx, id, auditTrailLimit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toAuditTrailView(events))
}
