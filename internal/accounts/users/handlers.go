package users

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eion/accounts/internal/accounts"
)

// Handlers provides HTTP handlers for user operations
type Handlers struct {
	service UserService
	logger  *zap.Logger
}

// NewHandlers creates new user handlers
func NewHandlers(service UserService, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers all user routes on router
func (h *Handlers) RegisterRoutes(router gin.IRouter) {
	users := router.Group("/users")
	{
		users.POST("", h.CreateUser)
		users.GET("", h.ListUsers)
		users.GET("/:userId", h.GetUser)
		users.PATCH("/:userId", h.UpdateUser)
		users.DELETE("/:userId", h.DeleteUser)
	}
}

func (h *Handlers) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if !accounts.BindJSON(c, h.logger, "create_user", &req) {
		return
	}

	user, err := h.service.CreateUser(c.Request.Context(), &req)
	if err != nil {
		accounts.RespondError(c, h.logger, "create_user", err)
		return
	}

	c.JSON(http.StatusCreated, user)
}

func (h *Handlers) ListUsers(c *gin.Context) {
	req := &ListUsersRequest{}
	if name, ok := c.GetQuery("name"); ok {
		req.Name = &name
	}
	if email, ok := c.GetQuery("email"); ok {
		req.Email = &email
	}
	if phone, ok := c.GetQuery("phone"); ok {
		req.Phone = &phone
	}
	if tier, ok := c.GetQuery("membership_tier"); ok {
		t := MembershipTier(tier)
		req.MembershipTier = &t
	}

	users, err := h.service.ListUsers(c.Request.Context(), req)
	if err != nil {
		accounts.RespondError(c, h.logger, "list_users", err)
		return
	}

	c.JSON(http.StatusOK, users)
}

func (h *Handlers) GetUser(c *gin.Context) {
	userID, ok := h.userID(c, "get_user")
	if !ok {
		return
	}

	user, err := h.service.GetUser(c.Request.Context(), userID)
	if err != nil {
		accounts.RespondError(c, h.logger, "get_user", err)
		return
	}

	c.JSON(http.StatusOK, user)
}

func (h *Handlers) UpdateUser(c *gin.Context) {
	userID, ok := h.userID(c, "update_user")
	if !ok {
		return
	}

	var req UpdateUserRequest
	if !accounts.BindJSON(c, h.logger, "update_user", &req) {
		return
	}

	user, err := h.service.UpdateUser(c.Request.Context(), userID, &req)
	if err != nil {
		accounts.RespondError(c, h.logger, "update_user", err)
		return
	}

	c.JSON(http.StatusOK, user)
}

func (h *Handlers) DeleteUser(c *gin.Context) {
	userID, ok := h.userID(c, "delete_user")
	if !ok {
		return
	}

	if err := h.service.DeleteUser(c.Request.Context(), userID); err != nil {
		accounts.RespondError(c, h.logger, "delete_user", err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handlers) userID(c *gin.Context, operation string) (uuid.UUID, bool) {
	raw := c.Param("userId")
	id, err := uuid.Parse(raw)
	if err != nil {
		accounts.RespondError(c, h.logger, operation,
			accounts.NewValidationErrorWithCause("user_id", raw, "user_id must be a valid UUID", err))
		return uuid.Nil, false
	}
	return id, true
}
