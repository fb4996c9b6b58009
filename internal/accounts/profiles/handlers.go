package profiles

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eion/accounts/internal/accounts"
)

// Handlers provides HTTP handlers for profile operations
type Handlers struct {
	service ProfileService
	logger  *zap.Logger
}

// NewHandlers creates new profile handlers
func NewHandlers(service ProfileService, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers all profile routes on router
func (h *Handlers) RegisterRoutes(router gin.IRouter) {
	profiles := router.Group("/profiles")
	{
		profiles.POST("", h.CreateProfile)
		profiles.GET("", h.ListProfiles)
		profiles.GET("/:profileId", h.GetProfile)
		profiles.PATCH("/:profileId", h.UpdateProfile)
		profiles.DELETE("/:profileId", h.DeleteProfile)
	}
}

func (h *Handlers) CreateProfile(c *gin.Context) {
	var req CreateProfileRequest
	if !accounts.BindJSON(c, h.logger, "create_profile", &req) {
		return
	}

	profile, err := h.service.CreateProfile(c.Request.Context(), &req)
	if err != nil {
		accounts.RespondError(c, h.logger, "create_profile", err)
		return
	}

	c.JSON(http.StatusCreated, profile)
}

func (h *Handlers) ListProfiles(c *gin.Context) {
	req := &ListProfilesRequest{}
	if raw, ok := c.GetQuery("user_id"); ok {
		userID, err := uuid.Parse(raw)
		if err != nil {
			accounts.RespondError(c, h.logger, "list_profiles",
				accounts.NewValidationErrorWithCause("user_id", raw, "user_id must be a valid UUID", err))
			return
		}
		req.UserID = &userID
	}
	if username, ok := c.GetQuery("username"); ok {
		req.Username = &username
	}

	profiles, err := h.service.ListProfiles(c.Request.Context(), req)
	if err != nil {
		accounts.RespondError(c, h.logger, "list_profiles", err)
		return
	}

	c.JSON(http.StatusOK, profiles)
}

func (h *Handlers) GetProfile(c *gin.Context) {
	profileID, ok := h.profileID(c, "get_profile")
	if !ok {
		return
	}

	profile, err := h.service.GetProfile(c.Request.Context(), profileID)
	if err != nil {
		accounts.RespondError(c, h.logger, "get_profile", err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

func (h *Handlers) UpdateProfile(c *gin.Context) {
	profileID, ok := h.profileID(c, "update_profile")
	if !ok {
		return
	}

	var req UpdateProfileRequest
	if !accounts.BindJSON(c, h.logger, "update_profile", &req) {
		return
	}

	profile, err := h.service.UpdateProfile(c.Request.Context(), profileID, &req)
	if err != nil {
		accounts.RespondError(c, h.logger, "update_profile", err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

func (h *Handlers) DeleteProfile(c *gin.Context) {
	profileID, ok := h.profileID(c, "delete_profile")
	if !ok {
		return
	}

	if err := h.service.DeleteProfile(c.Request.Context(), profileID); err != nil {
		accounts.RespondError(c, h.logger, "delete_profile", err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handlers) profileID(c *gin.Context, operation string) (uuid.UUID, bool) {
	raw := c.Param("profileId")
	id, err := uuid.Parse(raw)
	if err != nil {
		accounts.RespondError(c, h.logger, operation,
			accounts.NewValidationErrorWithCause("profile_id", raw, "profile_id must be a valid UUID", err))
		return uuid.Nil, false
	}
	return id, true
}
