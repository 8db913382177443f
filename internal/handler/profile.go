package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/bluenumberfoundation/moviedb-api/internal/middleware"
)

type updateProfileRequest struct {
	DisplayName string `json:"displayName"`
}

func (h *Handler) GetProfile(c *gin.Context) {
	ident, ok := middleware.IdentityFromContext(c.Request.Context())
	if !ok {
		respondError(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	u, err := h.directory.FindByID(c.Request.Context(), ident.InternalID)
	if err != nil {
		log.Error().Err(err).Msg("profile lookup failed")
		respondError(c, http.StatusInternalServerError, "internal error")
		return
	}

	respond(c, http.StatusOK, gin.H{
		"userId":      u.ExternalID,
		"displayName": u.DisplayName,
		"updatedAt":   u.UpdatedAt.Unix(),
	})
}

// UpdateProfile changes the display name only. It never touches login
// state, so outstanding tokens stay valid.
func (h *Handler) UpdateProfile(c *gin.Context) {
	ident, ok := middleware.IdentityFromContext(c.Request.Context())
	if !ok {
		respondError(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.DisplayName == "" {
		respondError(c, http.StatusBadRequest, "displayName is required")
		return
	}

	if err := h.directory.UpdateDisplayName(c.Request.Context(), ident.InternalID, req.DisplayName); err != nil {
		log.Error().Err(err).Msg("profile update failed")
		respondError(c, http.StatusInternalServerError, "internal error")
		return
	}

	respond(c, http.StatusOK, gin.H{
		"userId":      ident.ExternalID,
		"displayName": req.DisplayName,
	})
}
