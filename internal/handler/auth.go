package handler

import (
	"crypto/subtle"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/bluenumberfoundation/moviedb-api/internal/identity"
	"github.com/bluenumberfoundation/moviedb-api/internal/middleware"
	"github.com/bluenumberfoundation/moviedb-api/internal/session"
)

type loginRequest struct {
	ExchangeToken string `json:"exchangeToken"`
}

// Login redeems a humanID exchange token for a session token. The shared
// client secret is checked first; a bad secret must never reach the
// identity verifier.
func (h *Handler) Login(c *gin.Context) {
	secret := c.GetHeader(ClientSecretHeader)
	if subtle.ConstantTimeCompare([]byte(secret), h.clientSecret) != 1 {
		respondError(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ExchangeToken == "" {
		respondError(c, http.StatusBadRequest, "exchangeToken is required")
		return
	}

	sess, err := h.sessions.Login(c.Request.Context(), req.ExchangeToken)
	if err != nil {
		if errors.Is(err, identity.ErrVerificationFailed) {
			respondError(c, http.StatusUnauthorized, "identity verification failed")
			return
		}
		log.Error().Err(err).Msg("login failed")
		respondError(c, http.StatusInternalServerError, "internal error")
		return
	}

	respond(c, http.StatusOK, sessionBody(sess))
}

// Refresh rotates the caller's session, invalidating the token it was
// called with.
func (h *Handler) Refresh(c *gin.Context) {
	ident, ok := middleware.IdentityFromContext(c.Request.Context())
	if !ok {
		respondError(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	sess, err := h.sessions.Refresh(c.Request.Context(), ident.InternalID, ident.ExternalID)
	if err != nil {
		log.Error().Err(err).Msg("refresh failed")
		respondError(c, http.StatusInternalServerError, "internal error")
		return
	}

	respond(c, http.StatusOK, sessionBody(sess))
}

// Logout clears the caller's login state. It reads the token header
// directly rather than sitting behind the gate so that a dead token still
// gets a success response.
func (h *Handler) Logout(c *gin.Context) {
	outcome, err := h.sessions.Logout(c.Request.Context(), c.GetHeader(middleware.TokenHeader))
	if err != nil {
		log.Error().Err(err).Msg("logout failed")
		respondError(c, http.StatusInternalServerError, "internal error")
		return
	}

	respond(c, http.StatusOK, gin.H{"status": outcome.String()})
}

func sessionBody(sess *session.Session) gin.H {
	return gin.H{
		"token":     sess.Token,
		"expiresAt": sess.ExpiresAt.Unix(),
	}
}
