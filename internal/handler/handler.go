// Package handler exposes the HTTP surface of the demo backend: humanID
// login, session refresh/logout, and the profile endpoints.
package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/bluenumberfoundation/moviedb-api/internal/session"
	"github.com/bluenumberfoundation/moviedb-api/internal/users"
)

// ClientSecretHeader carries the shared static secret the client app must
// present on login. It is checked before anything else happens.
const ClientSecretHeader = "X-Client-Secret"

type Handler struct {
	sessions     *session.Manager
	directory    users.Directory
	clientSecret []byte
}

func NewHandler(sessions *session.Manager, directory users.Directory, clientSecret string) *Handler {
	return &Handler{
		sessions:     sessions,
		directory:    directory,
		clientSecret: []byte(clientSecret),
	}
}

// RegisterRoutes wires the public and gated routes. Logout is deliberately
// outside the gate: presenting an already-invalid token must still succeed.
func (h *Handler) RegisterRoutes(r *gin.Engine, gate gin.HandlerFunc) {
	r.POST("/auth/login", h.Login)
	r.POST("/auth/logout", h.Logout)

	authed := r.Group("/")
	authed.Use(gate)
	authed.POST("/auth/refresh", h.Refresh)
	authed.GET("/users/profile", h.GetProfile)
	authed.PUT("/users/profile", h.UpdateProfile)
}
