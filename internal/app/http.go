package app

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/bluenumberfoundation/moviedb-api/internal/config"
	"github.com/bluenumberfoundation/moviedb-api/internal/handler"
	"github.com/bluenumberfoundation/moviedb-api/internal/identity"
	"github.com/bluenumberfoundation/moviedb-api/internal/middleware"
	"github.com/bluenumberfoundation/moviedb-api/internal/session"
	"github.com/bluenumberfoundation/moviedb-api/internal/users"
)

func setupHTTP(ctx context.Context, cfg config.Config) (*gin.Engine, func() error, error) {

	infra, err := setupInfra(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	// ----------------------------
	// Dependencies
	// ----------------------------

	directory := users.NewPostgresDirectory(infra.DB)

	verifier := identity.NewClient(
		cfg.HumanIDBaseURL,
		cfg.HumanIDAppID,
		cfg.HumanIDAppSecret,
		cfg.VerifierTimeout,
	)

	codec := session.NewCodec([]byte(cfg.SessionSecret))
	sessions := session.NewManager(codec, directory, verifier, cfg.SessionTTL)

	authHandler := handler.NewHandler(sessions, directory, cfg.ClientSecret)
	gate := middleware.GinRequireAuth(middleware.NewAuthMiddleware(sessions))

	// ----------------------------
	// Router
	// ----------------------------

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.AccessLog())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	authHandler.RegisterRoutes(router, gate)

	return router, func() error {
		return infra.DB.Close()
	}, nil
}
