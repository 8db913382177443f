package app

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/bluenumberfoundation/moviedb-api/internal/config"
	"github.com/bluenumberfoundation/moviedb-api/internal/db"
)

type Infra struct {
	DB *db.DB
}

func setupInfra(ctx context.Context, cfg config.Config) (*Infra, error) {
	database, err := db.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, err
	}

	if err := database.Migrate(ctx); err != nil {
		database.Close()
		return nil, err
	}

	log.Info().Msg("database ready")

	return &Infra{DB: database}, nil
}
