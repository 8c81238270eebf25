package cli

import (
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"techfest_backend/internals/configs"
	database "techfest_backend/internals/databases"
	"techfest_backend/internals/features/events/catalog"
)

// Backends are the stores a command may touch. Tests replace connect.
type Backends struct {
	Config  configs.Config
	DB      *gorm.DB
	Redis   *redis.Client
	Catalog *catalog.Catalog
}

func (b *Backends) Close() {
	if b.Redis != nil {
		_ = b.Redis.Close()
	}
	database.Close(b.DB)
}

var connect = func(withRedis bool) (*Backends, error) {
	cfg := configs.Load()
	b := &Backends{Config: cfg}

	db, err := database.ConnectDB(cfg.DB)
	if err != nil {
		return nil, err
	}
	b.DB = db

	if b.Catalog, err = catalog.Load(cfg.Catalog); err != nil {
		b.Close()
		return nil, err
	}

	if withRedis {
		// optional: a missing Redis only skips cache purging
		b.Redis, _ = database.ConnectRedis(cfg.Redis)
	}
	return b, nil
}
