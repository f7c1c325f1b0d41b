package database

import (
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/iliyamo/adopter-login-api/internal/config"
	"github.com/iliyamo/adopter-login-api/internal/repository"
	"github.com/iliyamo/adopter-login-api/internal/repository/memory"
)

// OpenStores builds the backend selected by cfg.Store. For MySQL it opens
// the pool and, when enabled, applies the embedded migrations. The
// returned close func is never nil.
func OpenStores(cfg config.Config, log *zap.Logger) (repository.Stores, func(), error) {
	switch cfg.Store {
	case config.StoreMemory:
		log.Warn("using in-memory store, data is lost on exit")
		return memory.New(), func() {}, nil
	case config.StoreMySQL:
		db, err := Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
		if err != nil {
			return nil, nil, fmt.Errorf("open mysql: %w", err)
		}
		if cfg.DBAutoMigrate {
			if err := Migrate(db); err != nil {
				_ = db.Close()
				return nil, nil, fmt.Errorf("migrate: %w", err)
			}
			log.Info("migrations applied")
		}
		return repository.NewSQLStores(db), closeDB(db, log), nil
	}
	return nil, nil, fmt.Errorf("unknown STORE %q", cfg.Store)
}

func closeDB(db *sql.DB, log *zap.Logger) func() {
	return func() {
		if err := db.Close(); err != nil {
			log.Warn("close db", zap.Error(err))
		}
	}
}
