// Package persistence picks the task repository named by store.driver.
package persistence

import (
	"fmt"

	"github.com/taskboard/backend/internal/config"
	"github.com/taskboard/backend/internal/core/ports"
	"github.com/taskboard/backend/internal/infrastructure/db"
	"github.com/taskboard/backend/internal/infrastructure/filestore"
	"github.com/taskboard/backend/internal/infrastructure/logger"
)

type Store struct {
	Repository ports.TaskRepository
	Driver     string
	close      func() error
}

func (s *Store) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// Open prepares the backing store: the JSON file is created if absent, and
// relational backends are connected and migrated.
func Open(cfg config.StoreConfig, log *logger.Logger) (*Store, error) {
	switch cfg.Driver {
	case config.DriverJSON, "":
		repo, err := filestore.NewTaskRepository(filestore.Config{
			Path:       cfg.Path,
			StrictRead: cfg.StrictRead,
		}, log)
		if err != nil {
			return nil, err
		}
		if err := repo.EnsureFile(); err != nil {
			return nil, err
		}
		log.Infow("task_store_ready", "driver", config.DriverJSON, "path", cfg.Path)
		return &Store{Repository: repo, Driver: config.DriverJSON}, nil

	case config.DriverSQLite, config.DriverPostgres:
		database, err := db.Open(cfg.Driver, cfg.Database)
		if err != nil {
			return nil, err
		}
		if err := db.RunMigrations(database); err != nil {
			_ = db.Close(database)
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		log.Infow("task_store_ready", "driver", cfg.Driver)
		return &Store{
			Repository: db.NewTaskRepository(database, log),
			Driver:     cfg.Driver,
			close:      func() error { return db.Close(database) },
		}, nil

	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Driver)
	}
}
