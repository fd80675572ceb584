package dataaccess

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Jacobbrewer1/v0bot/pkg/dataaccess/connection"
	"github.com/Jacobbrewer1/v0bot/pkg/dataaccess/monitoring"
	"github.com/Jacobbrewer1/v0bot/pkg/entities"
	"github.com/prometheus/client_golang/prometheus"
)

const roleMappingDalName = "role_mapping_dal"

// Backend names a role mapping store backend.
type Backend string

const (
	BackendFile   Backend = "file"
	BackendMongo  Backend = "mongo"
	BackendSQLite Backend = "sqlite"
)

// RoleMappingDal persists the reaction role mappings, keyed by message ID.
type RoleMappingDal interface {
	// Load reads every mapping.
	Load(ctx context.Context) (map[string]*entities.RoleMapping, error)

	// Save creates or replaces the mapping of a message.
	Save(ctx context.Context, messageID string, mapping *entities.RoleMapping) error

	// Delete removes the mapping of a message. Deleting an unknown message is not an error.
	Delete(ctx context.Context, messageID string) error

	// Ping checks the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases the backend.
	Close(ctx context.Context) error
}

// Config selects and locates the backend.
type Config struct {
	Backend Backend

	// Path is the JSON file for the file backend and the database file for the sqlite backend.
	Path string

	// MongoURI is the connection string of the mongo backend.
	MongoURI string
}

// NewRoleMappingDal opens the configured backend.
func NewRoleMappingDal(ctx context.Context, l *slog.Logger, cfg *Config) (RoleMappingDal, error) {
	switch cfg.Backend {
	case BackendFile, "":
		return NewFileDal(l, cfg.Path), nil
	case BackendSQLite:
		db, err := connection.OpenSQLite(ctx, cfg.Path)
		if err != nil {
			return nil, err
		}
		if err := connection.MigrateSQLite(db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("error migrating sqlite: %w", err)
		}
		return NewSQLiteDal(l, db), nil
	case BackendMongo:
		client, err := (&connection.MongoDB{ConnectionString: cfg.MongoURI}).Connect(ctx)
		if err != nil {
			return nil, err
		}
		return NewMongoDal(l, client), nil
	}
	return nil, fmt.Errorf("unsupported store backend: %q", cfg.Backend)
}

// observe starts the metrics of one query. The returned function records the outcome.
func observe(backend Backend, query string) func(err error) {
	monitoring.StoreTotalRequests.WithLabelValues(roleMappingDalName, query, string(backend)).Inc()
	t := prometheus.NewTimer(monitoring.StoreLatency.WithLabelValues(roleMappingDalName, query, string(backend)))
	return func(err error) {
		t.ObserveDuration()
		if err != nil {
			monitoring.StoreErrors.WithLabelValues(roleMappingDalName, query, string(backend)).Inc()
		}
	}
}
