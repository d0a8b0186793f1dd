package commands

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/statusdeck/statusdeck/internal/store"
	memorystore "github.com/statusdeck/statusdeck/internal/store/memory"
	postgresstore "github.com/statusdeck/statusdeck/internal/store/postgres"
)

type Globals struct {
	Debug   bool
	Version string
}

// StoreFlags selects and configures the backing store shared by the server
// and seed commands.
type StoreFlags struct {
	StoreType string             `help:"store type (memory or postgres)" default:"memory" env:"STATUSDECK_STORE_TYPE" enum:"memory,postgres"`
	Postgres  PostgresStoreFlags `embed:"" prefix:"postgres-"`
}

type PostgresStoreFlags struct {
	ConnString string `help:"PostgreSQL connection string" env:"POSTGRES_CONNECTION_STRING"`

	MaxConns        int32 `help:"maximum number of connections in pool" default:"20"`
	MinConns        int32 `help:"minimum number of connections in pool" default:"5"`
	MaxConnLifetime int32 `help:"maximum connection lifetime in seconds" default:"3600"`
	MaxConnIdleTime int32 `help:"maximum connection idle time in seconds" default:"1800"`

	AutoMigrate bool `help:"run database migrations on startup" default:"false" env:"STATUSDECK_POSTGRES_AUTO_MIGRATE"`
}

// openStore builds the directory store from flags. The returned close
// function releases the store's resources.
func (s *StoreFlags) openStore(ctx context.Context) (store.Directory, func(), error) {
	switch s.StoreType {
	case "memory":
		return memorystore.NewDirectory().Stores(), func() {}, nil

	case "postgres":
		if s.Postgres.ConnString == "" {
			return store.Directory{}, nil, errors.New("PostgreSQL connection string is required (--postgres-conn-string or POSTGRES_CONNECTION_STRING)")
		}

		dir, err := postgresstore.New(ctx, &postgresstore.Config{
			Pool: postgresstore.PoolConfig{
				ConnString:      s.Postgres.ConnString,
				MaxConns:        s.Postgres.MaxConns,
				MinConns:        s.Postgres.MinConns,
				MaxConnLifetime: s.Postgres.MaxConnLifetime,
				MaxConnIdleTime: s.Postgres.MaxConnIdleTime,
			},
			AutoMigrate: s.Postgres.AutoMigrate,
		})
		if err != nil {
			return store.Directory{}, nil, err
		}

		return dir.Stores(), dir.Close, nil

	default:
		return store.Directory{}, nil, errors.New("unknown store type: " + s.StoreType)
	}
}

func configureHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Minute,
		WriteTimeout:      0, // status streams stay open indefinitely
		IdleTimeout:       5 * time.Minute,
		MaxHeaderBytes:    8 * 1024, // 8KiB
	}
}
