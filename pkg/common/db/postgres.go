package db

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // Postgres driver
	"github.com/rs/zerolog/log"

	"github.com/provenanceworks/collectible-registry/pkg/common"
)

// Connect establishes the shared connection pool. Every mirror access goes
// through this pool; nothing opens ad hoc connections.
func Connect(cfg common.DBConfig) (*sql.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	// Retry loop for waiting for the DB to be ready.
	for i := 0; i < 5; i++ {
		err = db.Ping()
		if err == nil {
			break
		}
		log.Warn().Int("attempt", i+1).Err(err).Msg("waiting for database")
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}

	log.Info().Str("db", cfg.Name).Msg("connected to database")
	return db, nil
}
