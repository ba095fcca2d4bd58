package postgres

import (
	"context"
	_ "embed"
	"fmt"
	"sync"

	"github.com/XSAM/otelsql"
	"github.com/alimikegami/nextrans-go/config"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
)

var lock = &sync.Mutex{}
var db *sqlx.DB

//go:embed schema.sql
var schema string

func GetDBInstance(conf config.PostgreSQLConfig) (*sqlx.DB, error) {
	lock.Lock()
	defer lock.Unlock()

	if db != nil {
		log.Info().Str("component", "GetDBInstance").Msg("instance is already created")
		return db, nil
	}

	sqlDB, err := otelsql.Open("postgres",
		fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			conf.DBHost, conf.DBPort, conf.DBUsername, conf.DBPassword, conf.DBName),
		otelsql.WithAttributes(
			semconv.DBSystemPostgreSQL,
			semconv.DBNameKey.String(conf.DBName),
		),
		otelsql.WithSpanOptions(otelsql.SpanOptions{
			DisableQuery: true,
		}),
	)
	if err != nil {
		return nil, err
	}

	conn := sqlx.NewDb(sqlDB, "postgres")
	if err := conn.Ping(); err != nil {
		return nil, err
	}

	db = conn
	return db, nil
}

// Migrate creates the payment tables when they do not exist yet.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("applying schema: %w", err)
	}
	return nil
}
