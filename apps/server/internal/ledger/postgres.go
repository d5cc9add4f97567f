package ledger

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/lib/pq"
)

var postgresDialect = dialect{
	name:       "postgres",
	idColumn:   "BIGSERIAL PRIMARY KEY",
	offsetOnly: "OFFSET ?",
	forUpdate:  "\nFOR UPDATE",
	numbered:   true,
}

type PostgresService struct {
	sqlService
}

func NewPostgresService(dsn string, recentLimit, savedLimit int) (*PostgresService, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &PostgresService{sqlService{
		db:          db,
		d:           postgresDialect,
		recentLimit: recentLimit,
		savedLimit:  savedLimit,
	}}
	if err := s.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}
