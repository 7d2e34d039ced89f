package migration

import (
	"database/sql"
	"embed"

	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// Run applies the embedded schema migrations against the store database.
func Run(db *sql.DB, logger zerolog.Logger) error {
	goose.SetBaseFS(embeddedMigrations)
	goose.SetLogger(&gooseAdapter{logger: logger.With().Str("component", "migration").Logger()})

	if err := goose.Up(db, "migrations"); err != nil {
		return errors.Wrap(err, "run migrations")
	}
	logger.Info().Msg("migrations completed")
	return nil
}

type gooseAdapter struct {
	logger zerolog.Logger
}

func (a *gooseAdapter) Fatalf(format string, v ...interface{}) {
	a.logger.Fatal().Msgf(format, v...)
}

func (a *gooseAdapter) Printf(format string, v ...interface{}) {
	a.logger.Info().Msgf(format, v...)
}
