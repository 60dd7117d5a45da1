package migration

import (
	"github.com/go-pg/migrations/v8"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	cs "github.com/webtor-io/common-services"
)

// Runner applies the SQL files under migrations/ to the configured database.
// Without a database it is a no-op, so the app can come up schemaless.
type Runner struct {
	pg  *cs.PG
	col *migrations.Collection
}

func NewRunner(pg *cs.PG, col *migrations.Collection) *Runner {
	return &Runner{
		pg:  pg,
		col: col,
	}
}

func (s *Runner) Run(args ...string) error {
	db := s.pg.Get()
	if db == nil {
		log.Info("no database configured, skipping migrations")
		return nil
	}
	s.col.DiscoverSQLMigrations("migrations")
	// go-pg tracks applied versions in its own table, created by "init"
	if _, _, err := s.col.Run(db, "init"); err != nil {
		return errors.Wrap(err, "create migrations table")
	}
	oldVersion, newVersion, err := s.col.Run(db, args...)
	if err != nil {
		return errors.Wrapf(err, "migrate schema from version %v", oldVersion)
	}
	if newVersion != oldVersion {
		log.Infof("schema migrated from version %d to %d", oldVersion, newVersion)
	} else {
		log.Infof("schema up to date at version %d", oldVersion)
	}
	return nil
}
