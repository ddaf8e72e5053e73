package migration

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	auditdomain "github.com/smallbiznis/pathway/internal/audit/domain"
	collectiondomain "github.com/smallbiznis/pathway/internal/collection/domain"
	coursedomain "github.com/smallbiznis/pathway/internal/course/domain"
	organizationdomain "github.com/smallbiznis/pathway/internal/organization/domain"
	paymentsconfigdomain "github.com/smallbiznis/pathway/internal/paymentsconfig/domain"
	traildomain "github.com/smallbiznis/pathway/internal/trail/domain"
	"gorm.io/gorm"
)

// RunMigrations applies the embedded SQL migrations to a postgres database.
func RunMigrations(db *sql.DB) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}

	src, err := newSource()
	if err != nil {
		return err
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	upErr := migrator.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", upErr)
	}
	// Do not call migrator.Close here because it would close the shared *sql.DB.

	return nil
}

func newSource() (source.Driver, error) {
	sub, err := fs.Sub(embeddedMigrations, migrationsDir)
	if err != nil {
		return nil, fmt.Errorf("open migrations: %w", err)
	}
	driver, err := iofs.New(sub, ".")
	if err != nil {
		return nil, fmt.Errorf("create migration source: %w", err)
	}
	return driver, nil
}

// Models lists every table owned by the service, in dependency order.
func Models() []any {
	return []any{
		&organizationdomain.Organization{},
		&organizationdomain.OrganizationMember{},
		&coursedomain.Course{},
		&paymentsconfigdomain.PaymentsConfig{},
		&traildomain.Trail{},
		&traildomain.TrailRun{},
		&traildomain.TrailStep{},
		&collectiondomain.Collection{},
		&collectiondomain.CollectionCourse{},
		&auditdomain.AuditLog{},
	}
}

// AutoMigrate creates the schema from the gorm models. It is used for
// dialects the SQL migrations do not target.
func AutoMigrate(conn *gorm.DB) error {
	if conn == nil {
		return errors.New("migration database handle is required")
	}
	return conn.AutoMigrate(Models()...)
}
