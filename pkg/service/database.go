package service

import (
	"context"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	_ "github.com/mattn/go-sqlite3"
)

var log = logrus.WithField("component", "service")

type DatabaseService struct {
	Driver string
	DSN    string
	DB     *sqlx.DB
}

func NewDatabaseService(driver, dsn string) (*DatabaseService, error) {
	if driver == "mysql" {
		var err error
		dsn, err = ReformatMysqlDSN(dsn)
		if err != nil {
			return nil, errors.Wrap(err, "invalid mysql dsn")
		}
	}

	return &DatabaseService{
		Driver: driver,
		DSN:    dsn,
	}, nil
}

func (s *DatabaseService) Connect() error {
	var err error
	s.DB, err = sqlx.Connect(s.Driver, s.DSN)
	return err
}

func (s *DatabaseService) Close() error {
	return s.DB.Close()
}

// Migrate creates the tables that do not exist yet.
func (s *DatabaseService) Migrate(ctx context.Context) error {
	dialect := GetDialect(s.Driver)
	for _, stmt := range dialect.SchemaSQL() {
		if _, err := s.DB.ExecContext(ctx, stmt); err != nil {
			return errors.Wrapf(err, "migrate %s", s.Driver)
		}
	}

	log.Infof("%s schema is up to date", s.Driver)
	return nil
}

func ReformatMysqlDSN(dsn string) (string, error) {
	config, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", err
	}

	config.ParseTime = true
	dsn = config.FormatDSN()
	return dsn, nil
}
