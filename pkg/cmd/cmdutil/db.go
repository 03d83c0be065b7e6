package cmdutil

import (
	"context"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/c9s/hawkes/pkg/service"
)

var MaxConnectRetries uint64 = 5

// ConnectDatabase opens the result database, retrying with an exponential
// backoff, and creates the missing tables.
func ConnectDatabase(ctx context.Context, driver, dsn string) (*service.DatabaseService, error) {
	if driver == "" {
		driver = "sqlite3"
	}

	db, err := service.NewDatabaseService(driver, dsn)
	if err != nil {
		return nil, err
	}

	op := func() error {
		if err := db.Connect(); err != nil {
			logrus.WithError(err).Warnf("can not connect %s database, retrying", driver)
			return err
		}
		return nil
	}

	if err := backoff.Retry(op, backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), MaxConnectRetries),
		ctx)); err != nil {
		return nil, errors.Wrapf(err, "connect %s database", driver)
	}

	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}
