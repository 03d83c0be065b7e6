package service

import (
	sq "github.com/Masterminds/squirrel"
)

// DatabaseDialect provides database-specific SQL syntax
type DatabaseDialect interface {
	// SchemaSQL returns the idempotent statements creating the tables
	SchemaSQL() []string

	EscapeTableName(name string) string

	// Query builder configuration
	ConfigurePlaceholder(builder sq.SelectBuilder) sq.SelectBuilder
}

// GetDialect returns the appropriate dialect for the given driver name
func GetDialect(driverName string) DatabaseDialect {
	switch driverName {
	case "mysql":
		return &MySQLDialect{}
	case "sqlite3":
		return &SQLiteDialect{}
	default:
		return &SQLiteDialect{} // default fallback
	}
}

// MySQLDialect implements MySQL-specific SQL syntax
type MySQLDialect struct{}

func (d *MySQLDialect) SchemaSQL() []string {
	return []string{
		"CREATE TABLE IF NOT EXISTS `fit_results`\n(\n" +
			"    `gid`          BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,\n" +
			"    `run_id`       CHAR(36)        NOT NULL,\n" +
			"    `solver`       VARCHAR(32)     NOT NULL,\n" +
			"    `window_index` INT             NOT NULL,\n" +
			"    `guess_beta`   DOUBLE          NOT NULL,\n" +
			"    `guess_kappa`  DOUBLE          NOT NULL,\n" +
			"    `guess_theta`  DOUBLE          NOT NULL,\n" +
			"    `beta`         DOUBLE          NULL,\n" +
			"    `kappa`        DOUBLE          NULL,\n" +
			"    `theta`        DOUBLE          NULL,\n" +
			"    `loglike`      DOUBLE          NULL,\n" +
			"    `mu`           DOUBLE          NULL,\n" +
			"    `duration`     DOUBLE          NOT NULL,\n" +
			"    `events`       INT             NOT NULL,\n" +
			"    `error`        TEXT            NOT NULL,\n" +
			"    `created_at`   DATETIME(3)     NOT NULL DEFAULT CURRENT_TIMESTAMP(3),\n" +
			"    PRIMARY KEY (`gid`),\n" +
			"    KEY `run_id` (`run_id`)\n" +
			");",
	}
}

func (d *MySQLDialect) EscapeTableName(name string) string {
	return "`" + name + "`"
}

func (d *MySQLDialect) ConfigurePlaceholder(builder sq.SelectBuilder) sq.SelectBuilder {
	// MySQL uses default placeholder format (?)
	return builder
}

// SQLiteDialect implements SQLite-specific SQL syntax
type SQLiteDialect struct{}

func (d *SQLiteDialect) SchemaSQL() []string {
	return []string{
		"CREATE TABLE IF NOT EXISTS `fit_results`\n(\n" +
			"    `gid`          INTEGER PRIMARY KEY AUTOINCREMENT,\n" +
			"    `run_id`       TEXT    NOT NULL,\n" +
			"    `solver`       TEXT    NOT NULL,\n" +
			"    `window_index` INTEGER NOT NULL,\n" +
			"    `guess_beta`   REAL    NOT NULL,\n" +
			"    `guess_kappa`  REAL    NOT NULL,\n" +
			"    `guess_theta`  REAL    NOT NULL,\n" +
			"    `beta`         REAL    NULL,\n" +
			"    `kappa`        REAL    NULL,\n" +
			"    `theta`        REAL    NULL,\n" +
			"    `loglike`      REAL    NULL,\n" +
			"    `mu`           REAL    NULL,\n" +
			"    `duration`     REAL    NOT NULL,\n" +
			"    `events`       INTEGER NOT NULL,\n" +
			"    `error`        TEXT    NOT NULL DEFAULT '',\n" +
			"    `created_at`   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP\n" +
			");",
		"CREATE INDEX IF NOT EXISTS `fit_results_run_id` ON `fit_results` (`run_id`);",
	}
}

func (d *SQLiteDialect) EscapeTableName(name string) string {
	return "`" + name + "`"
}

func (d *SQLiteDialect) ConfigurePlaceholder(builder sq.SelectBuilder) sq.SelectBuilder {
	// SQLite uses default placeholder format (?)
	return builder
}
