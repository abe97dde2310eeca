package database

import (
	"context"
	"database/sql"
	"net"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/restaurant-reservation/internal/config"
)

// Open connects to MySQL and verifies the connection.
func Open(ctx context.Context, cfg config.DBConfig) (*sql.DB, error) {
	connector, err := mysql.NewConnector(driverConfig(cfg))
	if err != nil {
		return nil, err
	}
	db := sql.OpenDB(connector)

	// seat and clear hold row locks only for the length of one transaction
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// DSN returns the connection string Open uses; the migrator shares it.
func DSN(cfg config.DBConfig) string {
	return driverConfig(cfg).FormatDSN()
}

// driverConfig: DATE and DATETIME scan into UTC time.Time, and
// RowsAffected counts matched rows so an UPDATE that changes nothing is
// not mistaken for a missing row.  Params is sent as SET statements on
// every connection, so the charset goes through the Charset option.
func driverConfig(cfg config.DBConfig) *mysql.Config {
	c := mysql.NewConfig()
	c.User = cfg.User
	c.Passwd = cfg.Pass
	c.Net = "tcp"
	c.Addr = net.JoinHostPort(cfg.Host, cfg.Port)
	c.DBName = cfg.Name
	c.ParseTime = true
	c.Loc = time.UTC
	c.ClientFoundRows = true
	_ = c.Apply(mysql.Charset("utf8mb4", "")) // Charset never fails
	return c
}
