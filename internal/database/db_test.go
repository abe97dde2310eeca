package database

import (
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/restaurant-reservation/internal/config"
)

var testDB = config.DBConfig{User: "app", Pass: "secret", Host: "db", Port: "3306", Name: "restaurant"}

func TestDSN(t *testing.T) {
	dsn := DSN(testDB)
	assert.Contains(t, dsn, "app:secret@tcp(db:3306)/restaurant?")
	assert.Contains(t, dsn, "charset=utf8mb4")

	parsed, err := mysql.ParseDSN(dsn)
	require.NoError(t, err)
	assert.True(t, parsed.ParseTime)
	assert.True(t, parsed.ClientFoundRows)
	assert.Equal(t, time.UTC, parsed.Loc)
}

func TestDriverConfigSendsNoSessionParams(t *testing.T) {
	c := driverConfig(testDB)
	_, ok := c.Params["charset"]
	assert.False(t, ok)
	assert.Empty(t, c.Params)
	assert.Contains(t, c.FormatDSN(), "charset=utf8mb4")
}

func TestDSNWithoutPassword(t *testing.T) {
	dsn := DSN(config.DBConfig{User: "root", Host: "localhost", Port: "3306", Name: "restaurant"})
	assert.Contains(t, dsn, "root@tcp(localhost:3306)/restaurant?")
}
