package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qj0r9j0vc2/button-bridge/internal/domain/repository"
	"github.com/qj0r9j0vc2/button-bridge/internal/infrastructure/config"
)

func testConfig() *config.MySQLConfig {
	return &config.MySQLConfig{
		Primary: config.MySQLInstanceConfig{
			Host:     "localhost",
			Port:     3306,
			Database: "test_db",
			Username: "root",
			Password: "password",
		},
		Pool: config.MySQLPoolConfig{
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 3 * time.Minute,
			ConnMaxIdleTime: 1 * time.Minute,
		},
		Timeout:   2 * time.Second,
		ParseTime: true,
		Charset:   "utf8mb4",
	}
}

// openTestDB connects to a local MySQL or skips the test.
func openTestDB(t *testing.T) *DB {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db, err := NewDB(testConfig())
	if err != nil {
		t.Skipf("Skipping test: MySQL not available: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestNewDB_NilConfig(t *testing.T) {
	db, err := NewDB(nil)
	assert.Error(t, err)
	assert.Nil(t, db)
	assert.Contains(t, err.Error(), "config is required")
}

func TestBuildDSN(t *testing.T) {
	cfg := testConfig()
	cfg.Primary.Host = "mysql.example.com"
	cfg.Primary.Port = 3307
	cfg.Primary.Password = "p@ss:word"

	parsed, err := mysql.ParseDSN(buildDSN(cfg))
	require.NoError(t, err)

	assert.Equal(t, "root", parsed.User)
	assert.Equal(t, "p@ss:word", parsed.Passwd)
	assert.Equal(t, "tcp", parsed.Net)
	assert.Equal(t, "mysql.example.com:3307", parsed.Addr)
	assert.Equal(t, "test_db", parsed.DBName)
	assert.True(t, parsed.ParseTime)
	assert.Equal(t, 2*time.Second, parsed.Timeout)
	assert.Equal(t, time.UTC, parsed.Loc)
}

func TestMapError(t *testing.T) {
	assert.NoError(t, mapError(nil))
	assert.ErrorIs(t, mapError(sql.ErrNoRows), repository.ErrNotFound)
	assert.ErrorIs(t, mapError(fmt.Errorf("wrapped: %w", &mysql.MySQLError{Number: 1062})), repository.ErrAlreadyExists)

	other := &mysql.MySQLError{Number: 1146, Message: "Table doesn't exist"}
	assert.Equal(t, error(other), mapError(other))
}

func TestMigrator_LoadMigrations(t *testing.T) {
	migrations, err := (&Migrator{}).loadMigrations()
	require.NoError(t, err)
	require.NotEmpty(t, migrations)

	assert.Equal(t, 1, migrations[0].Version)
	assert.Equal(t, "initial", migrations[0].Name)
	assert.Contains(t, migrations[0].SQL, "CREATE TABLE IF NOT EXISTS session_records")

	for i := 1; i < len(migrations); i++ {
		assert.Greater(t, migrations[i].Version, migrations[i-1].Version)
	}
}

func TestMigrator_Up(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	m := NewMigrator(db.Primary())
	require.NoError(t, m.Up(ctx))
	require.NoError(t, m.Up(ctx), "second run is a no-op")

	version, err := m.Version(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, version, 1)
}

func TestDB_PingAndStats(t *testing.T) {
	db := openTestDB(t)

	assert.NoError(t, db.Ping(context.Background()))
	assert.Equal(t, 25, db.Stats().MaxOpenConnections)
}
