package db

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/vietanh2810/coffeeshop-api/internal/config"
)

func OpenPostgres(conf *config.PostgresConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		conf.Host, conf.User, conf.Password, conf.DB, conf.Port, conf.SSLMode,
	)

	return OpenPostgresWithURL(dsn)
}

func OpenPostgresWithURL(url string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(url), newGormConfig(false))
	if err != nil {
		return nil, fmt.Errorf("gorm.Open -> %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("db.DB -> %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	return db, nil
}

// OpenSQLite opens a file database, or a private in-memory one for ":memory:".
// A single connection is kept open so an in-memory database survives between
// queries. SQLite errors are translated to gorm errors since there is no
// pgconn error to inspect.
func OpenSQLite(path string) (*gorm.DB, error) {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}

	db, err := gorm.Open(sqlite.Open(path+sep+"_foreign_keys=on"), newGormConfig(true))
	if err != nil {
		return nil, fmt.Errorf("gorm.Open -> %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("db.DB -> %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	return db, nil
}

func newGormConfig(translateErrors bool) *gorm.Config {
	return &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
		TranslateError: translateErrors,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}
}
