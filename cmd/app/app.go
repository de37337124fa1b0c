package app

import (
	"context"
	"fmt"
	"os"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/vietanh2810/coffeeshop-api/internal/config"
	"github.com/vietanh2810/coffeeshop-api/internal/db"
	"github.com/vietanh2810/coffeeshop-api/internal/logger"
)

var configPath string

// Start runs the command line. Without a subcommand it serves HTTP.
func Start() error {
	root := &cobra.Command{
		Use:           "coffeeshop",
		Short:         "Coffee shop ordering storefront",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "./cmd/app/config.yml", "path to the config file")

	root.AddCommand(serveCmd(), migrateCmd(), seedCmd())

	return root.Execute()
}

func loadConfig() (*config.AppConfig, error) {
	conf, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize config -> %w", err)
	}

	if err = logger.Init(conf.API.Environment); err != nil {
		return nil, fmt.Errorf("failed to initialize logger -> %w", err)
	}

	return conf, nil
}

// openDB prefers DATABASE_URL, then a SQLite file, then the postgres block.
func openDB(conf *config.AppConfig) (*gorm.DB, error) {
	var (
		gdb *gorm.DB
		err error
	)

	switch dbURL := os.Getenv("DATABASE_URL"); {
	case dbURL != "":
		gdb, err = db.OpenPostgresWithURL(dbURL)
	case conf.SQLite != nil && conf.SQLite.Path != "":
		zap.L().Info("using sqlite storage", zap.String("path", conf.SQLite.Path))
		gdb, err = db.OpenSQLite(conf.SQLite.Path)
	default:
		gdb, err = db.OpenPostgres(conf.Postgres)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database -> %w", err)
	}

	return gdb, nil
}

// openRedis returns a nil client when no address is configured.
func openRedis(ctx context.Context, conf *config.RedisConfig) (*redis.Client, error) {
	if conf == nil || conf.Addr == "" {
		return nil, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     conf.Addr,
		Password: conf.Password,
		DB:       conf.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis -> %w", err)
	}

	return rdb, nil
}

func closeDB(gdb *gorm.DB) {
	sqlDB, err := gdb.DB()
	if err != nil {
		return
	}
	if err = sqlDB.Close(); err != nil {
		zap.L().Warn("closing database", zap.Error(err))
	}
}
