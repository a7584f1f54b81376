package database

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"bankly/config"
	"bankly/migrations"
	"bankly/utils"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Database представляет подключение к базе данных
type Database struct {
	DB *gorm.DB
}

const (
	connectAttempts = 10
	connectInterval = 2 * time.Second
)

// NewDatabase создает новое подключение к базе данных, настраивает пул и,
// если включено, применяет SQL миграции
func NewDatabase(cfg *config.Config) (*Database, error) {
	var (
		db  *gorm.DB
		err error
	)

	// База может подниматься одновременно с сервером, поэтому пробуем несколько раз
	for i := 0; i < connectAttempts; i++ {
		db, err = Open(cfg.DB.DSN(), cfg.DB.LogLevel)
		if err == nil {
			break
		}
		if i < connectAttempts-1 {
			utils.LogError("не удалось подключиться к базе данных, повторяем",
				"attempt", i+1, "max_attempts", connectAttempts, "error", err)
			time.Sleep(connectInterval)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к базе данных после %d попыток: %w", connectAttempts, err)
	}

	// Настраиваем пул соединений
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("ошибка получения пула соединений: %w", err)
	}
	sqlDB.SetMaxIdleConns(cfg.DB.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.DB.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.DB.ConnMaxLifetime)

	if cfg.DB.MigrateOnStart {
		if err := RunMigrations(cfg.DB.URL()); err != nil {
			return nil, fmt.Errorf("ошибка выполнения SQL миграций: %w", err)
		}
	}

	return &Database{DB: db}, nil
}

// Open открывает gorm-соединение и проверяет его ping-ом.
// TranslateError включен, чтобы нарушения уникальности приходили как gorm.ErrDuplicatedKey.
func Open(dsn, logLevel string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         newLogger(logLevel),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, err
	}
	return db, nil
}

// RunMigrations применяет встроенные SQL миграции
func RunMigrations(databaseURL string) error {
	source, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("ошибка открытия источника миграций: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, databaseURL)
	if err != nil {
		return fmt.Errorf("ошибка создания миграции: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("ошибка выполнения миграций: %w", err)
	}
	return nil
}

// newLogger строит логгер gorm по уровню из конфигурации
func newLogger(level string) logger.Interface {
	var logLevel logger.LogLevel
	switch level {
	case "info":
		logLevel = logger.Info
	case "warn":
		logLevel = logger.Warn
	case "silent":
		logLevel = logger.Silent
	default:
		logLevel = logger.Error
	}

	return logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logLevel,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
}

// Ping проверяет доступность базы, используется health-проверкой
func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Transaction выполняет fn в одной транзакции базы данных.
// Любая ошибка из fn откатывает все изменения.
func (d *Database) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return d.DB.WithContext(ctx).Transaction(fn)
}

// Close закрывает подключение к базе данных
func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
