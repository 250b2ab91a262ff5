package repositories

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"remit/internal/config"
	"remit/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DBConfig holds database connection pool configuration
type DBConfig struct {
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

var dbConfig = DBConfig{
	MaxIdleConns:    10,
	MaxOpenConns:    100,
	ConnMaxLifetime: time.Hour,
	ConnMaxIdleTime: time.Minute * 30,
}

// Open connects to Postgres and configures the connection pool.
func Open(cfg config.Config, l *slog.Logger) (*gorm.DB, error) {
	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  !cfg.IsProduction(),
		},
	)

	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get database instance: %w", err)
	}
	sqlDB.SetMaxIdleConns(config.GetIntEnv("DB_MAX_IDLE_CONNS", dbConfig.MaxIdleConns))
	sqlDB.SetMaxOpenConns(config.GetIntEnv("DB_MAX_OPEN_CONNS", dbConfig.MaxOpenConns))
	sqlDB.SetConnMaxLifetime(dbConfig.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(dbConfig.ConnMaxIdleTime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	l.Info("postgres connected", "host", cfg.DBHost, "database", cfg.DBName)
	return db, nil
}

// Migrate applies the schema for every persisted model.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Currency{},
		&models.PaymentCorridor{},
		&models.TransferPartner{},
		&models.Transfer{},
	)
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Store bundles the repositories the engine needs.
type Store struct {
	Transfers  TransferRepository
	Currencies CurrencyRepository
	Corridors  CorridorRepository
	Partners   PartnerRepository
}

// NewGormStore wires the Postgres-backed repositories.
func NewGormStore(db *gorm.DB) Store {
	return Store{
		Transfers:  NewTransferRepository(db),
		Currencies: NewCurrencyRepository(db),
		Corridors:  NewCorridorRepository(db),
		Partners:   NewPartnerRepository(db),
	}
}

// NewMemoryStore wires the in-memory repositories.
func NewMemoryStore() Store {
	return Store{
		Transfers:  NewMemoryTransferRepository(),
		Currencies: NewMemoryCurrencyRepository(),
		Corridors:  NewMemoryCorridorRepository(),
		Partners:   NewMemoryPartnerRepository(),
	}
}
