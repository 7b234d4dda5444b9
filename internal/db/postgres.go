package db

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/ai-shadow/shadow-backend/internal/config"
	"github.com/ai-shadow/shadow-backend/internal/logger"
	"github.com/ai-shadow/shadow-backend/internal/types"
)

type PostgresService struct {
	db  *gorm.DB
	log *logger.Logger
}

// foreignKey names a relationship field on owner whose constraint is added
// after the tables exist.
type foreignKey struct {
	owner interface{}
	field string
	label string
}

var foreignKeys = []foreignKey{
	{&types.User{}, "Stats", "user_stats.user_id => users.id"},
	{&types.User{}, "Chats", "chats.user_id => users.id"},
	{&types.User{}, "PromptTemplates", "prompt_templates.user_id => users.id"},
	{&types.Chat{}, "Messages", "messages.chat_id => chats.id"},
}

func NewPostgresService(ctx context.Context, cfg *config.Config, log *logger.Logger) (*PostgresService, error) {
	serviceLog := log.With("service", "PostgresService")

	//1) Open the connection
	serviceLog.Info("Attempting to connect to Postgres DB now...", "host", cfg.DBHost, "port", cfg.DBPort, "dbname", cfg.DBName)
	gormLog := gormlogger.Default.LogMode(gormlogger.Warn)
	if cfg.IsProduction() {
		gormLog = gormlogger.Default.LogMode(gormlogger.Error)
	}
	db, err := gorm.Open(postgres.Open(cfg.PostgresDSN()), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		TranslateError:                           true,
		Logger:                                   gormLog,
	})
	if err != nil {
		serviceLog.Error("Failed to connect to Postgres DB", "error", err)
		return nil, fmt.Errorf("failed to connect to Postgres DB: %w", err)
	}

	//2) Size the pool
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.DBMaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.DBMaxOpenConns / 2)
	sqlDB.SetConnMaxIdleTime(30 * time.Second)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	//3) Make sure it answers
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		serviceLog.Error("Postgres DB did not answer ping", "error", err)
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping Postgres DB: %w", err)
	}
	serviceLog.Info("Successfully Connected to Postgres DB")

	return &PostgresService{db: db, log: serviceLog}, nil
}

// AutoMigrateAll creates or updates every table, then adds the foreign keys
// that were held back during migration. Safe to run on every start.
func (s *PostgresService) AutoMigrateAll(ctx context.Context) error {
	return MigrateAll(ctx, s.db, s.log)
}

// MigrateAll is AutoMigrateAll for any gorm handle.
func MigrateAll(ctx context.Context, db *gorm.DB, log *logger.Logger) error {
	log.Info("Starting AutoMigrateAll for all GORM models now...")
	gdb := db.WithContext(ctx)
	if err := gdb.AutoMigrate(Models()...); err != nil {
		log.Error("AutoMigrateAll failed for base tables", "error", err)
		return fmt.Errorf("failed to migrate tables: %w", err)
	}

	log.Info("Configuring foreign key relationships now...")
	m := gdb.Migrator()
	for _, fk := range foreignKeys {
		if m.HasConstraint(fk.owner, fk.field) {
			continue
		}
		if err := m.CreateConstraint(fk.owner, fk.field); err != nil {
			log.Error("Failed to add foreign key", "fk", fk.label, "error", err)
			return fmt.Errorf("failed to add foreign key %s: %w", fk.label, err)
		}
		log.Debug("Added foreign key", "fk", fk.label)
	}
	log.Info("AutoMigrateAll completed successfully")
	return nil
}

// Models lists every persisted model in dependency order.
func Models() []interface{} {
	return []interface{}{
		&types.User{},
		&types.UserStats{},
		&types.Chat{},
		&types.Message{},
		&types.PromptTemplate{},
	}
}

func (s *PostgresService) DB() *gorm.DB {
	return s.db
}

func (s *PostgresService) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
