package storage

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	maxOpenConns    = 20
	connMaxIdleTime = 5 * time.Minute
	pingTimeout     = 5 * time.Second
)

// GormConfig is the configuration every PostgreSQL connection uses.
// Driver errors are translated so unique violations surface as
// gorm.ErrDuplicatedKey.
func GormConfig(level gormlogger.LogLevel) *gorm.Config {
	return &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(level),
	}
}

// OpenPostgres connects to dsn, sizes the pool and checks the server is
// reachable.
func OpenPostgres(ctx context.Context, dsn string, level gormlogger.LogLevel) (*Service, error) {
	if dsn == "" {
		return nil, goerr.New("postgres dsn is empty")
	}

	db, err := gorm.Open(postgres.Open(dsn), GormConfig(level))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to connect to postgres")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to access connection pool")
	}
	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, goerr.Wrap(err, "failed to reach postgres")
	}
	return NewStorageService(db), nil
}

// Close releases the connection pool.
func (s *Service) Close() error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return goerr.Wrap(err, "failed to access connection pool")
	}
	return sqlDB.Close()
}
