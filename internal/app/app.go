package app

import (
	"context"
	"database/sql"
	"os"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	libdb "parklot/libs/db"
	libredis "parklot/libs/redis"

	"parklot/internal/config"
	"parklot/internal/fare"
	"parklot/internal/migrations"
	"parklot/internal/models"
	redisstore "parklot/internal/redis"
	"parklot/internal/repository"
	"parklot/internal/service"
	"parklot/internal/shell"
)

// App wires the parking system dependencies.
type App struct {
	shell       *shell.Shell
	db          *sql.DB
	redisClient *redis.Client
	logger      *zap.Logger
}

// New constructs the application graph and applies migrations.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	sqlDB, err := libdb.NewPostgres(cfg.Database.DSN)
	if err != nil {
		return nil, err
	}

	if err := migrations.Up(sqlDB); err != nil {
		sqlDB.Close()
		return nil, err
	}

	var (
		redisClient *redis.Client
		cache       service.OpenTicketCache
	)
	if cfg.CacheEnabled() {
		redisClient, err = libredis.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			sqlDB.Close()
			return nil, err
		}
		cache = redisstore.NewStore(redisClient, cfg.OpenTicketTTL())
	}

	spotRepo := repository.NewSpotRepository(sqlDB)
	ticketRepo := repository.NewTicketRepository(sqlDB)
	calculator := fare.NewCalculator(rates(cfg))

	reader := shell.NewReader(os.Stdin, os.Stdout)
	parkingService := service.NewParkingService(spotRepo, ticketRepo, reader, cache, calculator, logger)
	menu := shell.NewShell(parkingService, reader, os.Stdout, logger)

	return &App{
		shell:       menu,
		db:          sqlDB,
		redisClient: redisClient,
		logger:      logger,
	}, nil
}

// Run drives the operator menu until shutdown.
func (a *App) Run(ctx context.Context) error {
	return a.shell.Run(ctx)
}

// Close releases resources.
func (a *App) Close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("failed to close db", zap.Error(err))
		}
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warn("failed to close redis", zap.Error(err))
		}
	}
}

func rates(cfg *config.Config) fare.Rates {
	table := fare.DefaultRates()
	if cfg.Fare.CarRate > 0 {
		table[models.VehicleTypeCar] = cfg.Fare.CarRate
	}
	if cfg.Fare.BikeRate > 0 {
		table[models.VehicleTypeBike] = cfg.Fare.BikeRate
	}
	return table
}
