package api

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/FACorreiaa/campusnest-api/internal/domain/auth/handler"
	"github.com/FACorreiaa/campusnest-api/internal/domain/auth/repository"
	"github.com/FACorreiaa/campusnest-api/internal/domain/auth/service"
	"github.com/FACorreiaa/campusnest-api/internal/domain/favorites"
	favoriteshandler "github.com/FACorreiaa/campusnest-api/internal/domain/favorites/handler"
	"github.com/FACorreiaa/campusnest-api/internal/domain/inquiries"
	inquirieshandler "github.com/FACorreiaa/campusnest-api/internal/domain/inquiries/handler"
	"github.com/FACorreiaa/campusnest-api/internal/domain/listings"
	listingshandler "github.com/FACorreiaa/campusnest-api/internal/domain/listings/handler"
	"github.com/FACorreiaa/campusnest-api/internal/domain/recents"
	recentshandler "github.com/FACorreiaa/campusnest-api/internal/domain/recents/handler"
	"github.com/FACorreiaa/campusnest-api/internal/domain/roommates"
	roommateshandler "github.com/FACorreiaa/campusnest-api/internal/domain/roommates/handler"
	"github.com/FACorreiaa/campusnest-api/internal/domain/statistics"
	statisticshandler "github.com/FACorreiaa/campusnest-api/internal/domain/statistics/handler"
	"github.com/FACorreiaa/campusnest-api/internal/domain/users"
	usershandler "github.com/FACorreiaa/campusnest-api/internal/domain/users/handler"
	"github.com/FACorreiaa/campusnest-api/pkg/config"
	"github.com/FACorreiaa/campusnest-api/pkg/db"
)

// Dependencies holds all application dependencies
type Dependencies struct {
	Config *config.Config
	DB     *db.DB
	Logger *slog.Logger

	sqlDB *sql.DB

	// Repositories
	AuthRepo      repository.AuthRepository
	UsersRepo     users.Repository
	RoommatesRepo roommates.Repository
	ListingsRepo  listings.Repository
	FavoritesRepo favorites.Repository
	InquiriesRepo inquiries.Repository
	RecentsRepo   recents.Repository
	StatsRepo     statistics.Repository

	// Services
	TokenManager     service.TokenManager
	GoogleProvider   *service.GoogleProvider
	AuthService      *service.AuthService
	UsersService     users.Service
	RoommatesService roommates.Service
	ListingsService  listings.Service
	FavoritesService favorites.Service
	InquiriesService inquiries.Service
	RecentsService   recents.Service
	StatsService     statistics.Service

	// Handlers
	AuthHandler      *handler.AuthHandler
	UsersHandler     *usershandler.UsersHandler
	RoommatesHandler *roommateshandler.RoommatesHandler
	ListingsHandler  *listingshandler.ListingsHandler
	FavoritesHandler *favoriteshandler.FavoritesHandler
	InquiriesHandler *inquirieshandler.InquiriesHandler
	RecentsHandler   *recentshandler.RecentsHandler
	StatsHandler     *statisticshandler.StatisticsHandler
}

// InitDependencies initializes all application dependencies
func InitDependencies(cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initDatabase(); err != nil {
		return nil, fmt.Errorf("failed to init database: %w", err)
	}

	if err := deps.initRepositories(); err != nil {
		deps.Cleanup()
		return nil, fmt.Errorf("failed to init repositories: %w", err)
	}

	if err := deps.initServices(); err != nil {
		deps.Cleanup()
		return nil, fmt.Errorf("failed to init services: %w", err)
	}

	deps.initHandlers()

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// OpenDatabase connects the pool without wiring anything else. The migrate
// command uses it on its own.
func OpenDatabase(cfg *config.Config, logger *slog.Logger) (*db.DB, error) {
	return db.New(db.Config{
		DSN:             cfg.Database.DSN(),
		MaxConns:        cfg.Database.MaxConns,
		MinConns:        cfg.Database.MinConns,
		MaxConnLifetime: cfg.Database.MaxConnLifetime,
		MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
	}, logger)
}

// initDatabase opens the pool and applies pending migrations
func (d *Dependencies) initDatabase() error {
	database, err := OpenDatabase(d.Config, d.Logger)
	if err != nil {
		return err
	}
	d.DB = database

	if err := d.DB.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	d.Logger.Info("database connected and migrations completed successfully")
	return nil
}

func (d *Dependencies) initRepositories() error {
	// The auth repository is written against database/sql.
	sqlDB, err := sql.Open("pgx", d.Config.Database.DSN())
	if err != nil {
		return fmt.Errorf("failed to open sql DB: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return fmt.Errorf("failed to ping sql DB: %w", err)
	}
	d.sqlDB = sqlDB

	d.AuthRepo = repository.NewPostgresAuthRepository(sqlDB)
	d.UsersRepo = users.NewRepositoryImpl(d.DB.Pool, d.Logger)
	d.RoommatesRepo = roommates.NewRepositoryImpl(d.DB.Pool, d.Logger)
	d.ListingsRepo = listings.NewRepositoryImpl(d.DB.Pool, d.Logger)
	d.FavoritesRepo = favorites.NewRepositoryImpl(d.DB.Pool, d.Logger)
	d.InquiriesRepo = inquiries.NewRepositoryImpl(d.DB.Pool, d.Logger)
	d.RecentsRepo = recents.NewRepository(d.DB.Pool, d.Logger)
	d.StatsRepo = statistics.NewRepository(d.Logger, d.DB.Pool)

	d.Logger.Info("repositories initialized")
	return nil
}

func (d *Dependencies) initServices() error {
	auth := d.Config.Auth
	d.TokenManager = service.NewJWTTokenManager(auth.JWTSecret, auth.AccessTokenTTL, auth.RefreshTokenTTL)

	var oauth service.OAuthProvider
	if auth.GoogleEnabled() {
		d.GoogleProvider = service.NewGoogleProvider(auth.GoogleClientID, auth.GoogleClientSecret, auth.GoogleCallbackURL, d.Logger)
		oauth = d.GoogleProvider
	} else {
		d.Logger.Warn("google sign-in disabled: client credentials not configured")
	}
	d.AuthService = service.NewAuthService(d.AuthRepo, d.TokenManager, oauth, d.Logger, auth.RefreshTokenTTL)

	d.UsersService = users.NewService(d.UsersRepo, d.Logger)
	d.RoommatesService = roommates.NewService(d.RoommatesRepo, d.Logger)
	d.ListingsService = listings.NewService(d.ListingsRepo, d.Logger, listings.Options{
		ViewDedupWindow: d.Config.Listings.ViewDedupWindow,
		PopularCacheTTL: d.Config.Listings.PopularCacheTTL,
	})
	d.FavoritesService = favorites.NewService(d.FavoritesRepo, d.Logger)
	d.InquiriesService = inquiries.NewService(d.InquiriesRepo, d.Logger)
	d.RecentsService = recents.NewService(d.RecentsRepo, d.Logger)
	d.StatsService = statistics.NewService(d.StatsRepo, d.FavoritesService, d.InquiriesService,
		d.Config.Listings.OverviewCacheTTL, d.Logger)

	d.Logger.Info("services initialized")
	return nil
}

func (d *Dependencies) initHandlers() {
	d.AuthHandler = handler.NewAuthHandler(d.AuthService, d.Logger)
	if d.GoogleProvider != nil {
		secret := d.Config.Auth.SessionSecret
		if secret == "" {
			secret = d.Config.Auth.JWTSecret
		}
		handler.ConfigureOAuth(secret, d.Config.Mode == "production", d.GoogleProvider.Goth())
	}
	d.UsersHandler = usershandler.NewUsersHandler(d.UsersService)
	d.RoommatesHandler = roommateshandler.NewRoommatesHandler(d.RoommatesService)
	d.ListingsHandler = listingshandler.NewListingsHandler(d.ListingsService)
	d.FavoritesHandler = favoriteshandler.NewFavoritesHandler(d.FavoritesService)
	d.InquiriesHandler = inquirieshandler.NewInquiriesHandler(d.InquiriesService)
	d.RecentsHandler = recentshandler.NewRecentsHandler(d.RecentsService)
	d.StatsHandler = statisticshandler.NewStatisticsHandler(d.StatsService)
	d.Logger.Info("handlers initialized")
}

// Cleanup closes all resources
func (d *Dependencies) Cleanup() {
	if d.sqlDB != nil {
		d.sqlDB.Close()
	}
	if d.DB != nil {
		d.DB.Close()
	}
	d.Logger.Info("cleanup completed")
}
