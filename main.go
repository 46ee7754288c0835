package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver for database/sql (migrations)
	"go.uber.org/zap"

	"github.com/brightmall/backoffice-engine/pkg/auth"
	"github.com/brightmall/backoffice-engine/pkg/config"
	"github.com/brightmall/backoffice-engine/pkg/database"
	"github.com/brightmall/backoffice-engine/pkg/handlers"
	"github.com/brightmall/backoffice-engine/pkg/middleware"
	"github.com/brightmall/backoffice-engine/pkg/repositories"
	"github.com/brightmall/backoffice-engine/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("port", cfg.Port),
		zap.Bool("auth_verification", cfg.Auth.EnableVerification),
		zap.String("database", cfg.Database.Database),
	)

	ctx := context.Background()

	// Migrations run over database/sql; the service itself talks pgx.
	sqlDB, err := sql.Open("pgx", cfg.Database.ConnectionString())
	if err != nil {
		logger.Fatal("Failed to open migration connection", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, cfg.MigrationsPath, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}
	if err := sqlDB.Close(); err != nil {
		logger.Warn("Failed to close migration connection", zap.Error(err))
	}

	db, err := database.NewConnection(ctx, &database.Config{
		URL:            cfg.Database.ConnectionString(),
		MaxConnections: cfg.Database.MaxConnections,
	})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	validator, err := auth.NewJWKSClient(&auth.JWKSConfig{
		EnableVerification: cfg.Auth.EnableVerification,
		Endpoints:          cfg.Auth.JWKSEndpoints,
	})
	if err != nil {
		logger.Fatal("Failed to create JWKS client", zap.Error(err))
	}
	authService := auth.NewAuthService(validator, logger)
	authMiddleware := auth.NewMiddleware(authService, logger)

	// Repositories
	changeLogRepo := repositories.NewChangeLogRepository(db)
	userRepo := repositories.NewUserRepository(db)
	deptRepo := repositories.NewDepartmentRepository(db)
	categoryRepo := repositories.NewCategoryRepository(db)
	productRepo := repositories.NewProductRepository(db)
	orderRepo := repositories.NewOrderRepository(db)
	bookingRepo := repositories.NewBookingRepository(db)
	kitRepo := repositories.NewServiceKitRepository(db)

	// Services
	changeLogService := services.NewChangeLogService(changeLogRepo, logger)
	userService := services.NewUserService(userRepo, changeLogService, db, logger)
	deptService := services.NewDepartmentService(deptRepo, userRepo, changeLogService, db, logger)
	categoryService := services.NewCategoryService(categoryRepo, changeLogService, db, logger)
	productService := services.NewProductService(productRepo, deptRepo, changeLogService, db, logger)
	orderService := services.NewOrderService(orderRepo, userRepo, changeLogService, db, logger)
	bookingService := services.NewBookingService(bookingRepo, kitRepo, changeLogService, db, logger)
	kitService := services.NewServiceKitService(kitRepo, productRepo, changeLogService, db, logger)

	mux := http.NewServeMux()

	handlers.NewHealthHandler(cfg, db, logger).RegisterRoutes(mux)
	handlers.NewUsersHandler(userService, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewDepartmentsHandler(deptService, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewCategoriesHandler(categoryService, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewProductsHandler(productService, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewOrdersHandler(orderService, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewBookingsHandler(bookingService, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewServiceKitsHandler(kitService, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewChangeLogHandler(changeLogService, logger).RegisterRoutes(mux, authMiddleware)

	handler := middleware.RequestLogger(logger)(mux)

	addr := cfg.BindAddr + ":" + cfg.Port
	logger.Info("Starting backoffice-engine",
		zap.String("addr", addr),
		zap.String("version", cfg.Version))
	if err := http.ListenAndServe(addr, handler); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "local" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
