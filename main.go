package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"spendora-backend/authentication"
	"spendora-backend/category"
	"spendora-backend/config"
	"spendora-backend/expense"
	"spendora-backend/ledger"
	"spendora-backend/settings"
	"spendora-backend/users"
	"spendora-backend/version"
)

type handlers struct {
	auth     *authentication.Handler
	users    *users.Handler
	expenses *expense.Handler
	settings *settings.Handler
	category *category.Handler
}

func newHandlers(cfg *config.Config, logger *logrus.Logger, userStore users.Store, ledgerStore ledger.Store,
	settingsStore settings.Store, revoker authentication.Revoker, photos users.PhotoStorage) handlers {
	prefs := settings.NewHandler(settingsStore, cfg, logger)
	auth := authentication.NewHandler(userStore, authentication.NewTokens([]byte(cfg.JWTSecret), cfg.TokenTTL), revoker, logger)
	expenses := expense.NewHandler(ledgerStore, prefs, cfg, logger)

	// Live streams follow sign-outs and settings changes.
	expenses.CheckSessions(revoker)
	auth.OnSignout(expenses.EndSession)
	prefs.OnChange(expenses.PreferencesChanged)

	return handlers{
		auth:     auth,
		users:    users.NewHandler(userStore, photos, logger),
		expenses: expenses,
		settings: prefs,
		category: category.NewHandler(ledgerStore, logger),
	}
}

func corsConfig(cfg *config.Config) cors.Config {
	corsConfig := cors.DefaultConfig()
	if cfg.IsProduction() {
		// Deny all when no allowlist is configured.
		corsConfig.AllowOrigins = cfg.CORSAllowedOrigins
		if len(corsConfig.AllowOrigins) == 0 {
			corsConfig.AllowOriginFunc = func(string) bool { return false }
		}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "PUT", "DELETE", "OPTIONS")
	corsConfig.AddAllowHeaders("Origin", "Content-Type", "Authorization", requestIDHeader)
	corsConfig.AddExposeHeaders("Content-Length", "Content-Disposition", requestIDHeader)
	return corsConfig
}

func setupRouter(cfg *config.Config, logger *logrus.Logger, h handlers) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(logger), cors.New(corsConfig(cfg)))

	r.GET("/api/version", version.HandleGetInfo(cfg))
	r.POST("/api/signup", h.auth.HandleSignup)
	r.POST("/api/login", h.auth.HandleLogin)

	api := r.Group("/api", h.auth.AuthMiddleware())
	{
		api.POST("/signout", h.auth.HandleSignout)
		api.GET("/me", h.users.HandleMe)

		api.GET("/profile", h.users.HandleGetProfile)
		api.PUT("/profile", h.users.HandleUpdateProfile)
		api.POST("/profile/password", h.users.HandleChangePassword)
		api.PUT("/profile/photo", h.users.HandleUploadPhoto)
		api.DELETE("/profile/photo", h.users.HandleRemovePhoto)

		api.GET("/settings", h.settings.HandleGetSettings)
		api.PUT("/settings", h.settings.HandleUpdateSettings)

		api.GET("/categories", h.category.HandleGetCategories)

		api.GET("/expenses", h.expenses.HandleGetExpenses)
		api.POST("/expenses", h.expenses.HandleCreateExpense)
		api.PATCH("/expenses/:id", h.expenses.HandleUpdateExpense)
		api.DELETE("/expenses/:id", h.expenses.HandleDeleteExpense)
		api.GET("/expenses/stream", h.expenses.HandleStreamExpenses)
		api.POST("/expenses/import", h.expenses.HandleImportExpenses)
		api.GET("/expenses/export", h.expenses.HandleExportExpenses)
		api.GET("/dashboard", h.expenses.HandleGetDashboard)
	}
	return r
}

func main() {
	logger := config.GetLogger()
	cfg := config.Load()
	config.SetLogLevel(cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		logger.WithField("field", "config").Fatal(err.Error())
	}
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	mongoClient, err := config.ConnectMongo(sigCtx, cfg)
	if err != nil {
		logger.WithField("field", "database").Fatal(err.Error())
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			logger.WithField("field", "database").Warn("disconnect: " + err.Error())
		}
	}()
	db := mongoClient.Database(cfg.GetDatabaseName())

	userStore := users.NewMongoStore(db, cfg.CollectionUserName)
	ledgerStore := ledger.NewMongoStore(db, cfg.CollectionExpensesName, cfg.SnapshotPollInterval, logger)
	settingsStore := settings.NewMongoStore(db, cfg.CollectionSettingsName)
	if err := userStore.EnsureIndexes(sigCtx); err != nil {
		logger.WithField("field", "database").Fatal("user indexes: " + err.Error())
	}
	if err := ledgerStore.EnsureIndexes(sigCtx); err != nil {
		logger.WithField("field", "database").Fatal("expense indexes: " + err.Error())
	}

	var revoker authentication.Revoker = authentication.NewMemoryRevoker()
	rdb, err := config.ConnectRedis(sigCtx, cfg)
	if err != nil {
		logger.WithField("field", "redis").Fatal(err.Error())
	}
	if rdb != nil {
		defer rdb.Close()
		revoker = authentication.NewRedisRevoker(rdb)
	}

	var photos users.PhotoStorage
	if cfg.GCSBucket != "" {
		gcs, err := users.NewGCSPhotoStorage(sigCtx, cfg.GCSBucket, cfg.GCSCredentialsJSON)
		if err != nil {
			logger.WithField("field", "storage").Fatal(err.Error())
		}
		defer gcs.Close()
		photos = gcs
	} else {
		logger.Info("GCS_BUCKET not set; profile photo uploads are disabled")
	}

	h := newHandlers(cfg, logger, userStore, ledgerStore, settingsStore, revoker, photos)
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           setupRouter(cfg, logger, h),
		ReadHeaderTimeout: 10 * time.Second,
		// Snapshot streams end with the signal context.
		BaseContext: func(net.Listener) context.Context { return sigCtx },
	}

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- srv.ListenAndServe()
	}()
	logger.WithFields(logrus.Fields{
		"port": cfg.Port,
		"env":  cfg.AppEnv,
	}).Info("server started")

	select {
	case <-sigCtx.Done():
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithField("field", "http").Error("server stopped unexpectedly: " + err.Error())
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithField("field", "http").Error("graceful shutdown failed: " + err.Error())
	}
}
