package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/daromanx/qa-tracker/auth"
	"github.com/daromanx/qa-tracker/config"
	"github.com/daromanx/qa-tracker/controllers"
	"github.com/daromanx/qa-tracker/database"
	"github.com/daromanx/qa-tracker/mailer"
	"github.com/daromanx/qa-tracker/metrics"
	"github.com/daromanx/qa-tracker/middleware"
	"github.com/daromanx/qa-tracker/repository"
	"github.com/daromanx/qa-tracker/routes"
	"github.com/daromanx/qa-tracker/session"
	"github.com/daromanx/qa-tracker/validators"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// authPolicy builds the lockout and token policy from the environment.
func authPolicy(env *config.Env) auth.Policy {
	p := auth.DefaultPolicy()
	p.MaxPasswordAttempts = env.MaxPasswordAttempts
	p.PasswordLockout = env.PasswordLockout
	p.MaxMFAAttempts = env.MaxMFAAttempts
	p.MFALockout = env.MFALockout
	p.ChallengeTTL = env.ChallengeTTL
	p.ActivationTTL = env.ActivationTTL
	p.ActivationResendInterval = env.ActivationResendInterval
	p.ResetTTL = env.ResetTTL
	p.ResetInterval = env.ResetInterval
	p.ResetDailyLimit = env.ResetDailyLimit
	return p
}

func runServe(cmd *cobra.Command, args []string) error {
	db, err := database.Open(env)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	if err := prepareDatabase(cmd, db); err != nil {
		return err
	}

	redisClient, err := database.GetRedisClient(env.RedisAddr, env.RedisPass, env.RedisDB)
	if err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}
	defer redisClient.Close()

	notifier, err := mailer.New(env, log)
	if err != nil {
		return fmt.Errorf("configuring mailer: %w", err)
	}

	authMetrics, err := metrics.NewAuthMetrics(prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}
	httpMetrics, err := metrics.NewHTTPMetrics(prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}

	store := repository.NewGormStore(db)
	svc := auth.NewService(store, notifier,
		auth.WithPolicy(authPolicy(env)),
		auth.WithLogger(log),
		auth.WithRecorder(authMetrics),
		auth.WithPasswordCheck(validators.DefaultPasswordPolicy().Validate),
		auth.WithBaseURL(env.BaseURL),
		auth.WithDomainRestriction(env.RestrictDomains),
	)
	sessions := session.NewManager(db, redisClient, env.SessionTTL)
	pending := session.NewPendingMarker(env.SecretKey, env.ChallengeTTL)

	if env.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestID(), middleware.Logger(log), httpMetrics.Handler())

	authController := controllers.NewAuthController(svc, sessions, pending, log, env.IsProduction())
	userController := controllers.NewUserController(store, sessions)
	routes.SetupRoutes(router, authController, userController)
	routes.SetupOps(router, prometheus.DefaultGatherer,
		func(c *gin.Context) error { return redisClient.Ping(c.Request.Context()) },
		func(c *gin.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(c.Request.Context())
		},
	)

	srv := &http.Server{
		Addr:              ":" + env.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", zap.String("address", srv.Addr), zap.String("env", env.AppEnv))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	}
}
