package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"anoa.com/jobapp/internal/auth"
	"anoa.com/jobapp/internal/bootstrap"
	"anoa.com/jobapp/internal/config"
	"anoa.com/jobapp/internal/server"
	"anoa.com/jobapp/pkg/database"
	"anoa.com/jobapp/pkg/logger"
	"anoa.com/jobapp/pkg/mailer"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	log := logger.New(cfg.AppEnv, cfg.LogLevel)
	slog.SetDefault(log)

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Connect(cfg.DatabaseURL, database.DefaultOptions())
	if err != nil {
		log.Error("database unavailable", "error", err)
		os.Exit(1)
	}
	if err := bootstrap.Migrate(db); err != nil {
		log.Error("migration failed", "error", err)
		os.Exit(1)
	}

	if cfg.IsDevelopment() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := bootstrap.SeedAdminUser(ctx, db, auth.NewBcryptHasher(cfg.BcryptCost), cfg.AdminSeedPassword, log)
		cancel()
		if err != nil {
			log.Warn("admin seed skipped", "error", err)
		}
	}

	redisClient := connectRedis(cfg.RedisURL, log)

	var mail mailer.Mailer
	if cfg.SMTPHost != "" {
		mail, err = mailer.NewSMTPMailer(mailer.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.MailFrom,
		})
		if err != nil {
			log.Error("invalid mail configuration", "error", err)
			os.Exit(1)
		}
	} else {
		log.Warn("SMTP_HOST not set, outgoing mail is only logged")
		mail = mailer.NewLogMailer(log)
	}

	srv, err := server.NewServer(cfg, db, redisClient, mail, log)
	if err != nil {
		log.Error("failed to build server", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runErr := srv.Run(ctx, ":"+cfg.Port)
	if err := srv.Close(); err != nil {
		log.Warn("failed to release connections", "error", err)
	}
	if runErr != nil {
		log.Error("server exited with error", "error", runErr)
		os.Exit(1)
	}
}

// connectRedis returns nil when redis is not configured or unreachable.
func connectRedis(url string, log *slog.Logger) *redis.Client {
	if url == "" {
		log.Warn("REDIS_URL not set, rate limiting disabled")
		return nil
	}

	opt, err := redis.ParseURL(url)
	if err != nil {
		log.Warn("invalid REDIS_URL, rate limiting disabled", "error", err)
		return nil
	}

	client := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn("redis unreachable, rate limiting disabled", "error", err)
		_ = client.Close()
		return nil
	}

	log.Info("connected to redis")
	return client
}
