package cmd

import (
	"context"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/rueidis"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	config "workforce-tracker.com/workforce-tracker/internal/configs"
	"workforce-tracker.com/workforce-tracker/internal/lease"
	"workforce-tracker.com/workforce-tracker/internal/notifications"
	repository "workforce-tracker.com/workforce-tracker/internal/repositories"
	"workforce-tracker.com/workforce-tracker/internal/services"
	"workforce-tracker.com/workforce-tracker/internal/verification"
)

// app holds the dependencies shared by the serve and sweep commands.
type app struct {
	cfg        config.Config
	logger     *logrus.Logger
	db         *gorm.DB
	redis      rueidis.Client
	tasks      *repository.TaskRepository
	users      *repository.UserRepository
	hub        *notifications.Hub
	dispatcher *notifications.Dispatcher
}

func bootstrap() *app {
	if err := godotenv.Load(); err != nil {
		logrus.Info(".env file not found, using environment variables")
	}

	cfg := config.Load()
	logger := config.NewLogger(cfg.LogLevel, cfg.LogFormat)

	db := config.New(cfg.DatabaseDSN)

	a := &app{
		cfg:    cfg,
		logger: logger,
		db:     db,
		tasks:  repository.NewTaskRepository(db),
		users:  repository.NewUserRepository(db),
	}

	templates := notifications.DefaultTemplates()
	if cfg.NotificationTemplates != "" {
		loaded, err := notifications.LoadTemplates(cfg.NotificationTemplates)
		if err != nil {
			logger.Fatalf("failed to load notification templates: %v", err)
		}
		templates = loaded
	}

	a.dispatcher = notifications.NewDispatcher(
		a.channel(),
		templates,
		cfg.OperationsChannelID,
		time.Duration(cfg.ChannelTimeoutSeconds)*time.Second,
		logger,
	)

	return a
}

func (a *app) channel() notifications.Channel {
	switch a.cfg.ChannelDriver {
	case config.ChannelWebhook:
		return notifications.NewWebhookChannel(a.cfg.ChannelWebhookURL, time.Duration(a.cfg.ChannelTimeoutSeconds)*time.Second)
	case config.ChannelWebsocket:
		a.hub = notifications.NewHub(a.logger)
		return a.hub
	default:
		return notifications.NewLogChannel(a.logger)
	}
}

func (a *app) verificationStore() verification.Store {
	if a.cfg.VerificationStore != config.StoreRedis {
		return verification.NewMemoryStore()
	}
	return verification.NewRedisStore(a.redisClient(), a.cfg.RedisVerificationPrefix)
}

// redisClient connects on first use; only deployments that share state
// through Redis pay for it.
func (a *app) redisClient() rueidis.Client {
	if a.redis != nil {
		return a.redis
	}

	a.redis = config.NewRedisClient(a.cfg.RedisAddr)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.redis.Do(ctx, a.redis.B().Ping().Build()).Error(); err != nil {
		a.logger.Fatalf("failed to reach redis at %s: %v", a.cfg.RedisAddr, err)
	}
	return a.redis
}

func (a *app) reminderSweeper() *services.ReminderSweeper {
	interval := time.Duration(a.cfg.ReminderSweepIntervalSeconds) * time.Second

	sweeper := services.NewReminderSweeper(
		a.tasks,
		a.users,
		a.dispatcher,
		a.cfg.Timezone,
		interval,
		a.cfg.ReminderBatchSize,
		a.logger,
	)
	if a.cfg.VerificationStore == config.StoreRedis {
		sweeper.UseLease(lease.NewRedisLease(a.redisClient(), a.cfg.RedisSweepLeaseKey, interval))
	}
	return sweeper
}

func (a *app) mailer() notifications.Mailer {
	if a.cfg.SMTPHost == "" {
		a.logger.Warn("SMTP_HOST not set, verification codes will be logged")
		return notifications.NewLogMailer(a.logger)
	}
	return notifications.NewSMTPMailer(a.cfg.SMTPHost, a.cfg.SMTPPort, a.cfg.SMTPUsername, a.cfg.SMTPPassword, a.cfg.SMTPFrom)
}

func (a *app) close() {
	if a.redis != nil {
		a.redis.Close()
	}
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
