package bootstrap

import (
	"context"
	"crypto/tls"
	"strings"

	"github.com/redis/go-redis/v9"

	appconfig "github.com/clinicops/leadwatch/internal/config"
	"github.com/clinicops/leadwatch/internal/dashboard"
	"github.com/clinicops/leadwatch/internal/notify"
	"github.com/clinicops/leadwatch/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		return nil
	}
	return client
}

// BuildCursorStore wires cursor persistence. Falls back to in-memory when
// Redis is unavailable so the watcher still runs, with a warning: restarts
// will then re-initialize the cursor to "now".
func BuildCursorStore(redisClient *redis.Client, cfg *appconfig.Config, logger *logging.Logger) dashboard.CursorStore {
	if logger == nil {
		logger = logging.Default()
	}
	if redisClient == nil {
		logger.Warn("cursor persistence disabled, using in-memory store")
		return dashboard.NewMemoryCursorStore()
	}
	key := ""
	if cfg != nil {
		key = cfg.CursorKey
	}
	return dashboard.NewRedisCursorStore(redisClient, key)
}

// BuildLeadAlerter wires the optional email alert channel, or nil when not configured.
func BuildLeadAlerter(cfg *appconfig.Config, logger *logging.Logger) *notify.Service {
	if cfg == nil {
		return nil
	}
	sender := notify.NewSendGridSender(notify.SendGridConfig{
		APIKey:    cfg.SendGridAPIKey,
		FromEmail: cfg.SendGridFromEmail,
		FromName:  cfg.SendGridFromName,
	}, logger)
	if sender == nil {
		return nil
	}
	return notify.NewService(sender, cfg.AlertRecipients, logger)
}

// BuildDispatcher wires the operator alert dispatcher from config, using the
// log-backed capability surfaces for headless runs.
func BuildDispatcher(cfg *appconfig.Config, logger *logging.Logger) *dashboard.Dispatcher {
	if logger == nil {
		logger = logging.Default()
	}

	perm := dashboard.PermissionGranted
	if cfg != nil && !cfg.AlertsEnabled {
		perm = dashboard.PermissionDenied
	}

	var audio dashboard.AudioCue
	if cfg == nil || cfg.AlertSoundEnabled {
		audio = dashboard.NewLogAudioCue(logger)
	}

	return dashboard.NewDispatcher(
		dashboard.StaticPermission(perm),
		audio,
		dashboard.NewLogSystemNotifier(logger),
		dashboard.NewMemoryTitleBar("Clinic Dashboard"),
		dashboard.NewLogViewport(logger),
		logger,
	)
}
