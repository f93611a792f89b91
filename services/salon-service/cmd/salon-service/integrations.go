package main

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/md-rashed-zaman/salonbook/libs/config"
	"github.com/md-rashed-zaman/salonbook/libs/httpx"
	"github.com/md-rashed-zaman/salonbook/libs/kafkax"
	"github.com/md-rashed-zaman/salonbook/libs/runtime"
	"github.com/md-rashed-zaman/salonbook/services/salon-service/internal/events"
	"github.com/md-rashed-zaman/salonbook/services/salon-service/internal/notify"
	"github.com/redis/go-redis/v9"
)

// buildNotifier picks the SMS provider from SMS_PROVIDER and adds SendGrid
// e-mail when it is configured.
func buildNotifier(logger *slog.Logger) (*notify.Dispatcher, error) {
	var sms notify.Sender
	switch provider := strings.ToLower(config.String("SMS_PROVIDER", "noop")); provider {
	case "twilio":
		s, err := notify.NewTwilioSender(notify.TwilioConfig{
			AccountSID: config.String("TWILIO_ACCOUNT_SID", ""),
			AuthToken:  config.String("TWILIO_AUTH_TOKEN", ""),
			FromNumber: config.String("TWILIO_FROM_NUMBER", ""),
		})
		if err != nil {
			return nil, err
		}
		sms = s
	case "webhook":
		sms = notify.NewWebhookSender(config.String("SMS_WEBHOOK_URL", ""), config.String("SMS_WEBHOOK_TOKEN", ""))
	case "noop":
		sms = notify.NewNoopSender()
	default:
		return nil, fmt.Errorf("SMS_PROVIDER must be one of twilio, webhook, noop (got %q)", provider)
	}

	var mailer notify.Mailer
	if config.String("SENDGRID_API_KEY", "") != "" {
		m, err := notify.NewSendGridMailer(notify.SendGridConfig{
			APIKey:    config.String("SENDGRID_API_KEY", ""),
			FromEmail: config.String("SENDGRID_FROM_EMAIL", ""),
			FromName:  config.String("SENDGRID_FROM_NAME", config.String("SALON_NAME", "")),
		})
		if err != nil {
			return nil, err
		}
		mailer = m
	}

	logger.Info("notifications configured", "sms_provider", sms.ProviderID(), "email", mailer != nil)
	return notify.NewDispatcher(notify.Config{
		SalonName:   config.String("SALON_NAME", ""),
		CountryCode: config.String("SMS_COUNTRY_CODE", "+1"),
	}, sms, mailer, logger), nil
}

func buildPublisher(logger *slog.Logger) (events.Publisher, *runtime.ReadyCheck) {
	brokers := config.String("KAFKA_BROKERS", "")
	pub := events.NewKafkaPublisher(brokers, config.String("BOOKING_EVENTS_TOPIC", "salon.booking.events"), logger)
	if len(kafkax.SplitBrokers(brokers)) == 0 {
		return pub, nil
	}
	return pub, &runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(brokers)}
}

// buildRateLimit uses Redis when REDIS_ADDR is set so replicas share one
// budget; otherwise each process limits on its own.
func buildRateLimit(logger *slog.Logger) (httpx.Middleware, *redis.Client, error) {
	perMinute, err := config.Int("RATE_LIMIT_PER_MINUTE", 120)
	if err != nil {
		return nil, nil, err
	}

	addr := config.String("REDIS_ADDR", "")
	if addr == "" {
		logger.Info("rate limiting enabled (in-memory)", "per_minute", perMinute)
		return httpx.NewRateLimiter(perMinute, time.Minute).Middleware(), nil, nil
	}

	redisDB, err := config.Int("REDIS_DB", 0)
	if err != nil {
		return nil, nil, err
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: config.String("REDIS_PASSWORD", ""),
		DB:       redisDB,
	})
	rl := httpx.NewRedisRateLimiter(rdb, perMinute, time.Minute, config.String("RATE_LIMIT_PREFIX", "salon:rl"))
	logger.Info("rate limiting enabled (redis)", "per_minute", perMinute, "redis_addr", addr)
	return rl.Middleware(logger, config.Bool("RATE_LIMIT_FAIL_OPEN", true)), rdb, nil
}
