package config

import "net/url"

// RedactedConfig returns a shallow copy of cfg with sensitive fields replaced
// by the redaction placeholder "***". Use this when logging or printing the
// active configuration so secrets are never accidentally exposed.
func RedactedConfig(cfg *Config) Config {
	out := *cfg // shallow copy of the top-level struct

	// Venues
	redact(&out.Polymarket.ApiKey)
	redact(&out.Kalshi.ApiKey)
	redact(&out.Limitless.ApiKey)
	redact(&out.Drift.ApiKey)
	redact(&out.Opinion.ApiKey)
	redact(&out.Myriad.ApiKey)

	// Redis
	redact(&out.Redis.Password)

	// AMQP URLs carry credentials in the userinfo part.
	out.AMQP.URL = redactURL(cfg.AMQP.URL)

	// Notify
	redact(&out.Notify.TelegramToken)
	redact(&out.Notify.DiscordWebhookURL)

	// Copy slices so callers cannot mutate the original through the redacted
	// copy.
	out.Engine.AllowedCategories = append([]string(nil), cfg.Engine.AllowedCategories...)
	out.Engine.RatingBands = append([]float64(nil), cfg.Engine.RatingBands...)
	out.Notify.Events = append([]string(nil), cfg.Notify.Events...)
	out.Server.CORSOrigins = append([]string(nil), cfg.Server.CORSOrigins...)

	return out
}

const redacted = "***"

// redact replaces a non-empty string with the redacted placeholder.
func redact(s *string) {
	if *s != "" {
		*s = redacted
	}
}

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return redacted
	}
	if u.User != nil {
		u.User = url.UserPassword(u.User.Username(), redacted)
	}
	return u.String()
}
