package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("TIME_ZONE", "UTC")

	cfg := FromEnv()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "UZS", cfg.ReportingCurrency)
	assert.Equal(t, "friend", cfg.InsightTone)
	assert.Equal(t, 2, cfg.MissingActivityDays)
	assert.Equal(t, 8*time.Second, cfg.InsightsTimeout)
	assert.Equal(t, time.UTC, cfg.Location)
	assert.False(t, cfg.ECBRefresh)
	assert.Equal(t, 0.35, cfg.NightSpendingShare)
	assert.Equal(t, 3, cfg.ShortfallWindowDays)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("REPORTING_CURRENCY", "usd")
	t.Setenv("TIME_ZONE", "Not/AZone")
	t.Setenv("INSIGHTS_TIMEOUT", "250ms")
	t.Setenv("INSIGHTS_API_URL", "https://insights.example.com/")
	t.Setenv("ECB_REFRESH", "true")
	t.Setenv("MISSING_ACTIVITY_DAYS", "three")
	t.Setenv("NIGHT_SPENDING_SHARE", "0.5")
	t.Setenv("ALLOWED_ORIGINS", " https://a.example , ,https://b.example")

	cfg := FromEnv()

	assert.Equal(t, "USD", cfg.ReportingCurrency)
	assert.Equal(t, "UTC", cfg.TimeZone)
	assert.Equal(t, 250*time.Millisecond, cfg.InsightsTimeout)
	assert.Equal(t, "https://insights.example.com", cfg.InsightsAPIURL)
	assert.True(t, cfg.ECBRefresh)
	assert.Equal(t, 2, cfg.MissingActivityDays)
	assert.Equal(t, 0.5, cfg.NightSpendingShare)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
}
