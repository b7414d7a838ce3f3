package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestFromViperDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg := fromViper(v)
	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "https://api.wiseoldman.net/v2", cfg.WOM.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.WOM.Timeout)
	assert.Equal(t, 7, cfg.Claims.DefaultExpiryDays)
	assert.Equal(t, "@every 6h", cfg.Sync.GoalSchedule)
	assert.False(t, cfg.Sync.Enabled)
	assert.Equal(t, 5*time.Minute, cfg.StatsCache.TTL)
}

func TestFromViperOverrides(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("WOM_BASE_URL", "http://localhost:9000/")
	v.Set("WOM_TIMEOUT", "not-a-duration")
	v.Set("CLAIM_CODE_DEFAULT_EXPIRY_DAYS", -3)
	v.Set("ALLOWED_ORIGINS", "https://a.example, ,https://b.example")

	cfg := fromViper(v)
	assert.Equal(t, "http://localhost:9000", cfg.WOM.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.WOM.Timeout)
	assert.Equal(t, 0, cfg.Claims.DefaultExpiryDays)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
}
