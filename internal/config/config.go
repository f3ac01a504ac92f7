package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host          string
	Port          int
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	IdleTimeout   time.Duration
	TemplatesGlob string
	StaticDir     string
}

type BackendConfig struct {
	BaseURL        string
	RequestTimeout time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Enabled  bool
}

type SessionConfig struct {
	CookieName      string
	CookieSecret    string
	CookieSecure    bool
	TTL             time.Duration
	RevalidateAfter time.Duration
}

type ProbeConfig struct {
	HealthSchedule string
	SweepSchedule  string
}

type AppConfig struct {
	Environment string
	HTTP        HTTPConfig
	Backend     BackendConfig
	Redis       RedisConfig
	Session     SessionConfig
	Probe       ProbeConfig
}

func Load() (*AppConfig, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("../config")

	v.SetEnvPrefix("WASTEWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.Session.CookieSecret == "" {
		return nil, fmt.Errorf("session.cookiesecret is required")
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 3000)
	v.SetDefault("http.readtimeout", "10s")
	v.SetDefault("http.writetimeout", "15s")
	v.SetDefault("http.idletimeout", "60s")
	v.SetDefault("http.templatesglob", "web/templates/*.html")
	v.SetDefault("http.staticdir", "web/static")

	v.SetDefault("backend.baseurl", "http://localhost:8000/api")
	v.SetDefault("backend.requesttimeout", "15s")

	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.enabled", true)

	v.SetDefault("session.cookiename", "ww_session")
	// Registered with an empty default so the env override is visible to
	// Unmarshal; Load still refuses to start without a real value.
	v.SetDefault("session.cookiesecret", "")
	v.SetDefault("session.cookiesecure", false)
	v.SetDefault("session.ttl", "720h") // 30 days
	v.SetDefault("session.revalidateafter", "5m")

	v.SetDefault("probe.healthschedule", "0 */1 * * * *")
	v.SetDefault("probe.sweepschedule", "0 0 * * * *")
}
