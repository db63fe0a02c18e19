package config

import (
	"strings"

	"github.com/spf13/viper"

	applog "tillpos/internal/log"
)

type Config struct {
	Port           string `mapstructure:"PORT"`
	DBDSN          string `mapstructure:"DB_DSN"`
	LogFile        string `mapstructure:"LOG_FILE"`
	LogLevel       string `mapstructure:"LOG_LEVEL"`
	TemplatesDir   string `mapstructure:"TEMPLATES_DIR"`
	ManagerPIN     string `mapstructure:"MANAGER_PIN"`
	ManagerPINHash string `mapstructure:"MANAGER_PIN_HASH"`
	SeedDemo       bool   `mapstructure:"SEED_DEMO"`
	// LookupRate caps product lookups per client every 30 seconds.
	LookupRate int `mapstructure:"LOOKUP_RATE"`
}

var defaults = map[string]any{
	"PORT":             "8081",
	"DB_DSN":           "tillpos.db", // sqlite file in working dir
	"LOG_FILE":         "./tillpos.log",
	"LOG_LEVEL":        "info",
	"TEMPLATES_DIR":    "./web/templates",
	"MANAGER_PIN":      "",
	"MANAGER_PIN_HASH": "",
	"SEED_DEMO":        true,
	"LOOKUP_RATE":      30,
}

// Load reads environment variables, optionally overlaid on the file named by
// TILLPOS_CONFIG. A missing or unreadable file is logged and ignored.
func Load() Config {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.AutomaticEnv()

	if file := strings.TrimSpace(v.GetString("TILLPOS_CONFIG")); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			applog.Error(nil, "config.read", err, map[string]any{"file": file})
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		applog.Error(nil, "config.unmarshal", err, nil)
		cfg = Config{
			Port: v.GetString("PORT"), DBDSN: v.GetString("DB_DSN"), LogFile: v.GetString("LOG_FILE"),
			LogLevel: v.GetString("LOG_LEVEL"), TemplatesDir: v.GetString("TEMPLATES_DIR"),
			ManagerPIN: v.GetString("MANAGER_PIN"), ManagerPINHash: v.GetString("MANAGER_PIN_HASH"),
			SeedDemo: v.GetBool("SEED_DEMO"), LookupRate: v.GetInt("LOOKUP_RATE"),
		}
	}

	applog.Info(nil, "config.loaded", map[string]any{
		"port": cfg.Port, "db_dsn": cfg.DBDSN, "log_file": cfg.LogFile, "log_level": cfg.LogLevel,
		"templates_dir": cfg.TemplatesDir, "seed_demo": cfg.SeedDemo, "lookup_rate": cfg.LookupRate,
		"manager_pin_set": cfg.ManagerPIN != "" || cfg.ManagerPINHash != "",
	})
	return cfg
}
