/*
Package config loads runtime configuration from the environment.

PURPOSE:
  One place for every tunable: HTTP port, database path, log level, and the
  full pricing table. Values come from environment variables (optionally via
  a .env file) with production defaults baked in, so the binary runs with no
  configuration at all.

ENVIRONMENT VARIABLES (prefix TUITION_):
  TUITION_PORT                   HTTP port (default 8080)
  TUITION_DATABASE_PATH          SQLite path, ":memory:" allowed (default tuition.db)
  TUITION_LOG_LEVEL              zap level (default info)
  TUITION_SINGLE_STUDENT_FEE     Semester fee, first student (IQD)
  TUITION_ADDITIONAL_SIBLING_FEE Semester fee, each further sibling (IQD)
  TUITION_MONTHLY_FEE            Flat per-student monthly fee (IQD)
  TUITION_MAX_FAMILY_SIZE        Family size cap
  TUITION_SEMESTER_START         YYYY-MM-DD
  TUITION_SEMESTER_END           YYYY-MM-DD

Pricing changes take effect on restart; the table is immutable in-process.
*/
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/qalam/tuition-engine/billing"
)

// Config is the full runtime configuration.
type Config struct {
	Port         int    `mapstructure:"port"`
	DatabasePath string `mapstructure:"database_path"`
	LogLevel     string `mapstructure:"log_level"`

	SingleStudentFee     int64  `mapstructure:"single_student_fee"`
	AdditionalSiblingFee int64  `mapstructure:"additional_sibling_fee"`
	MonthlyFee           int64  `mapstructure:"monthly_fee"`
	MaxFamilySize        int    `mapstructure:"max_family_size"`
	SemesterStart        string `mapstructure:"semester_start"`
	SemesterEnd          string `mapstructure:"semester_end"`
}

// Load reads configuration from the environment, honoring a .env file when
// one exists.
func Load() (*Config, error) {
	// Best-effort; absence of a .env file is the normal case.
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("TUITION")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("port", 8080)
	v.SetDefault("database_path", "tuition.db")
	v.SetDefault("log_level", "info")
	v.SetDefault("single_student_fee", 25000)
	v.SetDefault("additional_sibling_fee", 20000)
	v.SetDefault("monthly_fee", 5000)
	v.SetDefault("max_family_size", 6)
	v.SetDefault("semester_start", "2026-01-01")
	v.SetDefault("semester_end", "2026-07-01")

	// AutomaticEnv alone does not surface env-only keys to Unmarshal; bind
	// each key explicitly.
	for _, key := range []string{
		"port", "database_path", "log_level",
		"single_student_fee", "additional_sibling_fee", "monthly_fee",
		"max_family_size", "semester_start", "semester_end",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}
	return &cfg, nil
}

// Pricing converts the raw settings into a validated pricing table.
func (c *Config) Pricing() (billing.PricingConfig, error) {
	start, err := time.Parse("2006-01-02", c.SemesterStart)
	if err != nil {
		return billing.PricingConfig{}, fmt.Errorf("invalid semester start %q: %w", c.SemesterStart, err)
	}
	end, err := time.Parse("2006-01-02", c.SemesterEnd)
	if err != nil {
		return billing.PricingConfig{}, fmt.Errorf("invalid semester end %q: %w", c.SemesterEnd, err)
	}
	return billing.NewPricingConfig(
		c.SingleStudentFee,
		c.AdditionalSiblingFee,
		c.MonthlyFee,
		c.MaxFamilySize,
		billing.NewPeriod(start, end),
	)
}
