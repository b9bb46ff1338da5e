package cmd

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/resume-radar/internal/api"
	"github.com/spigell/resume-radar/internal/jobs"
	"github.com/spigell/resume-radar/internal/orchestrator"
)

const (
	app = "resume-radar"
)

type Config struct {
	API       APIConfig           `mapstructure:"api"`
	Token     string              `mapstructure:"token"`
	TokenFile string              `mapstructure:"token-file"`
	Analysis  orchestrator.Config `mapstructure:"analysis"`
	Jobs      JobsConfig          `mapstructure:"jobs"`
	Metrics   MetricsConfig       `mapstructure:"metrics"`
}

type APIConfig struct {
	BaseURL   string        `mapstructure:"base-url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	UserAgent string        `mapstructure:"user-agent"`
	RateLimit float64       `mapstructure:"rate-limit"`
	RateBurst int           `mapstructure:"rate-burst"`
	Breaker   BreakerConfig `mapstructure:"breaker"`
}

type BreakerConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	MinRequests  uint32        `mapstructure:"min-requests"`
	FailureRatio float64       `mapstructure:"failure-ratio"`
	OpenTimeout  time.Duration `mapstructure:"open-timeout"`
}

type JobsConfig struct {
	Dedupe     bool          `mapstructure:"dedupe"`
	CacheHours int           `mapstructure:"cache-hours"`
	Filter     jobs.Criteria `mapstructure:"filter"`
	// ExcludeFile is a JSON list of companies hidden from every listing.
	ExcludeFile string `mapstructure:"exclude-file"`
}

type MetricsConfig struct {
	// Addr enables the Prometheus endpoint when set, e.g. ":9102".
	Addr string `mapstructure:"addr"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:           app,
		Short:         "resume-radar analyses a resume with the candidate AI backend and tracks matching jobs",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	envs := map[string]string{
		"api.base-url": "RESUME_RADAR_API_URL",
		"token-file":   "RESUME_RADAR_TOKEN_FILE",
		"token":        "RESUME_RADAR_TOKEN",
	}
	for key, env := range envs {
		if err := viper.BindEnv(key, env); err != nil {
			log.Fatalf("binding %s environment variable: %v", env, err)
		}
	}

	setDefaults()

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is resume-radar.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")
	rootCmd.PersistentFlags().String("exclude-file", "", "json file with companies to hide from job listings")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	viper.BindPFlag("jobs.exclude-file", rootCmd.PersistentFlags().Lookup("exclude-file"))
}

func setDefaults() {
	breaker := api.DefaultBreakerConfig()
	criteria := jobs.DefaultCriteria()

	viper.SetDefault("api.base-url", api.DefaultBaseURL)
	viper.SetDefault("api.timeout", api.DefaultTimeout)
	viper.SetDefault("api.user-agent", fmt.Sprintf("%s/%s", app, version))
	viper.SetDefault("api.rate-limit", 2.0)
	viper.SetDefault("api.rate-burst", 4)
	viper.SetDefault("api.breaker.enabled", breaker.Enabled)
	viper.SetDefault("api.breaker.min-requests", breaker.MinRequests)
	viper.SetDefault("api.breaker.failure-ratio", breaker.FailureRatio)
	viper.SetDefault("api.breaker.open-timeout", breaker.OpenTimeout)
	viper.SetDefault("token-file", defaultTokenFile())
	viper.SetDefault("analysis.type", "comprehensive")
	viper.SetDefault("analysis.include-jobs", true)
	viper.SetDefault("jobs.dedupe", false)
	viper.SetDefault("jobs.cache-hours", 1)
	viper.SetDefault("jobs.filter.min-salary", criteria.MinSalary)
	viper.SetDefault("jobs.filter.max-salary", criteria.MaxSalary)
	viper.SetDefault("jobs.filter.min-validation-score", criteria.MinValidationScore)
}

func defaultTokenFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, app, "token")
}

func initConfig() {
	// A .env file is optional; values already in the environment win.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Fatalf("loading .env file: %v", err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	return config, nil
}
