package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Mode       string        `mapstructure:"mode"`
	LogLevel   string        `mapstructure:"log_level"`
	Port       int           `mapstructure:"port"`
	StaticPath string        `mapstructure:"static_path"`
	ReadLimit  int64         `mapstructure:"read_limit"`
	PingPeriod time.Duration `mapstructure:"ping_period"`
	Secret     string        `mapstructure:"secret"`

	Detection DetectionConfig `mapstructure:"detection"`
	Analyzer  AnalyzerConfig  `mapstructure:"analyzer"`
	Reporter  ReporterConfig  `mapstructure:"reporter"`
	Session   SessionConfig   `mapstructure:"session"`
	RTC       RTCConfig       `mapstructure:"rtc"`
}

type DetectionConfig struct {
	WindowSeconds   int           `mapstructure:"window_seconds"`
	SampleEvery     int           `mapstructure:"sample_every"`
	MotionThreshold int64         `mapstructure:"motion_threshold"`
	IdentityPrefix  string        `mapstructure:"identity_prefix"`
	AnalyzerTimeout time.Duration `mapstructure:"analyzer_timeout"`
}

type AnalyzerConfig struct {
	URL           string `mapstructure:"url"`
	MaxConcurrent int    `mapstructure:"max_concurrent"`
	// Prewarm makes startup fail when the classifier is unreachable.
	Prewarm bool `mapstructure:"prewarm"`
}

type ReporterConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type SessionConfig struct {
	IdleTimeout time.Duration `mapstructure:"idle_timeout"`
}

type RTCConfig struct {
	STUNURLs    []string      `mapstructure:"stun_urls"`
	PLIInterval time.Duration `mapstructure:"pli_interval"`
}

// Load reads config/config.<CONFIG_ENV>.yaml, or the file given by --config,
// then applies NURSERY_* environment overrides.
func Load(args []string) (*Config, error) {
	fs := pflag.NewFlagSet("nursery", pflag.ContinueOnError)
	configFile := fs.String("config", "", "path to a YAML config file")
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")

	fileName := *configFile
	if fileName == "" {
		env := os.Getenv("CONFIG_ENV")
		if env == "" {
			env = "dev"
		}
		fileName = fmt.Sprintf("config/config.%s.yaml", env)
	}
	v.SetConfigFile(fileName)

	setDefaults(v)

	v.SetEnvPrefix("NURSERY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if *configFile != "" {
			return nil, fmt.Errorf("read config %s: %w", fileName, err)
		}
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log.Info().
		Str("module", "config").
		Str("mode", cfg.Mode).
		Int("port", cfg.Port).
		Str("identity_prefix", cfg.Detection.IdentityPrefix).
		Msg("config ready")
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "release")
	v.SetDefault("log_level", "info")
	v.SetDefault("port", 8080)
	v.SetDefault("static_path", "./web")
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("secret", "change-me")

	v.SetDefault("detection.window_seconds", 7)
	v.SetDefault("detection.sample_every", 10)
	v.SetDefault("detection.motion_threshold", 2_000_000)
	v.SetDefault("detection.identity_prefix", "camera-")
	v.SetDefault("detection.analyzer_timeout", "10s")

	v.SetDefault("analyzer.url", "http://localhost:8500")
	v.SetDefault("analyzer.max_concurrent", 4)
	v.SetDefault("analyzer.prewarm", false)

	v.SetDefault("reporter.url", "")
	v.SetDefault("reporter.timeout", "5s")

	v.SetDefault("session.idle_timeout", "5s")

	v.SetDefault("rtc.stun_urls", []string{"stun:stun.l.google.com:19302"})
	v.SetDefault("rtc.pli_interval", "1s")
}

func (c *Config) Validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if c.Detection.WindowSeconds <= 0 {
		errs = append(errs, errors.New("detection.window_seconds must be positive"))
	}
	if c.Detection.SampleEvery <= 0 {
		errs = append(errs, errors.New("detection.sample_every must be positive"))
	}
	if c.Detection.MotionThreshold < 0 {
		errs = append(errs, errors.New("detection.motion_threshold must not be negative"))
	}
	if c.Analyzer.MaxConcurrent <= 0 {
		errs = append(errs, errors.New("analyzer.max_concurrent must be positive"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}
