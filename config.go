package proxycheck

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aredoff/proxycheck/internal/pool"
	"github.com/aredoff/proxycheck/internal/validator"
	"github.com/rs/zerolog"
	"gopkg.in/ini.v1"
)

const (
	configSection = "checker"

	envConcurrency = "PROXYCHECK_CONCURRENCY"
	envOracle      = "PROXYCHECK_ORACLE"
)

type Config struct {
	// Concurrency is the number of proxies checked at the same time.
	Concurrency int
	// Timeout bounds every single protocol attempt.
	Timeout time.Duration
	// OracleAddr is the host:port every attempt tries to reach through the proxy.
	OracleAddr string
	Logger     zerolog.Logger
}

func DefaultConfig() *Config {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(zerolog.InfoLevel).
		With().Timestamp().Logger()
	return &Config{
		Concurrency: pool.DefaultWorkers,
		Timeout:     validator.DefaultTimeout,
		OracleAddr:  validator.DefaultOracle,
		Logger:      logger,
	}
}

// LoadConfig reads the [checker] section of an ini file on top of DefaultConfig.
// An empty fileName only applies environment overrides.
func LoadConfig(fileName string) (*Config, error) {
	if fileName == "" {
		config := DefaultConfig()
		applyEnv(config)
		return config, nil
	}
	return loadConfig(fileName)
}

func loadConfig(source interface{}) (*Config, error) {
	config := DefaultConfig()

	iniFile, err := ini.Load(source)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	sec := iniFile.Section(configSection)
	config.Concurrency = sec.Key("concurrency").MustInt(config.Concurrency)
	config.Timeout = sec.Key("timeout").MustDuration(config.Timeout)
	config.OracleAddr = sec.Key("oracle").MustString(config.OracleAddr)

	if lvl := strings.TrimSpace(sec.Key("log_level").String()); lvl != "" {
		level, err := zerolog.ParseLevel(strings.ToLower(lvl))
		if err != nil {
			return nil, fmt.Errorf("invalid log_level %q: %w", lvl, err)
		}
		config.Logger = config.Logger.Level(level)
	}

	applyEnv(config)
	return config, nil
}

func applyEnv(config *Config) {
	overrideFromEnvInt(&config.Concurrency, envConcurrency)
	if v := os.Getenv(envOracle); v != "" {
		config.OracleAddr = v
	}
}

func overrideFromEnvInt(target *int, envName string) {
	envValue := os.Getenv(envName)
	if envValue != "" {
		if intValue, err := strconv.Atoi(envValue); err == nil {
			*target = intValue
		}
	}
}
