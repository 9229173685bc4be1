package helpers

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/xhit/go-str2duration/v2"
	"gitlab.com/aoterocom/AOBacktester/models"
)

const (
	DefaultAPIBaseURL     = "http://127.0.0.1:5000"
	DefaultPollInterval   = 100 * time.Millisecond
	MaxPollInterval       = 2 * time.Second
	DefaultRequestTimeout = 10 * time.Second
)

type LogTransport string

const (
	LogTransportPoll     LogTransport = "poll"
	LogTransportSocketIO LogTransport = "socketio"
	LogTransportNats     LogTransport = "nats"
)

type ClientConfig struct {
	APIBaseURL        string
	RunMethod         models.RunMethod
	LogTransport      LogTransport
	PollInterval      time.Duration
	RequestTimeout    time.Duration
	NatsURL           string
	NatsSubjectPrefix string
	LogFile           string
	LogLevel          string
	MetricsAddr       string
	TelegramOutput    bool
	TelegramToken     string
	TelegramChatId    string
}

// LoadEnv loads envFile into the process environment. A missing file is
// not an error, plain environment variables are enough.
func LoadEnv(envFile string) error {
	if envFile == "" {
		cwd, _ := os.Getwd()
		envFile = cwd + "/conf.env"
	}
	if _, err := os.Stat(envFile); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(envFile); err != nil {
		return fmt.Errorf("error loading %s: %v", envFile, err)
	}
	return nil
}

// LoadClientConfig reads the client settings from the environment.
func LoadClientConfig() (ClientConfig, error) {
	config := ClientConfig{
		APIBaseURL:        getEnv("apiBaseUrl", DefaultAPIBaseURL),
		RunMethod:         models.RunMethod(getEnv("runMethod", string(models.RunMethodPost))),
		LogTransport:      LogTransport(getEnv("logTransport", string(LogTransportPoll))),
		NatsURL:           getEnv("natsUrl", "nats://127.0.0.1:4222"),
		NatsSubjectPrefix: getEnv("natsSubjectPrefix", "backtest"),
		LogFile:           getEnv("logFile", "backtester.log"),
		LogLevel:          getEnv("logLevel", "info"),
		MetricsAddr:       os.Getenv("metricsAddr"),
		TelegramToken:     os.Getenv("telegramToken"),
		TelegramChatId:    os.Getenv("telegramChatId"),
	}

	var err error
	config.PollInterval, err = ParseDuration(getEnv("pollInterval", DefaultPollInterval.String()))
	if err != nil {
		return config, err
	}
	config.RequestTimeout, err = ParseDuration(getEnv("requestTimeout", DefaultRequestTimeout.String()))
	if err != nil {
		return config, err
	}
	config.TelegramOutput, _ = strconv.ParseBool(os.Getenv("telegramOutput"))

	err = config.Check()
	return config, err
}

// Check normalizes the settings and rejects combinations the client can't run with.
func (c *ClientConfig) Check() error {
	c.PollInterval = ClampPollInterval(c.PollInterval)
	c.RunMethod = models.RunMethod(strings.ToUpper(strings.TrimSpace(string(c.RunMethod))))
	c.LogTransport = LogTransport(strings.ToLower(strings.TrimSpace(string(c.LogTransport))))
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}

	switch c.RunMethod {
	case models.RunMethodPost, models.RunMethodGet:
	default:
		return fmt.Errorf("error: runMethod must be POST or GET, got %q", c.RunMethod)
	}

	switch c.LogTransport {
	case LogTransportPoll, LogTransportSocketIO, LogTransportNats:
	default:
		return fmt.Errorf("error: logTransport must be poll, socketio or nats, got %q", c.LogTransport)
	}

	if c.TelegramOutput {
		if c.TelegramToken == "" {
			return fmt.Errorf("error: telegramOutput set to true but telegramToken parameter not found")
		}
		if c.TelegramChatId == "" {
			return fmt.Errorf("error: telegramOutput set to true but telegramChatId parameter not found")
		}
	}
	return nil
}

func ParseDuration(value string) (time.Duration, error) {
	duration, err := str2duration.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("error: invalid duration %q: %v", value, err)
	}
	return duration, nil
}

// ClampPollInterval keeps the cadence inside 100ms..2s.
func ClampPollInterval(interval time.Duration) time.Duration {
	if interval < DefaultPollInterval {
		return DefaultPollInterval
	}
	if interval > MaxPollInterval {
		return MaxPollInterval
	}
	return interval
}

func getEnv(key string, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}
