package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/bigredeye/schoolbook/internal/models"
	"github.com/bigredeye/schoolbook/pkg/conf"
)

// Local fallbacks, used when neither config file nor environment set a value.
const (
	DefaultBaseURL    = "http://94.131.246.109:5555"
	DefaultClassKey   = "2"
	DefaultAPIVersion = "v1"
	DefaultLocale     = "en-US"
)

type Config struct {
	School struct {
		BaseURL    string
		ClassKey   string
		APIVersion string
		Locale     string
		Timeout    time.Duration
	}

	Cache struct {
		StaleTime time.Duration
		MaxSize   int64
		Retries   uint64
	}

	Server struct {
		ListenAddress string
		RenderTimeout time.Duration
		Cookies       struct {
			AuthenticationKey string
			EncryptionKey     string
			Secure            bool
		}
	}

	Table struct {
		RowsPerPage        int
		RowsPerPageOptions []int
	}

	Placeholders models.Placeholders

	Telegram struct {
		BotToken string
		ChatID   int64
	}

	DataBase struct {
		DSN string
	}

	Log struct {
		Production bool
		File       string
		MaxSizeMB  int
		MaxBackups int
	}
}

// APIRoot is the versioned root every endpoint of the school service lives under.
func (c *Config) APIRoot() string {
	return fmt.Sprintf("%s/%s/%s", strings.TrimSuffix(c.School.BaseURL, "/"), c.School.APIVersion, c.School.ClassKey)
}

func defaults() []conf.Option {
	return []conf.Option{
		conf.EnvPrefix("SCHOOLBOOK"),
		conf.Default("School.BaseURL", envOr("DEFAULT_URL", DefaultBaseURL)),
		conf.Default("School.ClassKey", envOr("CLASS_KEY", DefaultClassKey)),
		conf.Default("School.APIVersion", DefaultAPIVersion),
		conf.Default("School.Locale", DefaultLocale),
		conf.Default("School.Timeout", 10*time.Second),
		conf.Default("Cache.StaleTime", 5*time.Minute),
		conf.Default("Cache.MaxSize", 64),
		conf.Default("Cache.Retries", 3),
		conf.Default("Server.ListenAddress", ":8080"),
		conf.Default("Server.RenderTimeout", 2*time.Second),
		conf.Default("Table.RowsPerPage", 5),
		conf.Default("Table.RowsPerPageOptions", []int{5, 10, 25}),
		conf.Default("Placeholders.FirstName", "John"),
		conf.Default("Placeholders.SecondName", "Doe"),
		conf.Default("Log.MaxSizeMB", 100),
		conf.Default("Log.MaxBackups", 3),
	}
}

// Existing deployments set bare DEFAULT_URL and CLASS_KEY.
func envOr(name, fallback string) string {
	if value, ok := os.LookupEnv(name); ok && value != "" {
		return value
	}
	return fallback
}

func ParseConfig(path string) (*Config, error) {
	config := &Config{}
	options := append(defaults(), conf.ConfigFile(path))
	if err := conf.ParseConfig(config, options...); err != nil {
		return nil, errors.Wrap(err, "Failed to parse config")
	}
	return config, nil
}
