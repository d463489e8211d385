/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"go-simpler.org/env"

	"github.com/tomoncle/vbforumquery/database"
)

var validate = validator.New()

// Config is the process configuration read from the environment.
type Config struct {
	Host string `env:"HOST"`
	Port int    `env:"PORT" default:"3000" validate:"min=1,max=65535"`

	DBType            string        `env:"DB_TYPE" default:"mysql" validate:"oneof=mysql postgres postgresql sqlite sqlite3"`
	DBHost            string        `env:"DB_HOST" default:"localhost"`
	DBPort            int           `env:"DB_PORT" default:"3306" validate:"min=1,max=65535"`
	DBUser            string        `env:"DB_USER" default:"root"`
	DBPassword        string        `env:"DB_PASSWORD"`
	DBName            string        `env:"DB_NAME" default:"vbforum" validate:"required"`
	DBSSLMode         string        `env:"DB_SSL_MODE" default:"disable"`
	DBPoolSize        int           `env:"DB_POOL_SIZE" default:"10" validate:"min=1"`
	DBMaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" default:"10" validate:"min=0"`
	DBConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" default:"1h"`
	DBConnectTimeout  time.Duration `env:"DB_CONNECT_TIMEOUT" default:"10s"`
	DBQueryLog        bool          `env:"DB_QUERY_LOG" default:"false"`
	DBSlowQueryTime   time.Duration `env:"DB_SLOW_QUERY_TIME" default:"2s"`

	APIKeys          string `env:"API_KEYS"`
	AdminAPIKeys     string `env:"ADMIN_API_KEYS"`
	APIKeysFile      string `env:"API_KEYS_FILE" default:"api-keys.txt"`
	AdminAPIKeysFile string `env:"ADMIN_API_KEYS_FILE" default:"admin-api-keys.txt"`

	SearchConfigFile string `env:"SEARCH_CONFIG_FILE" default:"search.yaml"`

	LogLevel  string `env:"LOG_LEVEL" default:"info" validate:"oneof=trace debug info warn warning error fatal panic"`
	LogFormat string `env:"LOG_FORMAT" default:"text" validate:"oneof=text json"`

	CORSOrigins       []string      `env:"CORS_ORIGINS" default:"*"`
	RateLimitRequests int           `env:"RATE_LIMIT_REQUESTS" default:"120" validate:"min=0"`
	RateLimitWindow   time.Duration `env:"RATE_LIMIT_WINDOW" default:"1m"`
	ShutdownTimeout   time.Duration `env:"SHUTDOWN_TIMEOUT" default:"15s"`
}

// Load reads .env when present, then the environment, and validates the
// result.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	var cfg Config
	if err := env.Load(&cfg, &env.Options{SliceSep: ","}); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Addr is the listen address, ":3000" when HOST is unset.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// ConnectionConfig maps the DB_* settings onto a pool configuration.
func (c *Config) ConnectionConfig() *database.ConnectionConfig {
	cfg := database.DefaultConnectionConfig()
	cfg.Type = c.DBType
	cfg.Host = c.DBHost
	cfg.Port = c.DBPort
	cfg.Username = c.DBUser
	cfg.Password = c.DBPassword
	cfg.DBName = c.DBName
	cfg.SSLMode = c.DBSSLMode
	cfg.MaxOpenConns = c.DBPoolSize
	cfg.MaxIdleConns = min(c.DBMaxIdleConns, c.DBPoolSize)
	cfg.ConnMaxLifetime = c.DBConnMaxLifetime
	cfg.ConnectTimeout = c.DBConnectTimeout
	cfg.EnableQueryLog = c.DBQueryLog
	cfg.SlowQueryTime = c.DBSlowQueryTime
	return cfg
}
