package database

import (
	"net"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/doctornoo/pdpa-consent/internal/pkg/env"
)

// Config describes the MySQL connection and the pool limits applied to it.
type Config struct {
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	AutoMigrate     bool
}

// ConfigFromEnv reads DB_* variables. Defaults match the legacy deployment.
func ConfigFromEnv() Config {
	return Config{
		Host:            env.GetEnv("DB_HOST", "127.0.0.1"),
		Port:            env.GetEnv("DB_PORT", "3306"),
		User:            env.GetEnv("DB_USER", "root"),
		Password:        env.GetEnv("DB_PASS", ""),
		Name:            env.GetEnv("DB_NAME", "doctornoo_db"),
		MaxOpenConns:    env.GetEnvInt("DB_MAX_OPEN_CONNS", 10),
		MaxIdleConns:    env.GetEnvInt("DB_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime: env.GetEnvDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		AutoMigrate:     env.GetEnvBool("DB_AUTO_MIGRATE", true),
	}
}

// MySQLConfig builds the driver config. The charset is pinned to utf8mb4 so Thai
// text and emoji in user agents and paths survive the round trip.
func (c Config) MySQLConfig() *mysql.Config {
	cfg := mysql.NewConfig()
	cfg.User = c.User
	cfg.Passwd = c.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(c.Host, c.Port)
	cfg.DBName = c.Name
	cfg.ParseTime = true
	cfg.Loc = time.Local
	cfg.Params = map[string]string{"charset": "utf8mb4"}
	return cfg
}

// DSN returns the go-sql-driver data source name.
func (c Config) DSN() string {
	return c.MySQLConfig().FormatDSN()
}

// MigrateURL returns the golang-migrate database URL for the same server.
func (c Config) MigrateURL() string {
	cfg := c.MySQLConfig()
	cfg.MultiStatements = true
	return "mysql://" + cfg.FormatDSN()
}
