package db

import (
	"database/sql"
	"fmt"
	"os"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"gopkg.in/yaml.v3"
)

const driverName = "mysql"

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
}

type Certs struct {
	Cert string `yaml:"cert"`
	Key  string `yaml:"key"`
}

// LendingConfig is the policy the loan engine receives from its caller:
// the return-condition mapping, the due-soon window and the default loan
// duration are deployment decisions, not code.
type LendingConfig struct {
	// condition reported at return -> terminal item state
	ConditionStateMap map[string]string `yaml:"condition_state_map"`
	DueSoonDays       int               `yaml:"due_soon_days"`
	DefaultLoanDays   int               `yaml:"default_loan_days"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

type Config struct {
	Version     string         `yaml:"version"`
	Mode        string         `yaml:"mode"`
	Addr        string         `yaml:"addr"`
	DB          DatabaseConfig `yaml:"database"`
	Certificate Certs          `yaml:"certificate"`
	Lending     LendingConfig  `yaml:"lending"`
	Auth        AuthConfig     `yaml:"auth"`
}

func LoadConfig(path string) (*Config, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(buf, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	cfg.Lending.applyDefaults()
	return &cfg, nil
}

func (l *LendingConfig) applyDefaults() {
	if l.DueSoonDays <= 0 {
		l.DueSoonDays = 7
	}
	if l.DefaultLoanDays <= 0 {
		l.DefaultLoanDays = 30
	}
	if len(l.ConditionStateMap) == 0 {
		// mirrors the paper return form the lodges have used so far
		l.ConditionStateMap = map[string]string{
			"bueno":      "disponible",
			"regular":    "disponible",
			"danado":     "mantenimiento",
			"reparacion": "mantenimiento",
		}
	}
}

func Connect(c DatabaseConfig) (*sql.DB, error) {
	// clientFoundRows makes RowsAffected count matched rows, so the stores'
	// affected-row checks hold even when an update rewrites the same value
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&tls=false&timeout=3s&readTimeout=5s&writeTimeout=5s&loc=UTC&clientFoundRows=true",
		c.Username, c.Password, c.Host, c.Port, c.DBName)

	conn, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open connection: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// keep the pool well under MySQL max_connections; the deployment is a
	// few hundred items and a handful of clerks
	conn.SetMaxOpenConns(40)
	conn.SetMaxIdleConns(10)
	conn.SetConnMaxLifetime(30 * time.Minute)
	conn.SetConnMaxIdleTime(5 * time.Minute)

	return conn, nil
}
