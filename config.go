package pglease

import (
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// DefaultMaxConns is the lease capacity applied when Config.MaxConns is unset.
const DefaultMaxConns = 4

// Config holds the connection parameters for a pool.
type Config struct {
	// Host is the database server hostname or address.
	Host string

	// Port is the database server port. Defaults to 5432.
	Port int

	// Database is the name of the database to connect to.
	Database string

	// User is the role used for authentication.
	User string

	// Password is the password used for authentication. May be empty when the
	// server trusts the connection.
	Password string

	// SSLMode is the libpq sslmode parameter. Defaults to "disable".
	SSLMode string

	// MinConns is the minimum number of idle connections kept by the
	// underlying pool. Pool-specific: ignored for raw connections.
	MinConns int

	// MaxConns bounds the number of concurrently leased connections.
	// Pool-specific: ignored for raw connections. Defaults to DefaultMaxConns.
	MaxConns int

	// Logger receives diagnostics from the query helpers. Defaults to
	// slog.Default().
	Logger *slog.Logger
}

// Validate checks required fields and applies defaults.
func (c *Config) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("host is required")
	}
	if c.Database == "" {
		return fmt.Errorf("dbname is required")
	}
	if c.User == "" {
		return fmt.Errorf("user is required")
	}

	// Apply defaults
	if c.Port == 0 {
		c.Port = 5432
	}
	if c.SSLMode == "" {
		c.SSLMode = "disable"
	}
	if c.MaxConns == 0 {
		c.MaxConns = DefaultMaxConns
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}

	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("port must be between 0 and 65535, got %d", c.Port)
	}
	if c.MaxConns < 1 {
		return fmt.Errorf("maxconn must be at least 1, got %d", c.MaxConns)
	}
	if c.MinConns < 0 {
		return fmt.Errorf("minconn must not be negative, got %d", c.MinConns)
	}
	if c.MinConns > c.MaxConns {
		return fmt.Errorf("minconn (%d) must not exceed maxconn (%d)", c.MinConns, c.MaxConns)
	}

	return nil
}

// ParamsConfig builds a Config from a key-value mapping of connection
// parameters, as produced by an external configuration source. Recognized keys
// are host, port, dbname, user, password, sslmode, minconn and maxconn;
// unrecognized keys are ignored.
func ParamsConfig(params map[string]string) (*Config, error) {
	cfg := &Config{
		Host:     params["host"],
		Database: params["dbname"],
		User:     params["user"],
		Password: params["password"],
		SSLMode:  params["sslmode"],
	}

	for key, dst := range map[string]*int{
		"port":    &cfg.Port,
		"minconn": &cfg.MinConns,
		"maxconn": &cfg.MaxConns,
	} {
		raw, ok := params[key]
		if !ok || raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", key, raw, err)
		}
		*dst = n
	}

	return cfg, nil
}

// LoadConfig reads a YAML file containing a flat mapping of connection
// parameters and builds a Config from it.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	// YAML scalars may parse as ints or bools; the parameter mapping is
	// string-valued.
	params := make(map[string]string, len(raw))
	for key, value := range raw {
		params[key] = fmt.Sprint(value)
	}

	return ParamsConfig(params)
}

// connString renders the config as a postgres:// URL. Pool-sizing fields are
// included only when requested; a raw connection has no use for them.
func (c *Config) connString(includePoolFields bool) string {
	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:   "/" + c.Database,
	}
	if c.Password != "" {
		u.User = url.UserPassword(c.User, c.Password)
	} else {
		u.User = url.User(c.User)
	}

	q := url.Values{}
	q.Set("sslmode", c.SSLMode)
	if includePoolFields {
		q.Set("pool_max_conns", strconv.Itoa(c.MaxConns))
		if c.MinConns > 0 {
			q.Set("pool_min_conns", strconv.Itoa(c.MinConns))
		}
	}
	u.RawQuery = q.Encode()

	return u.String()
}
