package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

type Server struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	Debug    bool   `toml:"debug_mode"`
	CertFile string `toml:"cert_file"`
	KeyFile  string `toml:"key_file"`
}

type API struct {
	BaseURL string `toml:"base_url"`
}

const (
	BackendCookie = "cookie"
	BackendSqlite = "sqlite"
)

type Session struct {
	Backend      string `toml:"backend"`
	Secret       string `toml:"secret"`
	Expiration   string `toml:"expiration"`
	SqliteFile   string `toml:"sqlite_file"`
	SecureCookie bool   `toml:"secure_cookie"`
}

// TTL parses Expiration; an empty value means one day.
func (s Session) TTL() (time.Duration, error) {
	if s.Expiration == "" {
		return 24 * time.Hour, nil
	}
	return time.ParseDuration(s.Expiration)
}

type Config struct {
	Server  Server  `toml:"server"`
	API     API     `toml:"api"`
	Session Session `toml:"session"`
}

var (
	ErrMissingSecret  = errors.New("session secret must be set")
	ErrUnknownBackend = errors.New("unknown session backend")
)

func Default() Config {
	return Config{
		Server: Server{
			Host: "127.0.0.1",
			Port: 3000,
		},
		API: API{
			BaseURL: "http://localhost:8080",
		},
		Session: Session{
			Backend:    BackendCookie,
			Expiration: "24h",
			SqliteFile: "sessions.sqlite",
		},
	}
}

// LoadDotEnv puts the variables of a .env file into the environment so the
// overrides in New can pick them up. Variables already set win. A missing
// file is not an error.
func LoadDotEnv(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// New reads the TOML file at path over the defaults and applies environment
// overrides.
func New(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		_, err := toml.DecodeFile(path, &cfg)
		if err != nil {
			return Config{}, err
		}
	}
	if url := os.Getenv("MEETUPS_API_URL"); url != "" {
		cfg.API.BaseURL = url
	}
	if secret := os.Getenv("MEETUPS_SESSION_SECRET"); secret != "" {
		cfg.Session.Secret = secret
	}
	if port := os.Getenv("MEETUPS_PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return Config{}, errors.New("env MEETUPS_PORT: " + err.Error())
		}
		cfg.Server.Port = p
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	var err error
	if c.Session.Secret == "" && c.Session.Backend == BackendCookie {
		err = errors.Join(err, ErrMissingSecret)
	}
	switch c.Session.Backend {
	case BackendCookie, BackendSqlite:
	default:
		err = errors.Join(err, ErrUnknownBackend)
	}
	if _, ttlErr := c.Session.TTL(); ttlErr != nil {
		err = errors.Join(err, ttlErr)
	}
	if c.API.BaseURL == "" {
		err = errors.Join(err, errors.New("api base url must be set"))
	}
	return err
}
