// Package postgis writes cleaned layers and their styles into a
// PostgreSQL/PostGIS database.
package postgis

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"gopkg.in/yaml.v3"
)

// Credentials is a fully resolved database login.
type Credentials struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
	SSLMode  string
}

// connectionEntry is one saved connection in the store file. Username and
// password may be blank, in which case AuthFile (a dotenv file with PGUSER
// and PGPASSWORD) is consulted.
type connectionEntry struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
	AuthFile string `yaml:"auth_file"`
}

// Store holds the saved connections, keyed by connection name.
type Store struct {
	Connections map[string]connectionEntry `yaml:"connections"`
}

// DefaultStorePath is where the connections file lives unless overridden.
func DefaultStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "connections.yaml"
	}
	return filepath.Join(home, ".config", "gpkgclean", "connections.yaml")
}

// LoadStore reads the saved-connections file. An empty path uses the
// default location.
func LoadStore(path string) (*Store, error) {
	if path == "" {
		path = DefaultStorePath()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening connections file %s: %w", path, err)
	}
	defer f.Close()

	var s Store
	if err := yaml.NewDecoder(f).Decode(&s); err != nil {
		return nil, fmt.Errorf("error decoding connections file: %w", err)
	}
	return &s, nil
}

// Credentials resolves a saved connection by name. A connection without a
// database name is a configuration error. Blank username or password fall
// back to the connection's auth file.
func (s *Store) Credentials(name string) (Credentials, error) {
	entry, ok := s.Connections[name]
	if !ok {
		return Credentials{}, fmt.Errorf("connection %q not found in the saved connections", name)
	}
	if entry.Database == "" {
		return Credentials{}, fmt.Errorf("connection %q has no database name", name)
	}

	creds := Credentials{
		Host:     entry.Host,
		Port:     entry.Port,
		Database: entry.Database,
		User:     entry.Username,
		Password: entry.Password,
		SSLMode:  entry.SSLMode,
	}
	if creds.Host == "" {
		creds.Host = "localhost"
	}
	if creds.Port == 0 {
		creds.Port = 5432
	}
	if creds.SSLMode == "" {
		creds.SSLMode = "disable"
	}

	if (creds.User == "" || creds.Password == "") && entry.AuthFile != "" {
		env, err := godotenv.Read(entry.AuthFile)
		if err != nil {
			return Credentials{}, fmt.Errorf("error reading auth file %s: %w", entry.AuthFile, err)
		}
		if creds.User == "" {
			creds.User = env["PGUSER"]
		}
		if creds.Password == "" {
			creds.Password = env["PGPASSWORD"]
		}
	}
	return creds, nil
}

// Connect opens and pings a database connection for the credentials. The
// single returned connection is shared by every writer for the whole run.
func Connect(creds Credentials) (*sql.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d dbname=%s user=%s password=%s sslmode=%s connect_timeout=10",
		creds.Host, creds.Port, creds.Database, creds.User, creds.Password, creds.SSLMode)
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connection failed: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping failed: %w", err)
	}
	return db, nil
}
