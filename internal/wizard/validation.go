package wizard

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/inside-track/post-deploy-scripts/internal/backend"
)

// ValidateEnvironmentName checks if an environment name is valid
func ValidateEnvironmentName(name string) error {
	if name == "" {
		return fmt.Errorf("environment name cannot be empty")
	}

	// Must be alphanumeric, underscore, or hyphen
	for _, ch := range name {
		isValid := (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9') || ch == '_' || ch == '-'
		if !isValid {
			return fmt.Errorf("environment name must contain only letters, numbers, underscores, and hyphens")
		}
	}

	return nil
}

// ValidatePort checks if a port number is valid
func ValidatePort(port string) error {
	if port == "" {
		return fmt.Errorf("port cannot be empty")
	}

	portNum, err := strconv.Atoi(port)
	if err != nil {
		return fmt.Errorf("port must be a number")
	}

	if portNum < 1 || portNum > 65535 {
		return fmt.Errorf("port must be between 1 and 65535")
	}

	return nil
}

// ValidateConnectionString checks if a connection string is well-formed
func ValidateConnectionString(connStr string, dbType string) error {
	if connStr == "" {
		return fmt.Errorf("connection string cannot be empty")
	}

	switch dbType {
	case "postgres":
		if !strings.HasPrefix(connStr, "postgres://") &&
			!strings.HasPrefix(connStr, "postgresql://") {
			return fmt.Errorf("PostgreSQL connection string must start with postgres:// or postgresql://")
		}

	case "sqlite":
		if !strings.HasPrefix(connStr, "sqlite://") &&
			!strings.HasPrefix(connStr, "./") &&
			!strings.HasPrefix(connStr, "/") &&
			!strings.Contains(connStr, ".db") {
			return fmt.Errorf("SQLite connection string must be sqlite:// or a file path")
		}

	case "libsql":
		if !strings.HasPrefix(connStr, "libsql://") {
			return fmt.Errorf("libSQL connection string must start with libsql://")
		}
	}

	return nil
}

// TestConnection attempts to connect to the database
func TestConnection(connStr string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	b, err := backend.Open(ctx, connStr)
	if err != nil {
		return err
	}
	return b.Close()
}

// BuildPostgresConnectionString constructs a PostgreSQL connection string
func BuildPostgresConnectionString(env EnvironmentInput) string {
	// Auto-detect SSL mode based on host
	sslMode := env.SSLMode
	if sslMode == "" {
		if env.Host == "localhost" || env.Host == "127.0.0.1" {
			sslMode = "disable"
		} else {
			sslMode = "require"
		}
	}

	return fmt.Sprintf("postgresql://%s:%s@%s:%s/%s?sslmode=%s",
		env.User, env.Password, env.Host, env.Port, env.Database, sslMode)
}

// BuildSQLiteConnectionString constructs a SQLite connection string
func BuildSQLiteConnectionString(env EnvironmentInput) string {
	filePath := env.FilePath
	if filePath == "" {
		filePath = "./postdeploy.db"
	} else if !strings.HasPrefix(filePath, "./") && !strings.HasPrefix(filePath, "/") {
		filePath = "./" + filePath
	}

	return filePath
}

// BuildLibSQLConnectionString constructs a libSQL connection string
func BuildLibSQLConnectionString(env EnvironmentInput) string {
	if env.AuthToken != "" {
		return fmt.Sprintf("%s?authToken=%s", env.URL, env.AuthToken)
	}
	return env.URL
}

// ConnectionString builds the connection string for whichever database type
// the environment selected.
func ConnectionString(env EnvironmentInput) string {
	switch env.DatabaseType {
	case "postgres":
		return BuildPostgresConnectionString(env)
	case "sqlite":
		return BuildSQLiteConnectionString(env)
	case "libsql":
		return BuildLibSQLConnectionString(env)
	}
	return ""
}

// EnvVarLines renders the dotenv lines for an environment.
func EnvVarLines(env EnvironmentInput) []string {
	switch env.DatabaseType {
	case "postgres":
		return []string{"POSTGRES_URL=" + BuildPostgresConnectionString(env)}
	case "sqlite":
		return []string{"SQLITE_DB_PATH=" + BuildSQLiteConnectionString(env)}
	case "libsql":
		lines := []string{"LIBSQL_URL=" + env.URL}
		if env.AuthToken != "" {
			lines = append(lines, "LIBSQL_AUTH_TOKEN="+env.AuthToken)
		} else {
			lines = append(lines, "LIBSQL_AUTH_TOKEN=")
		}
		return lines
	}
	return nil
}
