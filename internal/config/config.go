package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Chrome   ChromeConfig
	Replay   ReplayConfig
	Recorder RecorderConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	Mode         string
	ReadTimeout  int
	WriteTimeout int
}

type DatabaseConfig struct {
	Driver   string // memory or mysql
	Host     string
	Port     string
	Username string
	Password string
	Database string
	Charset  string
}

type JWTConfig struct {
	Enabled       bool
	Secret        string
	ExpireTime    int
	AdminUser     string
	AdminPassword string // bcrypt hash
}

type ChromeConfig struct {
	HeadlessMode bool
	MaxInstances int
	ExecPath     string
	WindowWidth  int
	WindowHeight int
	Device       string
}

type ReplayConfig struct {
	ImplicitWait   time.Duration
	ExplicitWait   time.Duration
	ScreenshotsDir string
	RunTimeout     time.Duration
}

type RecorderConfig struct {
	FlushInterval time.Duration
	RetryInterval time.Duration
	PollInterval  time.Duration
}

// LoadConfig reads the environment, after loading .env from the working
// directory when one exists.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	config := &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "3000"),
			Host:         getEnv("SERVER_HOST", "0.0.0.0"),
			Mode:         getEnv("SERVER_MODE", "debug"),
			ReadTimeout:  getEnvAsInt("SERVER_READ_TIMEOUT", 30),
			WriteTimeout: getEnvAsInt("SERVER_WRITE_TIMEOUT", 30),
		},
		Database: DatabaseConfig{
			Driver:   getEnv("DB_DRIVER", "memory"),
			Host:     getEnv("DB_HOST", "127.0.0.1"),
			Port:     getEnv("DB_PORT", "3306"),
			Username: getEnv("DB_USERNAME", "root"),
			Password: getEnv("DB_PASSWORD", "root"),
			Database: getEnv("DB_NAME", "uirecorder"),
			Charset:  getEnv("DB_CHARSET", "utf8mb4"),
		},
		JWT: JWTConfig{
			Enabled:       getEnvAsBool("JWT_ENABLED", false),
			Secret:        getEnv("JWT_SECRET", "uirecorder-secret-key"),
			ExpireTime:    getEnvAsInt("JWT_EXPIRE_TIME", 24*3600),
			AdminUser:     getEnv("ADMIN_USER", "admin"),
			AdminPassword: getEnv("ADMIN_PASSWORD_HASH", ""),
		},
		Chrome: ChromeConfig{
			HeadlessMode: getEnvAsBool("CHROME_HEADLESS", true),
			MaxInstances: getEnvAsInt("CHROME_MAX_INSTANCES", 4),
			ExecPath:     getEnv("CHROME_EXEC_PATH", ""),
			WindowWidth:  getEnvAsInt("CHROME_WINDOW_WIDTH", 1280),
			WindowHeight: getEnvAsInt("CHROME_WINDOW_HEIGHT", 800),
			Device:       getEnv("CHROME_DEVICE", ""),
		},
		Replay: ReplayConfig{
			ImplicitWait:   getEnvAsDuration("REPLAY_IMPLICIT_WAIT", 10*time.Second),
			ExplicitWait:   getEnvAsDuration("REPLAY_EXPLICIT_WAIT", 15*time.Second),
			ScreenshotsDir: getEnv("REPLAY_SCREENSHOTS_DIR", "screenshots"),
			RunTimeout:     getEnvAsDuration("REPLAY_RUN_TIMEOUT", 10*time.Minute),
		},
		Recorder: RecorderConfig{
			FlushInterval: getEnvAsDuration("RECORDER_FLUSH_INTERVAL", 500*time.Millisecond),
			RetryInterval: getEnvAsDuration("RECORDER_RETRY_INTERVAL", 2*time.Second),
			PollInterval:  getEnvAsDuration("RECORDER_POLL_INTERVAL", 100*time.Millisecond),
		},
	}

	if config.Chrome.MaxInstances < 1 {
		return nil, fmt.Errorf("CHROME_MAX_INSTANCES must be at least 1, got %d", config.Chrome.MaxInstances)
	}
	if config.Database.Driver != "memory" && config.Database.Driver != "mysql" {
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", config.Database.Driver)
	}

	return config, nil
}

func (c *Config) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=%s&parseTime=True&loc=Local",
		c.Database.Username,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
		c.Database.Charset,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvAsDuration accepts Go duration strings ("15s") or bare seconds ("15").
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
