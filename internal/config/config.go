package config

import (
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server      ServerConfig     `yaml:"server"`
	Database    DatabaseConfig   `yaml:"database"`
	JWT         JWTConfig        `yaml:"jwt"`
	SuperAdmins []string         `yaml:"super_admins"` // emails granted super_admin at signup
	Google      GoogleConfig     `yaml:"google"`
	LDAP        LDAPConfig       `yaml:"ldap"`
	WhatsApp    WhatsAppConfig   `yaml:"whatsapp"`
	BlobStore   BlobStoreConfig  `yaml:"blob_store"`
	Redis       RedisConfig      `yaml:"redis"`
	Log         LogConfig        `yaml:"log"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port string `yaml:"port"`
	Mode string `yaml:"mode"` // debug, release, test
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"` // sqlite, mysql, postgres
	DSN    string `yaml:"dsn"`
}

type JWTConfig struct {
	Secret     string `yaml:"secret"`
	ExpireHour int    `yaml:"expire_hour"`
}

// GoogleConfig controls federated login via Google access tokens.
type GoogleConfig struct {
	Enabled     bool   `yaml:"enabled"`
	UserinfoURL string `yaml:"userinfo_url"` // override for tests
}

// LDAPConfig controls login against the campus directory.
type LDAPConfig struct {
	Enabled      bool   `yaml:"enabled"`
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	BaseDN       string `yaml:"base_dn"`
	BindDN       string `yaml:"bind_dn"`
	BindPassword string `yaml:"bind_password"`
	UserFilter   string `yaml:"user_filter"`
	UseSSL       bool   `yaml:"use_ssl"`
}

// WhatsAppConfig holds the outbound messaging gateway credentials.
type WhatsAppConfig struct {
	Enabled    bool   `yaml:"enabled"`
	AccountSID string `yaml:"account_sid"`
	AuthToken  string `yaml:"auth_token"`
	FromNumber string `yaml:"from_number"` // E.164, e.g. +14155238886
	BaseURL    string `yaml:"base_url"`    // override for tests
}

// BlobStoreConfig holds the image CDN credentials. When disabled, uploads
// fall back to local disk under UploadDir.
type BlobStoreConfig struct {
	Enabled   bool   `yaml:"enabled"`
	CloudName string `yaml:"cloud_name"`
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
	Folder    string `yaml:"folder"`
	BaseURL   string `yaml:"base_url"` // override for tests
	UploadDir string `yaml:"upload_dir"`
}

// RedisConfig for the optional async notification queue.
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type LogConfig struct {
	Level         string `yaml:"level"`
	RetentionDays int    `yaml:"retention_days"` // system_logs table retention
}

var GlobalConfig *Config

func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config.yaml"
	}

	var cfg *Config

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg = DefaultConfig()
	} else {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, err
		}

		var fileCfg Config
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return nil, err
		}
		cfg = &fileCfg
	}

	cfg.applyDefaults()
	cfg.overrideFromEnv()
	GlobalConfig = cfg
	return cfg, nil
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: "8080",
			Mode: "debug",
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    "samvad.db",
		},
		JWT: JWTConfig{
			Secret:     "samvad-secret-key-change-in-production",
			ExpireHour: 24,
		},
		Google: GoogleConfig{
			Enabled:     true,
			UserinfoURL: "https://www.googleapis.com/oauth2/v2/userinfo",
		},
		LDAP: LDAPConfig{
			Enabled:    false,
			Port:       389,
			UserFilter: "(uid=%s)",
		},
		WhatsApp: WhatsAppConfig{
			Enabled: false,
			BaseURL: "https://api.twilio.com",
		},
		BlobStore: BlobStoreConfig{
			Enabled:   false,
			Folder:    "samvad",
			BaseURL:   "https://api.cloudinary.com",
			UploadDir: "uploads",
		},
		Redis: RedisConfig{
			Enabled: false,
			Addr:    "localhost:6379",
			DB:      0,
		},
		Log: LogConfig{
			Level:         "info",
			RetentionDays: 30,
		},
	}
}

// applyDefaults fills zero values left by a partial config file.
func (c *Config) applyDefaults() {
	def := DefaultConfig()
	if c.Server.Host == "" {
		c.Server.Host = def.Server.Host
	}
	if c.Server.Port == "" {
		c.Server.Port = def.Server.Port
	}
	if c.Server.Mode == "" {
		c.Server.Mode = def.Server.Mode
	}
	if c.Database.Driver == "" {
		c.Database.Driver = def.Database.Driver
	}
	if c.Database.DSN == "" {
		c.Database.DSN = def.Database.DSN
	}
	if c.JWT.Secret == "" {
		c.JWT.Secret = def.JWT.Secret
	}
	if c.JWT.ExpireHour <= 0 {
		c.JWT.ExpireHour = def.JWT.ExpireHour
	}
	if c.Google.UserinfoURL == "" {
		c.Google.UserinfoURL = def.Google.UserinfoURL
	}
	if c.LDAP.Port == 0 {
		c.LDAP.Port = def.LDAP.Port
	}
	if c.LDAP.UserFilter == "" {
		c.LDAP.UserFilter = def.LDAP.UserFilter
	}
	if c.WhatsApp.BaseURL == "" {
		c.WhatsApp.BaseURL = def.WhatsApp.BaseURL
	}
	if c.BlobStore.BaseURL == "" {
		c.BlobStore.BaseURL = def.BlobStore.BaseURL
	}
	if c.BlobStore.Folder == "" {
		c.BlobStore.Folder = def.BlobStore.Folder
	}
	if c.BlobStore.UploadDir == "" {
		c.BlobStore.UploadDir = def.BlobStore.UploadDir
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = def.Redis.Addr
	}
	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
	if c.Log.RetentionDays <= 0 {
		c.Log.RetentionDays = def.Log.RetentionDays
	}
}

func (c *Config) overrideFromEnv() {
	if host := os.Getenv("SERVER_HOST"); host != "" {
		c.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		c.Server.Port = port
	}
	if mode := os.Getenv("SERVER_MODE"); mode != "" {
		c.Server.Mode = mode
	}
	if driver := os.Getenv("DB_DRIVER"); driver != "" {
		c.Database.Driver = driver
	}
	if dsn := os.Getenv("DB_DSN"); dsn != "" {
		c.Database.DSN = dsn
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		c.JWT.Secret = secret
	}
	if admins := os.Getenv("SUPER_ADMIN_EMAILS"); admins != "" {
		c.SuperAdmins = splitAndTrim(admins)
	}
	if sid := os.Getenv("TWILIO_ACCOUNT_SID"); sid != "" {
		c.WhatsApp.AccountSID = sid
		c.WhatsApp.Enabled = true
	}
	if token := os.Getenv("TWILIO_AUTH_TOKEN"); token != "" {
		c.WhatsApp.AuthToken = token
	}
	if from := os.Getenv("TWILIO_WHATSAPP_NUMBER"); from != "" {
		c.WhatsApp.FromNumber = from
	}
	if cloud := os.Getenv("CLOUDINARY_CLOUD_NAME"); cloud != "" {
		c.BlobStore.CloudName = cloud
		c.BlobStore.Enabled = true
	}
	if key := os.Getenv("CLOUDINARY_API_KEY"); key != "" {
		c.BlobStore.APIKey = key
	}
	if secret := os.Getenv("CLOUDINARY_API_SECRET"); secret != "" {
		c.BlobStore.APISecret = secret
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
	// Redis URL override (format: redis://:password@host:port/db)
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		c.Redis.Enabled = true
		c.parseRedisURL(redisURL)
	}
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// parseRedisURL parses a Redis URL and sets config values
// Format: redis://:password@host:port/db
func (c *Config) parseRedisURL(redisURL string) {
	url := strings.TrimPrefix(redisURL, "redis://")

	if atIdx := strings.Index(url, "@"); atIdx != -1 {
		authPart := url[:atIdx]
		url = url[atIdx+1:]
		if colonIdx := strings.Index(authPart, ":"); colonIdx != -1 {
			c.Redis.Password = authPart[colonIdx+1:]
		}
	}

	if slashIdx := strings.LastIndex(url, "/"); slashIdx != -1 {
		dbStr := url[slashIdx+1:]
		url = url[:slashIdx]
		if db, err := strconv.Atoi(dbStr); err == nil {
			c.Redis.DB = db
		}
	}

	c.Redis.Addr = url
}
