package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// Bloque app (opcional en YAML). Si no está, queda vacío.
	App struct {
		// dev | staging | prod
		Env string `yaml:"app_env"`
	} `yaml:"app"`

	Server struct {
		Addr string `yaml:"addr"`
		// LoginPath es el destino al que redirige el guard cuando no hay sesión.
		LoginPath string `yaml:"login_path"`
		// HomePath es el destino para usuarios autenticados sin el rol requerido.
		HomePath string `yaml:"home_path"`
	} `yaml:"server"`

	// Provider describe el credential provider externo (hellojohn u otro
	// compatible con su protocolo v2).
	Provider struct {
		BaseURL  string `yaml:"base_url"`
		ClientID string `yaml:"client_id"`
		Timeout  string `yaml:"timeout"` // duración, ej: "10s"
	} `yaml:"provider"`

	Session struct {
		// Dir es el directorio local donde viven el mirror de sesión y el
		// handle del provider. Default: ~/.fieldtask
		Dir string `yaml:"dir"`
		// AttrCacheTTL es el TTL del cache de atributos de perfil.
		AttrCacheTTL string `yaml:"attr_cache_ttl"`
	} `yaml:"session"`

	Cache struct {
		Kind  string `yaml:"kind"` // memory | redis
		Redis struct {
			Addr   string `yaml:"addr"`
			DB     int    `yaml:"db"`
			Prefix string `yaml:"prefix"`
		} `yaml:"redis"`
		Memory struct {
			DefaultTTL string `yaml:"default_ttl"`
		} `yaml:"memory"`
	} `yaml:"cache"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

// Load lee el YAML de configuración y aplica defaults y overrides de entorno.
// El archivo es opcional: si path está vacío o no existe, se usa la
// configuración por entorno/defaults (útil para la CLI).
func Load(path string) (*Config, error) {
	var c Config

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, err
			}
		} else if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, err
		}
	}

	// Overrides por entorno (toman precedencia sobre YAML)
	if v := os.Getenv("FIELDTASK_ENV"); v != "" {
		c.App.Env = v
	}
	if v := os.Getenv("FIELDTASK_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("FIELDTASK_PROVIDER_URL"); v != "" {
		c.Provider.BaseURL = v
	}
	if v := os.Getenv("FIELDTASK_CLIENT_ID"); v != "" {
		c.Provider.ClientID = v
	}
	if v := os.Getenv("FIELDTASK_SESSION_DIR"); v != "" {
		c.Session.Dir = v
	}
	if v := os.Getenv("FIELDTASK_CACHE_KIND"); v != "" {
		c.Cache.Kind = v
	}
	if v := os.Getenv("FIELDTASK_REDIS_ADDR"); v != "" {
		c.Cache.Redis.Addr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}

	// sane defaults
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8090"
	}
	if c.Server.LoginPath == "" {
		c.Server.LoginPath = "/login"
	}
	if c.Server.HomePath == "" {
		c.Server.HomePath = "/dashboard"
	}
	if c.Provider.Timeout == "" {
		c.Provider.Timeout = "10s"
	}
	if c.Session.Dir == "" {
		c.Session.Dir = defaultSessionDir()
	}
	if c.Session.AttrCacheTTL == "" {
		c.Session.AttrCacheTTL = "5m"
	}
	if c.Cache.Kind == "" {
		c.Cache.Kind = "memory"
	}
	if c.Cache.Memory.DefaultTTL == "" {
		c.Cache.Memory.DefaultTTL = "2m"
	}
	if c.Cache.Redis.Prefix == "" {
		c.Cache.Redis.Prefix = "fieldtask:"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}

	return &c, nil
}

// ProviderTimeout parsea Provider.Timeout con fallback a 10s.
func (c *Config) ProviderTimeout() time.Duration {
	return parseDur(c.Provider.Timeout, 10*time.Second)
}

// AttrCacheTTL parsea Session.AttrCacheTTL con fallback a 5m.
func (c *Config) AttrCacheTTL() time.Duration {
	return parseDur(c.Session.AttrCacheTTL, 5*time.Minute)
}

// MemoryCacheTTL parsea Cache.Memory.DefaultTTL con fallback a 2m.
func (c *Config) MemoryCacheTTL() time.Duration {
	return parseDur(c.Cache.Memory.DefaultTTL, 2*time.Minute)
}

// MirrorPath es la ruta del mirror durable de sesión.
func (c *Config) MirrorPath() string {
	return filepath.Join(c.Session.Dir, "session.json")
}

// HandlePath es la ruta del handle local del provider (refresh token).
func (c *Config) HandlePath() string {
	return filepath.Join(c.Session.Dir, "provider.json")
}

func defaultSessionDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".fieldtask"
	}
	return filepath.Join(home, ".fieldtask")
}

func parseDur(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil || d <= 0 {
		return def
	}
	return d
}
