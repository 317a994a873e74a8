package structures

import "time"

type Server struct {
	Host string `yaml:"host" validate:"required"`
	Port int    `yaml:"port" validate:"required|uint|min:1"`
}

type Persistence struct {
	FilePath     string        `yaml:"filePath" validate:"required|unixPath"`
	SaveInterval time.Duration `yaml:"saveInterval" validate:"required|min:1"`
	SaveDebounce time.Duration `yaml:"saveDebounce"`
}

type LoggerConfig struct {
	Level string `yaml:"level" validate:"required|in:trace,debug,info,warn,error,fatal,panic"`
	Mode  uint32 `yaml:"mode" validate:"required|uint"`
	Dir   string `yaml:"dir" validate:"required|unixPath"`
}

type DegradationConfig struct {
	TickInterval time.Duration `yaml:"tickInterval" validate:"required|min:1"`
	MaxTicks     int           `yaml:"maxTicks"`
}

type ChatConfig struct {
	APIKey      string        `yaml:"apiKey"`
	BaseURL     string        `yaml:"baseURL"`
	Model       string        `yaml:"model"`
	VisionModel string        `yaml:"visionModel"`
	Timeout     time.Duration `yaml:"timeout"`
}

type HubConfig struct {
	BaseURL      string        `yaml:"baseURL"`
	AppURL       string        `yaml:"appURL"`
	RetryDelay   time.Duration `yaml:"retryDelay"`
	SyncInterval time.Duration `yaml:"syncInterval"`
	Timeout      time.Duration `yaml:"timeout"`
}

type CacheConfig struct {
	Enabled bool `yaml:"enabled"`
	Size    int  `yaml:"size"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

type Config struct {
	AppName     string
	Debug       bool
	Path        string
	Degradation DegradationConfig `yaml:"degradation"`
	WebServer   Server            `yaml:"webServer"`
	Persistence Persistence       `yaml:"persistence"`
	Logger      LoggerConfig      `yaml:"logger"`
	Chat        ChatConfig        `yaml:"chat"`
	Hub         HubConfig         `yaml:"hub"`
	Cache       CacheConfig       `yaml:"cache"`
	Metrics     MetricsConfig     `yaml:"metrics"`
}
