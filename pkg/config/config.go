package config

import "time"

// Chat definition chat_service YAML structure
type Chat struct {
	Port string `mapstructure:"port"`

	PostgreSQL DatabaseConfig  `mapstructure:"pg"`
	MongoSQL   DatabaseConfig  `mapstructure:"mongo"`
	Redis      RedisConfig     `mapstructure:"redis"`
	Store      StoreConfig     `mapstructure:"store"`
	WebSocket  WebSocketConfig `mapstructure:"websocket"`
}

// RedisConfig definition redis setting
type RedisConfig struct {
	RedisDB       int    `mapstructure:"redis_db"`
	NotifyChannel string `mapstructure:"notify_channel"`
}

// DatabaseConfig definition db setting
type DatabaseConfig struct {
	Host          string `mapstructure:"host"`
	Port          int    `mapstructure:"port"`
	User          string `mapstructure:"user"`
	Password      string `mapstructure:"password"`
	Database      string `mapstructure:"database"`
	RetryInterval int    `mapstructure:"retry_interval"`
	RetryCount    int    `mapstructure:"retry_count"`
}

// StoreConfig bounded retry for transient store failures
type StoreConfig struct {
	RetryCount    int           `mapstructure:"retry_count"`
	RetryInterval time.Duration `mapstructure:"retry_interval"`
}

// WebSocketConfig connection timing
type WebSocketConfig struct {
	PingInterval   time.Duration `mapstructure:"ping_interval"`
	WriteWait      time.Duration `mapstructure:"write_wait"`
	PongWait       time.Duration `mapstructure:"pong_wait"`
	SendBuffer     int           `mapstructure:"send_buffer"`
	MaxMessageSize int64         `mapstructure:"max_message_size"`
}

// WithDefaults fill zero values
func (w WebSocketConfig) WithDefaults() WebSocketConfig {
	if w.PingInterval <= 0 {
		w.PingInterval = 30 * time.Second
	}
	if w.WriteWait <= 0 {
		w.WriteWait = 10 * time.Second
	}
	if w.PongWait <= 0 {
		w.PongWait = w.PingInterval * 2
	}
	if w.SendBuffer <= 0 {
		w.SendBuffer = 256
	}
	if w.MaxMessageSize <= 0 {
		w.MaxMessageSize = 64 * 1024
	}
	return w
}

// WithDefaults fill zero values
func (s StoreConfig) WithDefaults() StoreConfig {
	if s.RetryCount <= 0 {
		s.RetryCount = 3
	}
	if s.RetryInterval <= 0 {
		s.RetryInterval = 100 * time.Millisecond
	}
	return s
}
