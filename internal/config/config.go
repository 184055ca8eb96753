package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds everything the chat client needs at startup.
type Config struct {
	Environment string
	API         APIConfig
	Session     SessionConfig
	Channel     ChannelConfig
	Log         LogConfig
	Diagnostics DiagnosticsConfig
	AMQP        AMQPConfig
	Archive     ArchiveConfig
	OTel        OTelConfig
}

type APIConfig struct {
	BaseURL string
	WSURL   string
	Timeout time.Duration
}

type SessionConfig struct {
	Token      string
	CookieName string
	UserID     int
}

type ChannelConfig struct {
	MaxRetries     uint64
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	PingInterval   time.Duration
	PongWait       time.Duration
	WriteWait      time.Duration
	MaxMessageSize int64
	SendBuffer     int
}

type LogConfig struct {
	Level  string
	Pretty bool
}

type DiagnosticsConfig struct {
	Addr  string
	Debug bool
	Token string
}

type AMQPConfig struct {
	URL        string
	Exchange   string
	RoutingKey string
}

type ArchiveConfig struct {
	DSN string
}

type OTelConfig struct {
	Endpoint string
}

// Load reads an optional .env file, an optional chatclient.yaml and CHAT_*
// environment variables, in increasing order of precedence.
func Load(paths ...string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("chatclient")
	v.SetConfigType("yaml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvPrefix("CHAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	return FromViper(v)
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Environment: v.GetString("environment"),
		API: APIConfig{
			BaseURL: strings.TrimRight(v.GetString("api.base_url"), "/"),
			WSURL:   strings.TrimRight(v.GetString("api.ws_url"), "/"),
			Timeout: v.GetDuration("api.timeout"),
		},
		Session: SessionConfig{
			Token:      v.GetString("session.token"),
			CookieName: v.GetString("session.cookie_name"),
			UserID:     v.GetInt("session.user_id"),
		},
		Channel: ChannelConfig{
			MaxRetries:     v.GetUint64("channel.max_retries"),
			InitialBackoff: v.GetDuration("channel.initial_backoff"),
			MaxBackoff:     v.GetDuration("channel.max_backoff"),
			PingInterval:   v.GetDuration("channel.ping_interval"),
			PongWait:       v.GetDuration("channel.pong_wait"),
			WriteWait:      v.GetDuration("channel.write_wait"),
			MaxMessageSize: v.GetInt64("channel.max_message_size"),
			SendBuffer:     v.GetInt("channel.send_buffer"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Pretty: v.GetBool("log.pretty"),
		},
		Diagnostics: DiagnosticsConfig{
			Addr:  v.GetString("diagnostics.addr"),
			Debug: v.GetBool("diagnostics.debug"),
			Token: v.GetString("diagnostics.token"),
		},
		AMQP: AMQPConfig{
			URL:        v.GetString("amqp.url"),
			Exchange:   v.GetString("amqp.exchange"),
			RoutingKey: v.GetString("audit.routing_key"),
		},
		Archive: ArchiveConfig{DSN: v.GetString("archive.dsn")},
		OTel:    OTelConfig{Endpoint: v.GetString("otel.endpoint")},
	}

	if cfg.API.WSURL == "" {
		cfg.API.WSURL = wsURLFromBase(cfg.API.BaseURL)
	}
	if cfg.API.BaseURL == "" {
		return nil, fmt.Errorf("api.base_url is required")
	}
	if cfg.Channel.PongWait <= cfg.Channel.PingInterval {
		return nil, fmt.Errorf("channel.pong_wait (%s) must exceed channel.ping_interval (%s)", cfg.Channel.PongWait, cfg.Channel.PingInterval)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "dev")
	v.SetDefault("api.base_url", "http://localhost:8080")
	v.SetDefault("api.timeout", 15*time.Second)
	v.SetDefault("session.cookie_name", "session")
	v.SetDefault("channel.max_retries", 5)
	v.SetDefault("channel.initial_backoff", 500*time.Millisecond)
	v.SetDefault("channel.max_backoff", 10*time.Second)
	v.SetDefault("channel.ping_interval", 30*time.Second)
	v.SetDefault("channel.pong_wait", 60*time.Second)
	v.SetDefault("channel.write_wait", 10*time.Second)
	v.SetDefault("channel.max_message_size", 64*1024)
	v.SetDefault("channel.send_buffer", 64)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", true)
	v.SetDefault("amqp.exchange", "chat-client.events")
	v.SetDefault("audit.routing_key", "audit.chat-client")
}

// SetDefaults exposes the defaults for callers building their own viper instance.
func SetDefaults(v *viper.Viper) {
	setDefaults(v)
}

func wsURLFromBase(base string) string {
	switch {
	case strings.HasPrefix(base, "https://"):
		return "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		return "ws://" + strings.TrimPrefix(base, "http://")
	default:
		return base
	}
}
