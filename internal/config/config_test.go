package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func newViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	return v
}

func TestFromViperDefaults(t *testing.T) {
	cfg, err := FromViper(newViper())
	require.NoError(t, err)
	require.Equal(t, "http://localhost:8080", cfg.API.BaseURL)
	require.Equal(t, "ws://localhost:8080", cfg.API.WSURL)
	require.Equal(t, uint64(5), cfg.Channel.MaxRetries)
	require.Equal(t, 30*time.Second, cfg.Channel.PingInterval)
	require.Equal(t, "session", cfg.Session.CookieName)
}

func TestFromViperDerivesSecureWSURL(t *testing.T) {
	v := newViper()
	v.Set("api.base_url", "https://jobs.example.com/")

	cfg, err := FromViper(v)
	require.NoError(t, err)
	require.Equal(t, "https://jobs.example.com", cfg.API.BaseURL)
	require.Equal(t, "wss://jobs.example.com", cfg.API.WSURL)
}

func TestFromViperExplicitWSURL(t *testing.T) {
	v := newViper()
	v.Set("api.ws_url", "ws://chat.internal:9000/")

	cfg, err := FromViper(v)
	require.NoError(t, err)
	require.Equal(t, "ws://chat.internal:9000", cfg.API.WSURL)
}

func TestFromViperRejectsShortPongWait(t *testing.T) {
	v := newViper()
	v.Set("channel.pong_wait", time.Second)

	_, err := FromViper(v)
	require.Error(t, err)
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("CHAT_API_BASE_URL", "http://api.test")
	t.Setenv("CHAT_SESSION_USER_ID", "12")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	require.Equal(t, "http://api.test", cfg.API.BaseURL)
	require.Equal(t, 12, cfg.Session.UserID)
}

func TestDiagnosticsFromEnvironment(t *testing.T) {
	t.Setenv("CHAT_DIAGNOSTICS_ADDR", ":9091")
	t.Setenv("CHAT_DIAGNOSTICS_DEBUG", "true")
	t.Setenv("CHAT_DIAGNOSTICS_TOKEN", "s3cret")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	require.Equal(t, DiagnosticsConfig{Addr: ":9091", Debug: true, Token: "s3cret"}, cfg.Diagnostics)
}
