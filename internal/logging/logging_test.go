package logging

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestNewWritesServiceField(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "debug", ServiceName: "chat-client", Output: &buf})

	logger.Debug().Str(FieldRoom, "7").Msg("hello")

	require.Contains(t, buf.String(), `"service":"chat-client"`)
	require.Contains(t, buf.String(), `"room_key":"7"`)
}

func TestParseLevel(t *testing.T) {
	require.Equal(t, zerolog.WarnLevel, parseLevel("WARNING"))
	require.Equal(t, zerolog.InfoLevel, parseLevel("bogus"))
	require.Equal(t, zerolog.Disabled, parseLevel("off"))
}

func TestCtxFallsBackToGlobal(t *testing.T) {
	var buf bytes.Buffer
	scoped := New(Config{Output: &buf})
	ctx := WithLogger(context.Background(), scoped)

	fromCtx := Ctx(ctx)
	fromCtx.Info().Msg("scoped")
	require.Contains(t, buf.String(), "scoped")

	require.Equal(t, L().GetLevel(), Ctx(context.Background()).GetLevel())
}
