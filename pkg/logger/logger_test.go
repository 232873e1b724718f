package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vemx1/vemx1/pkg/logger"
)

type ctxKey struct{}

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("creates JSON logger", func(t *testing.T) {
		t.Parallel()
		buf := &bytes.Buffer{}
		log := logger.New(logger.WithOutput(buf))
		log.Info("hello")
		entry := decode(t, buf)
		assert.Equal(t, "INFO", entry["level"])
		assert.Equal(t, "hello", entry["msg"])
	})

	t.Run("text formatter option", func(t *testing.T) {
		t.Parallel()
		buf := &bytes.Buffer{}
		log := logger.New(logger.WithOutput(buf), logger.WithFormat(logger.FormatText))
		log.Info("hello")
		assert.Contains(t, buf.String(), "msg=hello")
	})

	t.Run("unknown format keeps json", func(t *testing.T) {
		t.Parallel()
		buf := &bytes.Buffer{}
		logger.New(logger.WithOutput(buf), logger.WithFormat("xml")).Info("hello")
		assert.Equal(t, "hello", decode(t, buf)["msg"])
	})

	t.Run("redacted keys", func(t *testing.T) {
		t.Parallel()
		buf := &bytes.Buffer{}
		log := logger.New(logger.WithOutput(buf), logger.WithRedactedKeys("hottok", "Authorization"))
		log.Info("webhook received", slog.String("HOTTOK", "s3cr3t"), slog.String("authorization", "Bearer x"), logger.UserID("u1"))
		entry := decode(t, buf)
		assert.Equal(t, logger.Redacted, entry["HOTTOK"])
		assert.Equal(t, logger.Redacted, entry["authorization"])
		assert.Equal(t, "u1", entry["user_id"])
		assert.NotContains(t, buf.String(), "s3cr3t")
	})

	t.Run("context value is injected", func(t *testing.T) {
		t.Parallel()
		buf := &bytes.Buffer{}
		log := logger.New(logger.WithOutput(buf), logger.WithContextValue("request_id", ctxKey{}))
		ctx := context.WithValue(context.Background(), ctxKey{}, "req-1")
		log.InfoContext(ctx, "hello")
		assert.Equal(t, "req-1", decode(t, buf)["request_id"])
	})

	t.Run("extractors survive WithAttrs and WithGroup", func(t *testing.T) {
		t.Parallel()
		buf := &bytes.Buffer{}
		log := logger.New(
			logger.WithOutput(buf),
			logger.WithContextExtractors(nil, func(ctx context.Context) (slog.Attr, bool) {
				return slog.String("tenant", "t1"), true
			}),
		)
		log.With(slog.String("svc", "x")).InfoContext(context.Background(), "hello")
		entry := decode(t, buf)
		assert.Equal(t, "t1", entry["tenant"])
		assert.Equal(t, "x", entry["svc"])
	})

	t.Run("explicit attribute wins over context", func(t *testing.T) {
		t.Parallel()
		buf := &bytes.Buffer{}
		log := logger.New(logger.WithOutput(buf), logger.WithContextValue("request_id", ctxKey{}))
		ctx := context.WithValue(context.Background(), ctxKey{}, "from-ctx")
		log.InfoContext(ctx, "hello", logger.RequestID("explicit"))
		assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte(`"request_id"`)))
		assert.Equal(t, "explicit", decode(t, buf)["request_id"])
	})
}

func TestWithEnvironment(t *testing.T) {
	t.Parallel()

	tests := []struct {
		env      string
		wantJSON bool
		wantEnv  string
	}{
		{"production", true, logger.EnvProduction},
		{"prod", true, logger.EnvProduction},
		{"staging", true, logger.EnvStaging},
		{"development", false, logger.EnvDevelopment},
		{"", false, logger.EnvDevelopment},
	}
	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			t.Parallel()
			buf := &bytes.Buffer{}
			log := logger.New(logger.WithOutput(buf), logger.WithEnvironment(tt.env, "vemx1"))
			log.Info("msg")
			if tt.wantJSON {
				entry := decode(t, buf)
				assert.Equal(t, "vemx1", entry["service"])
				assert.Equal(t, tt.wantEnv, entry["env"])
				return
			}
			assert.Contains(t, buf.String(), "service=vemx1")
			assert.Contains(t, buf.String(), "env="+tt.wantEnv)
		})
	}
}

func TestAttrs(t *testing.T) {
	t.Parallel()

	err := errors.New("boom")
	assert.Equal(t, "error", logger.Error(err).Key)
	assert.True(t, logger.Error(nil).Equal(slog.Attr{}))

	errs := logger.Errors(err, nil, err)
	require.Equal(t, slog.KindGroup, errs.Value.Kind())
	assert.Len(t, errs.Value.Group(), 2)
	assert.True(t, logger.Errors(nil).Equal(slog.Attr{}))

	assert.Equal(t, "u1", logger.UserID("u1").Value.String())
	assert.True(t, logger.UserID("").Equal(slog.Attr{}))
	assert.True(t, logger.TransactionID("").Equal(slog.Attr{}))
	assert.Equal(t, "provider", logger.Provider("hotmart").Key)
	assert.Equal(t, "event_kind", logger.EventKind("purchaseApproved").Key)
	assert.Equal(t, "outcome", logger.Outcome("applied").Key)

	g := logger.Group("req", slog.String("id", "1"))
	assert.Equal(t, "req", g.Key)
	assert.Len(t, g.Value.Group(), 1)
}

func TestWithLevelName(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	log := logger.New(
		logger.WithOutput(buf),
		logger.WithEnvironment("production", "vemx1"),
		logger.WithLevelName("warn"),
	)
	log.Info("dropped")
	assert.Zero(t, buf.Len())
	log.Warn("kept")
	assert.Equal(t, "kept", decode(t, buf)["msg"])

	buf.Reset()
	log = logger.New(logger.WithOutput(buf), logger.WithLevelName("loud"))
	log.Info("default level kept")
	assert.NotZero(t, buf.Len())
}
