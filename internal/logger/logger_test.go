package logger

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestNew(t *testing.T) {
	if New(false).GetLevel() != zerolog.InfoLevel {
		t.Error("Expected default logger at info level")
	}
	if New(true).GetLevel() != zerolog.DebugLevel {
		t.Error("Expected verbose logger at debug level")
	}
}

func TestNewWithWriter(t *testing.T) {
	buf := &bytes.Buffer{}
	log := NewWithWriter(buf)

	log.Info().Str("file", "statement.txt").Msg("extracted")

	output := buf.String()
	if !strings.Contains(output, "extracted") || !strings.Contains(output, "statement.txt") {
		t.Errorf("Expected message and field in output, got: %s", output)
	}
}

func TestContextRoundTrip(t *testing.T) {
	buf := &bytes.Buffer{}
	log := NewWithWriter(buf)
	ctx := WithContext(context.Background(), log)

	got := FromContext(ctx)
	got.Info().Msg("via context")

	if buf.Len() == 0 {
		t.Error("Expected log output from retrieved logger")
	}
}

func TestFromContext_DefaultLogger(t *testing.T) {
	log := FromContext(context.Background())
	if log.GetLevel() == zerolog.Disabled {
		t.Error("Expected default logger to be enabled")
	}
}
