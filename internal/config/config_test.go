package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("applies defaults", func(t *testing.T) {
		t.Setenv("POSTGRES_URL", "postgres://localhost/cayocagi")
		t.Setenv("JWT_SECRET", "s3cret")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, ":8080", cfg.HTTPAddr)
		assert.Equal(t, "order.lifecycle", cfg.KafkaTopic)
		assert.Equal(t, 12*time.Hour, cfg.JWTTTL)
		assert.Equal(t, 5*time.Minute, cfg.OrderCacheTTL)
		assert.Empty(t, cfg.KafkaBrokers)
	})

	t.Run("requires postgres url", func(t *testing.T) {
		t.Setenv("POSTGRES_URL", "")
		t.Setenv("JWT_SECRET", "s3cret")

		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("requires both admin credentials", func(t *testing.T) {
		t.Setenv("POSTGRES_URL", "postgres://localhost/cayocagi")
		t.Setenv("JWT_SECRET", "s3cret")
		t.Setenv("ADMIN_USERNAME", "admin")
		t.Setenv("ADMIN_PASSWORD", "")

		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("rejects bad duration", func(t *testing.T) {
		t.Setenv("POSTGRES_URL", "postgres://localhost/cayocagi")
		t.Setenv("JWT_SECRET", "s3cret")
		t.Setenv("JWT_TTL", "soon")

		_, err := Load()
		assert.Error(t, err)
	})
}

func TestSplitCSV(t *testing.T) {
	assert.Equal(t, []string{"a:9092", "b:9092"}, splitCSV(" a:9092, ,b:9092 "))
	assert.Empty(t, splitCSV(""))
}
