package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/samples")

	c, err := load(viper.New())
	require.NoError(t, err)
	assert.Equal(t, "prod", c.Env)
	assert.Equal(t, "8080", c.ServerPort)
	assert.True(t, c.MetricsEnabled)
	assert.True(t, c.MigrateOnStart)
	assert.Equal(t, EventsNone, c.EventsBackend)
	assert.Equal(t, "sample-logistics.events", c.EventsQueue)
	assert.Equal(t, "sample-logistics.events", c.KafkaTopic)
	assert.False(t, c.IsDev())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/samples")
	t.Setenv("APP_ENV", "dev")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("METRICS_ENABLED", "false")
	t.Setenv("EVENTS_BACKEND", "kafka")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")

	c, err := load(viper.New())
	require.NoError(t, err)
	assert.True(t, c.IsDev())
	assert.Equal(t, "9090", c.ServerPort)
	assert.False(t, c.MetricsEnabled)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, c.Brokers())
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	_, err := load(viper.New())
	assert.ErrorContains(t, err, "DATABASE_URL")

	t.Setenv("DATABASE_URL", "postgres://localhost/samples")
	t.Setenv("EVENTS_BACKEND", "sqs")
	_, err = load(viper.New())
	assert.ErrorContains(t, err, "EVENTS_BACKEND")

	t.Setenv("EVENTS_BACKEND", "kafka")
	t.Setenv("KAFKA_BROKERS", "")
	_, err = load(viper.New())
	assert.ErrorContains(t, err, "KAFKA_BROKERS")
}
