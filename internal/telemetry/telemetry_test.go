package telemetry

import (
	"context"
	"testing"

	"github.com/gonzacha/nordia-pos/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestInit_Disabled(t *testing.T) {
	shutdown, err := Init(context.Background(), &config.Config{OTelEnabled: false}, zap.NewNop())

	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestInit_Enabled(t *testing.T) {
	cfg := &config.Config{
		OTelEnabled:  true,
		OTelEndpoint: "localhost:4318",
		ServiceName:  "nordia-pos-test",
		Environment:  "test",
	}

	// Exporters connect lazily, so no collector is needed here
	shutdown, err := Init(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// Flushing against a missing collector may fail; it must not hang
	_ = shutdown(ctx)
}
