package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/resource"
)

func TestInitTracer_NoEndpoint(t *testing.T) {
	shutdown, err := InitTracer(context.Background(), "posts-service", "", "test")
	require.NoError(t, err)
	require.NotNil(t, shutdown)

	assert.NoError(t, shutdown(context.Background()))
	assert.Contains(t, otel.GetTextMapPropagator().Fields(), "traceparent")
}

func TestNewResource_Attributes(t *testing.T) {
	t.Setenv("OTEL_RESOURCE_ATTRIBUTES", "team=blog")

	res, err := newResource(context.Background(), "posts-service", "test")
	require.NoError(t, err)

	attrs := map[string]string{}
	for _, kv := range res.Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	assert.Equal(t, "posts-service", attrs["service.name"])
	assert.Equal(t, "test", attrs["deployment.environment"])
	assert.Equal(t, "blog", attrs["team"])
}

func TestNewResource_PartialResourceIsReported(t *testing.T) {
	t.Setenv("OTEL_RESOURCE_ATTRIBUTES", "missing-value")

	var reported error
	otel.SetErrorHandler(otel.ErrorHandlerFunc(func(err error) { reported = err }))
	t.Cleanup(func() {
		otel.SetErrorHandler(otel.ErrorHandlerFunc(func(error) {}))
	})

	res, err := newResource(context.Background(), "posts-service", "test")
	require.NoError(t, err)
	require.NotNil(t, res)

	assert.ErrorIs(t, reported, resource.ErrPartialResource)
	assert.Contains(t, res.String(), "service.name=posts-service")
}
