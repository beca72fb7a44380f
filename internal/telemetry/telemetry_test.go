package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/safar/storefront/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func restoreGlobal(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })
}

func TestSetupWithoutEndpointIsNoop(t *testing.T) {
	restoreGlobal(t)
	before := otel.GetTracerProvider()

	shutdown, err := Setup(context.Background(), config.TelemetryConfig{ServiceName: "storefront"})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
	assert.Equal(t, before, otel.GetTracerProvider())
}

func TestSetupWithEndpointInstallsProvider(t *testing.T) {
	restoreGlobal(t)

	shutdown, err := Setup(context.Background(), config.TelemetryConfig{
		Endpoint:    "http://127.0.0.1:4318",
		ServiceName: "storefront",
	})
	require.NoError(t, err)

	_, ok := otel.GetTracerProvider().(*sdktrace.TracerProvider)
	assert.True(t, ok)
	assert.NoError(t, shutdown(context.Background()))
}

func TestHandlerRecordsServerSpans(t *testing.T) {
	restoreGlobal(t)

	exporter := tracetest.NewInMemoryExporter()
	tp, err := newTracerProvider("storefront-test", sdktrace.WithSyncer(exporter))
	require.NoError(t, err)
	install(tp)

	h := Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}), "storefront")

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Contains(t, spans[0].Resource.Attributes(), attribute.String("service.name", "storefront-test"))
}
