package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/policyaudit/policyaudit/pkg/defaults"
)

func TestSetupDisabled(t *testing.T) {
	p, err := Setup(context.Background(), Options{})
	require.NoError(t, err)
	assert.False(t, p.Enabled())
	assert.NotNil(t, p.Tracer())
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestSetupWithExporter(t *testing.T) {
	exp := tracetest.NewInMemoryExporter()
	p, err := Setup(context.Background(), Options{Exporter: exp})
	require.NoError(t, err)
	require.True(t, p.Enabled())

	_, span := p.Tracer().Start(context.Background(), "audit.normalize")
	RecordError(span, errors.New("bad counter"))
	span.End()

	// The in-memory exporter drops its spans on shutdown.
	require.NoError(t, p.tp.ForceFlush(context.Background()))
	spans := exp.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "audit.normalize", spans[0].Name)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
	assert.Equal(t, "bad counter", spans[0].Status.Description)

	var service string
	for _, kv := range spans[0].Resource.Attributes() {
		if kv.Key == "service.name" {
			service = kv.Value.AsString()
		}
	}
	assert.Equal(t, defaults.ToolName, service)
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestRecordErrorNil(t *testing.T) {
	exp := tracetest.NewInMemoryExporter()
	p, err := Setup(context.Background(), Options{Exporter: exp})
	require.NoError(t, err)

	_, span := p.Tracer().Start(context.Background(), "ok")
	RecordError(span, nil)
	span.End()
	require.NoError(t, p.tp.ForceFlush(context.Background()))

	require.Len(t, exp.GetSpans(), 1)
	assert.Equal(t, codes.Unset, exp.GetSpans()[0].Status.Code)
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestSplitEndpoint(t *testing.T) {
	tests := []struct {
		in       string
		insecure bool
		host     string
		plain    bool
	}{
		{"localhost:4317", true, "localhost:4317", true},
		{"collector:4317", false, "collector:4317", false},
		{"http://collector:4317", false, "collector:4317", true},
		{"https://collector:4317", true, "collector:4317", false},
	}
	for _, tt := range tests {
		host, plain := splitEndpoint(tt.in, tt.insecure)
		assert.Equal(t, tt.host, host, tt.in)
		assert.Equal(t, tt.plain, plain, tt.in)
	}
}

func TestNilProvider(t *testing.T) {
	var p *Provider
	assert.False(t, p.Enabled())
	assert.NoError(t, p.Shutdown(context.Background()))
}
