package instrument

import (
	"bytes"
	"context"
	"log"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mealplan-backend/internal/config"
)

func TestSpan_ParentChild(t *testing.T) {
	sink := &MemorySink{}
	inst := NewInstrumenter(sink)

	ctx := WithTraceID(context.Background(), "trace-1")
	ctx, root := inst.StartSpan(ctx, "http", "handler", "request")
	_, child := inst.StartSpan(ctx, "engine", "query", "list")
	child.SetResource("recipes", "")
	child.End()
	root.End()
	root.End()

	events := sink.Events()
	require.Len(t, events, 2)
	assert.Equal(t, "list", events[0].Action)
	assert.Equal(t, root.SpanID(), events[0].ParentSpanID)
	assert.Equal(t, "recipes", events[0].Resource)
	assert.Equal(t, "trace-1", events[1].TraceID)
	assert.Empty(t, events[1].ParentSpanID)
}

func TestGetInstrumenter_DefaultsToNoop(t *testing.T) {
	_, span := GetInstrumenter(context.Background()).StartSpan(context.Background(), "a", "b", "c")
	assert.IsType(t, &NoopSpan{}, span)
	span.End()
}

func TestLogSink_Format(t *testing.T) {
	var buf bytes.Buffer
	sink := &LogSink{Logger: log.New(&buf, "", 0)}
	sink.Emit(Event{TraceID: "t1", Source: "engine", Component: "query", Action: "list",
		Status: "ok", Resource: "recipes", Metadata: map[string]any{"total": 3, "count": 2}})

	line := buf.String()
	assert.True(t, strings.HasPrefix(line, "SPAN trace=t1 engine.query.list"))
	assert.Contains(t, line, "status=ok resource=recipes count=2 total=3")
}

func TestMiddleware_SetsTraceHeader(t *testing.T) {
	sink := &MemorySink{}
	app := fiber.New()
	app.Use(Middleware(config.InstrumentationConfig{Enabled: true, SamplingRate: 1}, sink))
	app.Get("/ok", func(c *fiber.Ctx) error {
		assert.NotEmpty(t, GetTraceID(c.UserContext()))
		return c.SendString("ok")
	})
	app.Get("/missing", func(c *fiber.Ctx) error {
		return fiber.ErrNotFound
	})

	req := httptest.NewRequest("GET", "/ok", nil)
	req.Header.Set("X-Trace-ID", "given")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "given", resp.Header.Get("X-Trace-ID"))

	resp, err = app.Test(httptest.NewRequest("GET", "/missing", nil))
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Trace-ID"))

	events := sink.Events()
	require.Len(t, events, 2)
	assert.Equal(t, "ok", events[0].Status)
	assert.Equal(t, "error", events[1].Status)
	assert.Equal(t, 404, events[1].Metadata["status_code"])
}

func TestMiddleware_Disabled(t *testing.T) {
	sink := &MemorySink{}
	app := fiber.New()
	app.Use(Middleware(config.InstrumentationConfig{Enabled: false}, sink))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString("ok") })

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Empty(t, resp.Header.Get("X-Trace-ID"))
	assert.Empty(t, sink.Events())
}
