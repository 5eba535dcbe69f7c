package runtime

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	configpkg "github.com/drblury/hookbus/internal/runtime/config"
	"github.com/drblury/hookbus/internal/runtime/events"
	"github.com/drblury/hookbus/internal/runtime/jsoncodec"
)

func TestIntrospection_Handlers(t *testing.T) {
	d, _ := newTestDispatcher(t, func(conf *configpkg.Config, _ *Dependencies) {
		conf.IntrospectionCORSAllowedOrigins = []string{"https://ops.example.com"}
	})
	register(t, d, &probe{name: "greeter", priority: 7, tr: &callTrace{}})
	_, err := d.RegisterFunc(events.KindChat, func(int) {}, HandlerOptions{Name: "broken"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/handlers", nil)
	req.Header.Set("Origin", "https://OPS.example.com")
	rec := httptest.NewRecorder()
	d.IntrospectionHandler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "https://OPS.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	var payload map[string][]DescriptorInfo
	require.NoError(t, jsoncodec.Unmarshal(rec.Body.Bytes(), &payload))
	chat := payload["ChatEvent"]
	require.Len(t, chat, 2)
	assert.Equal(t, "greeter", chat[0].Name)
	assert.Equal(t, 7, chat[0].Priority)
	assert.True(t, chat[0].Enabled)
	assert.Equal(t, "broken", chat[1].Name)
	assert.False(t, chat[1].Enabled)
	assert.NotEmpty(t, chat[1].InvalidReason)
}

func TestIntrospection_CommandsAndCORS(t *testing.T) {
	d, _ := newTestDispatcher(t)
	require.NoError(t, d.RegisterCommands(&tokenListener{name: "warp", tokens: []string{"warp"}}, WithPermissions("travel")))

	req := httptest.NewRequest(http.MethodGet, "/api/commands", nil)
	req.Header.Set("Origin", "https://elsewhere.example.com")
	rec := httptest.NewRecorder()
	d.IntrospectionHandler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))

	var payload []CommandInfo
	require.NoError(t, jsoncodec.Unmarshal(rec.Body.Bytes(), &payload))
	require.Len(t, payload, 1)
	assert.Equal(t, CommandInfo{Token: "warp", Listener: "warp", Permissions: []string{"travel"}, Enabled: true}, payload[0])
}

func TestIntrospection_PreflightAndMethods(t *testing.T) {
	d, _ := newTestDispatcher(t, func(conf *configpkg.Config, _ *Dependencies) {
		conf.IntrospectionCORSAllowedOrigins = []string{"*"}
	})
	h := d.IntrospectionHandler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/stats", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/stats", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestIntrospection_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	d, _ := newTestDispatcher(t, func(conf *configpkg.Config, deps *Dependencies) {
		conf.MetricsEnabled = true
		deps.Registerer = reg
	})
	d.Dispatch(t.Context(), chatEvent("hi"))

	rec := httptest.NewRecorder()
	d.IntrospectionHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "hookbus_dispatch_events_total"))
}

func TestServeIntrospection_Disabled(t *testing.T) {
	d, _ := newTestDispatcher(t)
	assert.NoError(t, d.ServeIntrospection(t.Context()))
}
