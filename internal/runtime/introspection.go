package runtime

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/drblury/hookbus/internal/runtime/jsoncodec"
	loggingpkg "github.com/drblury/hookbus/internal/runtime/logging"
)

// CommandInfo is the serialisable view of one command binding.
type CommandInfo struct {
	Token       string   `json:"token"`
	Listener    string   `json:"listener"`
	Permissions []string `json:"permissions,omitempty"`
	Enabled     bool     `json:"enabled"`
}

// HandlerInfos lists every descriptor grouped by kind, in dispatch order.
func (d *Dispatcher) HandlerInfos() map[string][]DescriptorInfo {
	out := make(map[string][]DescriptorInfo)
	for _, kind := range d.Kinds() {
		for _, h := range d.Handlers(kind) {
			out[string(kind)] = append(out[string(kind)], h.Info())
		}
	}
	return out
}

// CommandInfos lists every command binding ordered by token.
func (d *Dispatcher) CommandInfos() []CommandInfo {
	bindings := d.registry.allCommands()
	out := make([]CommandInfo, 0, len(bindings))
	for _, b := range bindings {
		out = append(out, CommandInfo{
			Token:       b.token,
			Listener:    describeOwner(b.listener),
			Permissions: b.permissions,
			Enabled:     !b.disabled.Load(),
		})
	}
	return out
}

// IntrospectionHandler serves the registry as JSON together with the
// Prometheus metrics.
func (d *Dispatcher) IntrospectionHandler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/api/handlers", d.jsonEndpoint(func() any { return d.HandlerInfos() }))
	mux.Handle("/api/commands", d.jsonEndpoint(func() any { return d.CommandInfos() }))
	mux.Handle("/api/stats", d.jsonEndpoint(func() any { return d.metrics.Snapshot() }))
	mux.Handle("/api/relay", d.jsonEndpoint(func() any { return d.RelayStats() }))
	mux.Handle("/metrics", promhttp.HandlerFor(d.gatherer, promhttp.HandlerOpts{}))
	return mux
}

// ServeIntrospection listens on the configured port until ctx is done. It
// returns immediately when introspection is disabled.
func (d *Dispatcher) ServeIntrospection(ctx context.Context) error {
	if !d.Conf.IntrospectionEnabled {
		return nil
	}
	port := d.Conf.IntrospectionPort
	if port == 0 {
		port = 8081
	}
	addr := net.JoinHostPort("", strconv.Itoa(port))

	srv := &http.Server{
		Addr:              addr,
		Handler:           d.IntrospectionHandler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	d.Logger.Info("Starting introspection server", loggingpkg.LogFields{"address": addr})
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		d.Logger.Error("Introspection server failed", err, loggingpkg.LogFields{"address": addr})
		return err
	}
	return nil
}

func (d *Dispatcher) jsonEndpoint(view func() any) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if origin := d.allowedCORSOrigin(r.Header.Get("Origin")); origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}

		switch r.Method {
		case http.MethodOptions:
			w.WriteHeader(http.StatusNoContent)
			return
		case http.MethodGet, http.MethodHead:
		default:
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}

		if err := jsoncodec.Encode(w, view()); err != nil {
			d.Logger.Error("Failed to encode introspection response", err, loggingpkg.LogFields{"path": r.URL.Path})
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		}
	})
}

// allowedCORSOrigin returns the Access-Control-Allow-Origin value for the
// request origin, or "" when it is not allowed.
func (d *Dispatcher) allowedCORSOrigin(requestOrigin string) string {
	for _, allowed := range d.Conf.IntrospectionCORSAllowedOrigins {
		if allowed == "*" {
			return "*"
		}
		if strings.EqualFold(allowed, requestOrigin) {
			return requestOrigin
		}
	}
	return ""
}
