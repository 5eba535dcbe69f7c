package http

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-http/v2/pkg/http"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drblury/hookbus/internal/runtime/config"
	errspkg "github.com/drblury/hookbus/internal/runtime/errors"
	"github.com/drblury/hookbus/transport"
)

func TestRegister(t *testing.T) {
	original := transport.DefaultRegistry
	t.Cleanup(func() { transport.DefaultRegistry = original })
	transport.DefaultRegistry = transport.NewRegistry()
	Register()

	assert.Equal(t, "http", transport.GetCapabilities(TransportName).Name)
}

func TestCapabilities(t *testing.T) {
	assert.Equal(t, transport.HTTPCapabilities, Capabilities())
}

func TestMarshalMessageFunc(t *testing.T) {
	msg := message.NewMessage("id-1", []byte(`{"message":"hi"}`))
	msg.Metadata.Set("category", "chat")

	req, err := MarshalMessageFunc("http://collector.local/ingest/")(
		"hookbus.log.chat", msg,
	)
	require.NoError(t, err)

	assert.Equal(t, "POST", req.Method)
	assert.Equal(t, "http://collector.local/ingest/hookbus.log.chat", req.URL.String())
	body, err := io.ReadAll(req.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"message":"hi"}`, string(body))
}

func TestBuild(t *testing.T) {
	t.Run("requires a publisher url", func(t *testing.T) {
		_, err := Build(context.Background(), &config.RelayConfig{}, watermill.NopLogger{})
		assert.ErrorIs(t, err, errspkg.ErrConfigRequired)
	})

	t.Run("creates the publisher", func(t *testing.T) {
		originalPubFactory := PublisherFactory
		defer func() { PublisherFactory = originalPubFactory }()

		mockPub := &mockPublisher{}
		PublisherFactory = func(cfg http.PublisherConfig, logger watermill.LoggerAdapter) (message.Publisher, error) {
			assert.NotNil(t, cfg.MarshalMessageFunc)
			return mockPub, nil
		}

		pub, err := Build(context.Background(), &config.RelayConfig{HTTPPublisherURL: "http://localhost:8080/"}, watermill.NopLogger{})
		require.NoError(t, err)
		assert.Same(t, mockPub, pub)
	})

	t.Run("returns error when publisher factory fails", func(t *testing.T) {
		originalPubFactory := PublisherFactory
		defer func() { PublisherFactory = originalPubFactory }()

		PublisherFactory = func(cfg http.PublisherConfig, logger watermill.LoggerAdapter) (message.Publisher, error) {
			return nil, errors.New("publisher error")
		}

		_, err := Build(context.Background(), &config.RelayConfig{HTTPPublisherURL: "http://localhost:8080/"}, watermill.NopLogger{})
		assert.ErrorContains(t, err, "publisher error")
	})
}

type mockPublisher struct{}

func (m *mockPublisher) Publish(topic string, messages ...*message.Message) error { return nil }
func (m *mockPublisher) Close() error                                             { return nil }
