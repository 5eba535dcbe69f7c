package aws

import (
	"context"
	"errors"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-aws/sns"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drblury/hookbus/internal/runtime/config"
	"github.com/drblury/hookbus/transport"
)

func TestRegister(t *testing.T) {
	original := transport.DefaultRegistry
	t.Cleanup(func() { transport.DefaultRegistry = original })
	transport.DefaultRegistry = transport.NewRegistry()
	Register()

	caps := transport.GetCapabilities(TransportName)
	assert.Equal(t, "aws", caps.Name)
	assert.Equal(t, int64(256<<10), caps.MaxMessageSize)
}

func TestCapabilities(t *testing.T) {
	assert.Equal(t, transport.AWSCapabilities, Capabilities())
}

func stubAWS(t *testing.T, pubFactory func(cfg sns.PublisherConfig, logger watermill.LoggerAdapter) (message.Publisher, error)) {
	t.Helper()
	originalConfigLoader := DefaultConfigLoader
	originalTopicResolver := TopicResolverFactory
	originalPubFactory := PublisherFactory
	t.Cleanup(func() {
		DefaultConfigLoader = originalConfigLoader
		TopicResolverFactory = originalTopicResolver
		PublisherFactory = originalPubFactory
	})

	DefaultConfigLoader = func(ctx context.Context, opts ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{Region: "us-east-1"}, nil
	}
	TopicResolverFactory = func(accountID, region string) (*sns.GenerateArnTopicResolver, error) {
		return &sns.GenerateArnTopicResolver{}, nil
	}
	PublisherFactory = pubFactory
}

func TestBuild(t *testing.T) {
	t.Run("creates the publisher", func(t *testing.T) {
		mockPub := &mockPublisher{}
		stubAWS(t, func(cfg sns.PublisherConfig, logger watermill.LoggerAdapter) (message.Publisher, error) {
			assert.Equal(t, "eu-west-1", cfg.AWSConfig.Region)
			assert.Empty(t, cfg.OptFns)
			return mockPub, nil
		})

		cfg := &config.RelayConfig{AWSRegion: "eu-west-1", AWSAccountID: "123456789012"}
		pub, err := Build(context.Background(), cfg, watermill.NopLogger{})

		require.NoError(t, err)
		assert.Same(t, mockPub, pub)
	})

	t.Run("custom endpoint installs a resolver", func(t *testing.T) {
		stubAWS(t, func(cfg sns.PublisherConfig, logger watermill.LoggerAdapter) (message.Publisher, error) {
			assert.Len(t, cfg.OptFns, 1)
			return &mockPublisher{}, nil
		})

		cfg := &config.RelayConfig{AWSRegion: "us-east-1", AWSEndpoint: "http://localhost:4566"}
		_, err := Build(context.Background(), cfg, watermill.NopLogger{})
		require.NoError(t, err)
	})

	t.Run("returns error when config loader fails", func(t *testing.T) {
		stubAWS(t, nil)
		DefaultConfigLoader = func(ctx context.Context, opts ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
			return aws.Config{}, errors.New("config error")
		}

		_, err := Build(context.Background(), &config.RelayConfig{AWSRegion: "us-east-1"}, watermill.NopLogger{})
		assert.ErrorContains(t, err, "config error")
	})

	t.Run("returns error when the endpoint is malformed", func(t *testing.T) {
		stubAWS(t, func(cfg sns.PublisherConfig, logger watermill.LoggerAdapter) (message.Publisher, error) {
			t.Fatal("publisher must not be created")
			return nil, nil
		})

		_, err := Build(context.Background(), &config.RelayConfig{AWSEndpoint: "http://[::1"}, watermill.NopLogger{})
		assert.ErrorContains(t, err, "failed to parse AWS endpoint")
	})

	t.Run("returns error when publisher factory fails", func(t *testing.T) {
		stubAWS(t, func(cfg sns.PublisherConfig, logger watermill.LoggerAdapter) (message.Publisher, error) {
			return nil, errors.New("publisher error")
		})

		_, err := Build(context.Background(), &config.RelayConfig{AWSRegion: "us-east-1"}, watermill.NopLogger{})
		assert.ErrorContains(t, err, "publisher error")
	})
}

func TestResolveAccountAndRegion(t *testing.T) {
	t.Run("uses config values", func(t *testing.T) {
		cfg := &config.RelayConfig{AWSAccountID: "123456789012", AWSRegion: "us-west-2"}
		accountID, region := resolveAccountAndRegion(cfg, watermill.NopLogger{}, "us-east-1")
		assert.Equal(t, "123456789012", accountID)
		assert.Equal(t, "us-west-2", region)
	})

	t.Run("trims quotes", func(t *testing.T) {
		cfg := &config.RelayConfig{AWSAccountID: `"123456789012"`}
		accountID, region := resolveAccountAndRegion(cfg, watermill.NopLogger{}, "us-east-1")
		assert.Equal(t, "123456789012", accountID)
		assert.Equal(t, "us-east-1", region)
	})

	t.Run("falls back to localstack account with an endpoint", func(t *testing.T) {
		cfg := &config.RelayConfig{AWSEndpoint: "http://localhost:4566", AWSAccountID: "abc"}
		accountID, _ := resolveAccountAndRegion(cfg, watermill.NopLogger{}, "us-east-1")
		assert.Equal(t, localstackAccountID, accountID)
	})

	t.Run("returns empty values for nil config", func(t *testing.T) {
		accountID, region := resolveAccountAndRegion(nil, watermill.NopLogger{}, "us-east-1")
		assert.Empty(t, accountID)
		assert.Equal(t, "us-east-1", region)
	})
}

type mockPublisher struct{}

func (m *mockPublisher) Publish(topic string, messages ...*message.Message) error { return nil }
func (m *mockPublisher) Close() error                                             { return nil }
