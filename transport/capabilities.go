package transport

// Capabilities describes what a sink does with relayed messages.
type Capabilities struct {
	// Name is the registered sink name.
	Name string

	// Durable indicates messages survive a restart of the receiving side.
	Durable bool

	// Ordered indicates messages published from one process arrive in
	// publish order.
	Ordered bool

	// Remote indicates messages leave the process.
	Remote bool

	// SupportsHeaders indicates message metadata travels as native headers
	// rather than being dropped or folded into the payload.
	SupportsHeaders bool

	// MaxMessageSize is the largest payload the sink accepts in bytes
	// (0 = unlimited/unknown).
	MaxMessageSize int64
}

// Accepts reports whether a payload of size bytes fits the sink.
func (c Capabilities) Accepts(size int) bool {
	return c.MaxMessageSize == 0 || int64(size) <= c.MaxMessageSize
}

// Predefined capability sets for the bundled sinks.
var (
	ChannelCapabilities = Capabilities{
		Name:            "channel",
		Ordered:         true,
		SupportsHeaders: true,
	}

	KafkaCapabilities = Capabilities{
		Name:            "kafka",
		Durable:         true,
		Ordered:         true,
		Remote:          true,
		SupportsHeaders: true,
		MaxMessageSize:  1 << 20,
	}

	NATSCapabilities = Capabilities{
		Name:            "nats",
		Ordered:         true,
		Remote:          true,
		SupportsHeaders: true,
		MaxMessageSize:  1 << 20,
	}

	NATSJetStreamCapabilities = Capabilities{
		Name:            "nats-jetstream",
		Durable:         true,
		Ordered:         true,
		Remote:          true,
		SupportsHeaders: true,
		MaxMessageSize:  1 << 20,
	}

	RabbitMQCapabilities = Capabilities{
		Name:            "rabbitmq",
		Durable:         true,
		Ordered:         true,
		Remote:          true,
		SupportsHeaders: true,
		MaxMessageSize:  128 << 20,
	}

	HTTPCapabilities = Capabilities{
		Name:            "http",
		Remote:          true,
		SupportsHeaders: true,
	}

	IOCapabilities = Capabilities{
		Name:    "io",
		Durable: true,
		Ordered: true,
	}

	AWSCapabilities = Capabilities{
		Name:            "aws",
		Durable:         true,
		Remote:          true,
		SupportsHeaders: true,
		MaxMessageSize:  256 << 10,
	}
)
