// Package transports imports every bundled relay sink so that each one
// registers itself with the default registry.
package transports

import (
	_ "github.com/drblury/hookbus/transport/aws"
	_ "github.com/drblury/hookbus/transport/channel"
	_ "github.com/drblury/hookbus/transport/http"
	_ "github.com/drblury/hookbus/transport/io"
	_ "github.com/drblury/hookbus/transport/jetstream"
	_ "github.com/drblury/hookbus/transport/kafka"
	_ "github.com/drblury/hookbus/transport/nats"
	_ "github.com/drblury/hookbus/transport/rabbitmq"
)
