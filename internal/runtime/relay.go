package runtime

import (
	"context"
	"fmt"

	"github.com/drblury/hookbus/internal/runtime/envelope"
	loggingpkg "github.com/drblury/hookbus/internal/runtime/logging"
	relaypkg "github.com/drblury/hookbus/internal/runtime/relay"
	"github.com/drblury/hookbus/transport"
)

// EnableRelay builds the publisher for Conf.Relay.System from the transport
// registry and attaches a relay to it. It returns nil when the relay is
// disabled. Sinks register themselves on import; see transport/transports.
func (d *Dispatcher) EnableRelay(ctx context.Context) (*relaypkg.Relay, error) {
	rc := d.Conf.Relay
	if !rc.Enabled {
		return nil, nil
	}

	codec, err := envelope.CodecFor(rc.Codec)
	if err != nil {
		return nil, err
	}

	pub, err := transport.Build(ctx, &rc, loggingpkg.NewWatermillAdapter(d.Logger))
	if err != nil {
		return nil, fmt.Errorf("relay %q: %w", rc.System, err)
	}

	caps := transport.GetCapabilities(rc.System)
	r, err := relaypkg.New(pub, d.Logger, relaypkg.Options{
		Topic:          rc.Topic,
		ExceptionTopic: rc.ExceptionTopic,
		Source:         rc.Source,
		Codec:          codec,
		Category:       d.Conf.Category,
		Capabilities:   caps,
	})
	if err != nil {
		_ = pub.Close()
		return nil, err
	}

	if err := d.AttachRelay(r); err != nil {
		_ = r.Close()
		return nil, err
	}

	d.Logger.Info("Relay enabled", loggingpkg.LogFields{
		"system":  rc.System,
		"topic":   rc.Topic,
		"codec":   codec.Name(),
		"durable": caps.Durable,
	})
	return r, nil
}

// AttachRelay registers r as log and exception listener. The dispatcher
// closes it on Close.
func (d *Dispatcher) AttachRelay(r *relaypkg.Relay) error {
	if err := d.RegisterLogListener(r); err != nil {
		return err
	}
	if err := d.RegisterExceptionListener(r); err != nil {
		_ = d.UnregisterLogListener(r)
		return err
	}

	d.relayMu.Lock()
	d.relays = append(d.relays, r)
	d.relayMu.Unlock()
	return nil
}

// RelayStats sums the counters of every attached relay.
func (d *Dispatcher) RelayStats() relaypkg.Stats {
	d.relayMu.Lock()
	defer d.relayMu.Unlock()

	var total relaypkg.Stats
	for _, r := range d.relays {
		s := r.Stats()
		total.Published += s.Published
		total.Dropped += s.Dropped
		total.Failed += s.Failed
	}
	return total
}

func (d *Dispatcher) closeRelays() {
	d.relayMu.Lock()
	relays := d.relays
	d.relays = nil
	d.relayMu.Unlock()

	for _, r := range relays {
		if err := r.Close(); err != nil {
			d.Logger.Error("Failed to close relay", err, nil)
		}
	}
}
