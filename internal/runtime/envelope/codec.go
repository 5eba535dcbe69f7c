package envelope

import (
	"fmt"
	"strings"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/drblury/hookbus/internal/runtime/jsoncodec"
)

// Codec puts envelopes on the wire.
type Codec interface {
	Name() string
	ContentType() string
	Marshal(Envelope) ([]byte, error)
	Unmarshal([]byte) (Envelope, error)
}

// Content types of the bundled codecs.
const (
	ContentTypeJSON  = "application/cloudevents+json"
	ContentTypeProto = "application/cloudevents+protobuf"
)

// CodecFor resolves a codec by name; "" selects JSON.
func CodecFor(name string) (Codec, error) {
	switch strings.ToLower(name) {
	case "", "json":
		return JSONCodec{}, nil
	case "proto", "protobuf":
		return ProtoCodec{}, nil
	default:
		return nil, fmt.Errorf("hookbus: unknown envelope codec %q", name)
	}
}

// JSONCodec encodes the structured CloudEvents JSON form.
type JSONCodec struct{}

func (JSONCodec) Name() string        { return "json" }
func (JSONCodec) ContentType() string { return ContentTypeJSON }

func (JSONCodec) Marshal(e Envelope) ([]byte, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return jsoncodec.Marshal(e.toMap())
}

func (JSONCodec) Unmarshal(data []byte) (Envelope, error) {
	var m map[string]any
	if err := jsoncodec.Unmarshal(data, &m); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return fromMap(m)
}

// ProtoCodec encodes the attribute map as a google.protobuf.Struct. Data
// must survive a JSON round trip; anything else is rejected.
type ProtoCodec struct{}

func (ProtoCodec) Name() string        { return "proto" }
func (ProtoCodec) ContentType() string { return ContentTypeProto }

func (ProtoCodec) Marshal(e Envelope) ([]byte, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}
	m, err := plain(e.toMap())
	if err != nil {
		return nil, err
	}
	s, err := structpb.NewStruct(m)
	if err != nil {
		return nil, fmt.Errorf("hookbus: envelope to struct: %w", err)
	}
	return proto.MarshalOptions{Deterministic: true}.Marshal(s)
}

func (ProtoCodec) Unmarshal(data []byte) (Envelope, error) {
	var s structpb.Struct
	if err := proto.Unmarshal(data, &s); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return fromMap(s.AsMap())
}

// plain normalises m to the JSON value space structpb accepts.
func plain(m map[string]any) (map[string]any, error) {
	b, err := jsoncodec.Marshal(m)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := jsoncodec.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}
