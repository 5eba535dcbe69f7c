package hookbus

import (
	"context"

	runtimepkg "github.com/drblury/hookbus/internal/runtime"
	"github.com/drblury/hookbus/internal/runtime/actor"
	"github.com/drblury/hookbus/internal/runtime/commands"
	configpkg "github.com/drblury/hookbus/internal/runtime/config"
	"github.com/drblury/hookbus/internal/runtime/core"
	"github.com/drblury/hookbus/internal/runtime/envelope"
	errspkg "github.com/drblury/hookbus/internal/runtime/errors"
	"github.com/drblury/hookbus/internal/runtime/events"
	idspkg "github.com/drblury/hookbus/internal/runtime/ids"
	jsoncodec "github.com/drblury/hookbus/internal/runtime/jsoncodec"
	loggingpkg "github.com/drblury/hookbus/internal/runtime/logging"
	"github.com/drblury/hookbus/internal/runtime/markup"
	metadatapkg "github.com/drblury/hookbus/internal/runtime/metadata"
	relaypkg "github.com/drblury/hookbus/internal/runtime/relay"
	"github.com/drblury/hookbus/transport"
)

type (
	Config       = configpkg.Config
	RelayConfig  = configpkg.RelayConfig
	Dispatcher   = runtimepkg.Dispatcher
	Dependencies = runtimepkg.Dependencies

	// Events
	Event           = events.Event
	Kind            = events.Kind
	Catalog         = events.Catalog
	Base            = events.Base
	PlayerEvent     = events.PlayerEvent
	ConnectEvent    = events.ConnectEvent
	DisconnectEvent = events.DisconnectEvent
	ChatEvent       = events.ChatEvent
	CommandEvent    = events.CommandEvent
	LogEvent        = events.LogEvent
	GenericEvent    = events.GenericEvent
	ThrowableEvent  = events.ThrowableEvent

	// Listener registration
	EventHandler      = runtimepkg.EventHandler
	EventHandlerFunc  = runtimepkg.EventHandlerFunc
	Listener          = runtimepkg.Listener
	PriorityListener  = runtimepkg.PriorityListener
	SecondaryListener = runtimepkg.SecondaryListener
	CancelObserver    = runtimepkg.CancelObserver
	HandlerOptions    = runtimepkg.HandlerOptions
	HandlerDescriptor = runtimepkg.HandlerDescriptor
	DescriptorInfo    = runtimepkg.DescriptorInfo
	DispatchOption    = runtimepkg.DispatchOption
	CommandOption     = runtimepkg.CommandOption
	CommandInfo       = runtimepkg.CommandInfo

	// Dispatch hooks and metrics
	DispatchContext         = runtimepkg.DispatchContext
	DispatchHooks           = runtimepkg.DispatchHooks
	DispatchMetrics         = runtimepkg.DispatchMetrics
	DispatchMetricsSnapshot = runtimepkg.DispatchMetricsSnapshot

	// Log and exception fan-out
	LogListener           = runtimepkg.LogListener
	LogListenerFunc       = runtimepkg.LogListenerFunc
	ExceptionListener     = runtimepkg.ExceptionListener
	ExceptionListenerFunc = runtimepkg.ExceptionListenerFunc
	LogSink               = runtimepkg.LogSink

	// Commands and actors
	Actor           = actor.Actor
	Console         = actor.Console
	Player          = actor.Player
	Command         = commands.Command
	CommandListener = commands.Listener
	CommandHandler  = commands.Handler
	CommandFunc     = commands.HandlerFunc
	CommandResponse = commands.Response
	CommandResult   = commands.Result
	CommandLogType  = commands.LogType
	Announcer       = core.Announcer
	AnnouncerFunc   = core.AnnouncerFunc

	Metadata = metadatapkg.Metadata

	LogFields                 = loggingpkg.LogFields
	ServiceLogger             = loggingpkg.ServiceLogger
	EntryLoggerAdapter[T any] = loggingpkg.EntryLoggerAdapter[T]

	ConfigValidationError = errspkg.ConfigValidationError
	ListenerError         = errspkg.ListenerError
	PanicError            = errspkg.PanicError

	// Relay
	Envelope     = envelope.Envelope
	Codec        = envelope.Codec
	Relay        = relaypkg.Relay
	RelayOptions = relaypkg.Options
	RelayStats   = relaypkg.Stats

	// Relay sinks. Import the sink packages (or transport/transports for
	// all of them) to populate DefaultTransportRegistry.
	TransportBuilder      = transport.Builder
	TransportConfig       = transport.Config
	TransportRegistry     = transport.Registry
	TransportCapabilities = transport.Capabilities
)

var (
	NewDispatcher     = runtimepkg.NewDispatcher
	MustNewDispatcher = runtimepkg.MustNewDispatcher
	DefaultConfig     = configpkg.Default
	LoadConfig        = configpkg.Load

	WithoutLog      = runtimepkg.WithoutLog
	WithLog         = runtimepkg.WithLog
	WithPermissions = runtimepkg.WithPermissions

	LoggingHooks       = runtimepkg.LoggingHooks
	MetricsHooks       = runtimepkg.MetricsHooks
	AlertingHooks      = runtimepkg.AlertingHooks
	NewDispatchMetrics = runtimepkg.NewDispatchMetrics
	NewLoggerSink      = runtimepkg.NewLoggerSink

	NewCatalog         = events.NewCatalog
	DefineEvent        = events.Define
	NewBase            = events.NewBase
	NewPlayerEvent     = events.NewPlayerEvent
	NewConnectEvent    = events.NewConnectEvent
	NewDisconnectEvent = events.NewDisconnectEvent
	NewChatEvent       = events.NewChatEvent
	NewCommandEvent    = events.NewCommandEvent
	NewLogEvent        = events.NewLogEvent
	NewGenericEvent    = events.NewGenericEvent
	NewThrowableEvent  = events.NewThrowableEvent

	NewConsole         = actor.NewConsole
	NewPlayer          = actor.NewPlayer
	NewCommand         = commands.New
	ParseCommand       = commands.Parse
	NewCommandResponse = commands.NewResponse
	NewCoreModule      = core.New

	StripMarkup = markup.Strip
	StripTags   = markup.StripTags

	NewRelay    = relaypkg.New
	NewEnvelope = envelope.New
	CodecFor    = envelope.CodecFor

	DefaultTransportRegistry = transport.DefaultRegistry
	RegisterTransport        = transport.Register
	BuildTransport           = transport.Build
	GetCapabilities          = transport.GetCapabilities

	Marshal       = jsoncodec.Marshal
	MarshalIndent = jsoncodec.MarshalIndent
	Unmarshal     = jsoncodec.Unmarshal
	Encode        = jsoncodec.Encode
	Decode        = jsoncodec.Decode

	ErrDispatcherRequired   = errspkg.ErrDispatcherRequired
	ErrDispatcherClosed     = errspkg.ErrDispatcherClosed
	ErrListenerRequired     = errspkg.ErrListenerRequired
	ErrHandlerRequired      = errspkg.ErrHandlerRequired
	ErrKindRequired         = errspkg.ErrKindRequired
	ErrKindsRequired        = errspkg.ErrKindsRequired
	ErrKindConflict         = errspkg.ErrKindConflict
	ErrCommandTokenRequired = errspkg.ErrCommandTokenRequired
	ErrOwnerNotComparable   = errspkg.ErrOwnerNotComparable
	ErrEventRequired        = errspkg.ErrEventRequired
	ErrCommandRequired      = errspkg.ErrCommandRequired
	ErrActorRequired        = errspkg.ErrActorRequired
	ErrConfigRequired       = errspkg.ErrConfigRequired
	ErrLoggerRequired       = errspkg.ErrLoggerRequired
	ErrPublisherRequired    = errspkg.ErrPublisherRequired
	ErrTopicRequired        = errspkg.ErrTopicRequired
	ErrPublisherClosed      = errspkg.ErrPublisherClosed

	NewSlogServiceLogger = loggingpkg.NewSlogServiceLogger
	NewNopServiceLogger  = loggingpkg.NewNopServiceLogger

	NewMetadata = metadatapkg.New

	CreateULID = idspkg.CreateULID
)

// Built-in event kinds.
const (
	KindConnect    = events.KindConnect
	KindDisconnect = events.KindDisconnect
	KindChat       = events.KindChat
	KindCommand    = events.KindCommand
	KindLog        = events.KindLog
	KindGeneric    = events.KindGeneric
	KindThrowable  = events.KindThrowable
)

// Dispatch outcomes reported to DispatchHooks.OnDispatchDone.
const (
	OutcomeHandled   = runtimepkg.OutcomeHandled
	OutcomeUnhandled = runtimepkg.OutcomeUnhandled
	OutcomeCanceled  = runtimepkg.OutcomeCanceled
)

const (
	ResultNone    = commands.ResultNone
	ResultSuccess = commands.ResultSuccess
	ResultFailure = commands.ResultFailure
	ResultDenied  = commands.ResultDenied
)

// Metadata keys stamped on relayed messages.
const (
	MetadataKeyCategory  = metadatapkg.KeyCategory
	MetadataKeyImportant = metadatapkg.KeyImportant
	MetadataKeyEventKind = metadatapkg.KeyEventKind
	MetadataKeyTraceID   = metadatapkg.KeyTraceID
	MetadataKeySpanID    = metadatapkg.KeySpanID
)

// Subscribe registers a typed function for kind. The event parameter type
// is checked against the dispatcher's catalog.
func Subscribe[E Event](d *Dispatcher, kind Kind, fn func(context.Context, E) error, opts HandlerOptions) (*HandlerDescriptor, error) {
	return runtimepkg.Subscribe(d, kind, fn, opts)
}

func NewEntryServiceLogger[T EntryLoggerAdapter[T]](entry T) ServiceLogger {
	return loggingpkg.NewEntryServiceLogger(entry)
}
