package commands

import "strings"

// Result classifies the outcome of a command.
type Result int

const (
	ResultNone Result = iota
	ResultSuccess
	ResultFailure
	ResultDenied
)

func (r Result) String() string {
	switch r {
	case ResultSuccess:
		return "success"
	case ResultFailure:
		return "failure"
	case ResultDenied:
		return "denied"
	default:
		return "none"
	}
}

// LogType tags the log line a command produces.
type LogType int

const (
	LogInfo LogType = iota
	LogWarn
	LogError
	LogCheat
	LogStaff
)

func (t LogType) String() string {
	switch t {
	case LogWarn:
		return "WARN"
	case LogError:
		return "ERROR"
	case LogCheat:
		return "CHEAT"
	case LogStaff:
		return "STAFF"
	default:
		return "INFO"
	}
}

// Response is composed by command listeners. It is not safe for concurrent
// use; the dispatcher serialises command handling.
type Response struct {
	result     Result
	message    string
	logMessage string
	logType    LogType
	important  bool
	handled    bool
}

// NewResponse returns an empty, unhandled response.
func NewResponse() *Response {
	return &Response{}
}

// Set records the outcome and marks the response handled.
func (r *Response) Set(result Result, message string) {
	r.result = result
	r.message = message
	r.handled = true
}

// Deny marks the response handled with a denied result and message.
func (r *Response) Deny(message string) {
	r.Set(ResultDenied, message)
}

// SetMessage replaces the message without touching result or handled.
func (r *Response) SetMessage(message string) {
	r.message = message
}

// AppendLine adds text followed by a line marker.
func (r *Response) AppendLine(line string, newLine string) {
	var b strings.Builder
	b.WriteString(r.message)
	b.WriteString(line)
	b.WriteString(newLine)
	r.message = b.String()
}

// Log attaches a log line to the response.
func (r *Response) Log(logType LogType, message string) {
	r.logType = logType
	r.logMessage = message
}

func (r *Response) SetImportant(important bool) { r.important = important }
func (r *Response) SetHandled(handled bool)     { r.handled = handled }

func (r *Response) Result() Result     { return r.result }
func (r *Response) Message() string    { return r.message }
func (r *Response) LogMessage() string { return r.logMessage }
func (r *Response) LogType() LogType   { return r.logType }
func (r *Response) Important() bool    { return r.important }
func (r *Response) Handled() bool      { return r.handled }

// CopyFrom overwrites r with the state of other.
func (r *Response) CopyFrom(other *Response) {
	if other == nil {
		return
	}
	*r = *other
}
