package types

import (
	"fmt"
	"net/http"
)

// OutputFormat defines the CLI output format
type OutputFormat string

const (
	OutputFormatJSON  OutputFormat = "json"
	OutputFormatTable OutputFormat = "table"
	OutputFormatText  OutputFormat = "text"
)

// GlobalFlags holds flags shared by all commands
type GlobalFlags struct {
	Profile      string
	Registry     string
	OutputFormat OutputFormat
	Quiet        bool
	Verbose      bool
	Debug        bool
	Config       string
	LogFile      string
	JSON         bool
}

// RequestType identifies the kind of mirror service request
type RequestType string

const (
	RequestTypeSyncTrigger RequestType = "sync.trigger"
	RequestTypeSyncStatus  RequestType = "sync.status"
	RequestTypeLogFetch    RequestType = "log.fetch"
)

// RequestContext carries per-request metadata for logging and error reporting
type RequestContext struct {
	Profile     string
	Registry    string
	PackageName string
	RequestType RequestType
	TraceID     string
}

// CLIOutput is the JSON envelope written for structured command output
type CLIOutput struct {
	SchemaVersion string       `json:"schemaVersion"`
	TraceID       string       `json:"traceId"`
	Command       string       `json:"command"`
	Data          interface{}  `json:"data"`
	Warnings      []CLIWarning `json:"warnings"`
	Errors        []CLIError   `json:"errors"`
}

// CLIError is a stable, machine-readable error record
type CLIError struct {
	Code         string                 `json:"code"`
	Message      string                 `json:"message"`
	HTTPStatus   int                    `json:"httpStatus,omitempty"`
	MirrorReason string                 `json:"mirrorReason,omitempty"`
	Retryable    bool                   `json:"retryable"`
	Context      map[string]interface{} `json:"context,omitempty"`
}

// CLIWarning is a non-fatal diagnostic attached to command output
type CLIWarning struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
}

// StatusError is returned by the HTTP layer when the mirror service answers
// with a non-2xx status. It preserves enough of the response for
// classification into a CLIError.
type StatusError struct {
	StatusCode int
	Status     string
	URL        string
	Header     http.Header
	Body       []byte
}

func (e *StatusError) Error() string {
	if len(e.Body) > 0 {
		return fmt.Sprintf("%s returned %s: %s", e.URL, e.Status, truncateBody(e.Body))
	}
	return fmt.Sprintf("%s returned %s", e.URL, e.Status)
}

func truncateBody(body []byte) string {
	const max = 200
	if len(body) <= max {
		return string(body)
	}
	return string(body[:max]) + "..."
}

type TableRenderer interface {
	Headers() []string
	Rows() [][]string
	EmptyMessage() string
}

type TableRenderable interface {
	AsTableRenderer() TableRenderer
}
