package ipc

import (
	"fmt"
	"time"
)

// RequestKind selects what a request asks the daemon to do.
type RequestKind int

const (
	KindUnknown RequestKind = iota
	KindReload
	KindInspector
	KindKill
	KindHealthCheck
	KindActivityNotification
	KindListActivities
	KindCycleFocus
)

// String returns the request kind name.
func (k RequestKind) String() string {
	switch k {
	case KindReload:
		return "reload"
	case KindInspector:
		return "inspector"
	case KindKill:
		return "kill"
	case KindHealthCheck:
		return "health"
	case KindActivityNotification:
		return "activity-notification"
	case KindListActivities:
		return "list-activities"
	case KindCycleFocus:
		return "cycle-focus"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Request is a client command.
type Request struct {
	Kind RequestKind
	// Activity is an "activity@module" identifier (ActivityNotification).
	Activity string
	// Mode is the requested display mode, 0..3 (ActivityNotification).
	Mode int
	// Duration is how long the mode is held before falling back (optional).
	Duration time.Duration
	// Direction is +1/-1 (CycleFocus).
	Direction int
}

// Response is the daemon's reply to a request.
type Response struct {
	OK         bool
	Message    string
	Uptime     time.Duration
	Activities []ActivityInfo
	Modules    []ModuleInfo
}

// ActivityInfo describes one live activity.
type ActivityInfo struct {
	ID         string         `json:"id" yaml:"id"`
	Mode       int            `json:"mode" yaml:"mode"`
	Focused    bool           `json:"focused" yaml:"focused"`
	Properties []PropertyInfo `json:"properties" yaml:"properties"`
}

// PropertyInfo is a rendered property value.
type PropertyInfo struct {
	Name  string `json:"name" yaml:"name"`
	Type  string `json:"type" yaml:"type"`
	Value string `json:"value" yaml:"value"`
}

// ModuleInfo is the lifecycle status of one module.
type ModuleInfo struct {
	Name       string `json:"name" yaml:"name"`
	Status     string `json:"status" yaml:"status"`
	Activities int    `json:"activities" yaml:"activities"`
	Error      string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Errorf builds a failed response.
func Errorf(format string, args ...any) Response {
	return Response{OK: false, Message: fmt.Sprintf(format, args...)}
}
