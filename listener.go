package msc

import (
	"log/slog"
)

// ServiceListener receives lifecycle notifications for a service. Listeners
// attached through a builder fire for that service only; listeners attached
// to a container fire for every service it manages.
//
// Callbacks run synchronously on the goroutine driving the transition and
// should return quickly.
type ServiceListener interface {
	// ServiceStarting fires after all injections succeeded, immediately
	// before the service's Start is called.
	ServiceStarting(name ServiceName)

	// ServiceStarted fires once the service is up.
	ServiceStarted(name ServiceName)

	// ServiceFailed fires when the service could not be started.
	ServiceFailed(name ServiceName, err error)

	// ServiceStopping fires immediately before the service's Stop is called.
	ServiceStopping(name ServiceName)

	// ServiceStopped fires once the service is down and uninjected.
	ServiceStopped(name ServiceName)

	// ServiceRemoved fires when the service is removed from the container.
	ServiceRemoved(name ServiceName)
}

// ListenerFuncs adapts individual callbacks to the ServiceListener
// interface. Nil fields are skipped, so a listener interested in a single
// event sets only that field.
type ListenerFuncs struct {
	OnStarting func(name ServiceName)
	OnStarted  func(name ServiceName)
	OnFailed   func(name ServiceName, err error)
	OnStopping func(name ServiceName)
	OnStopped  func(name ServiceName)
	OnRemoved  func(name ServiceName)
}

var _ ServiceListener = ListenerFuncs{}

func (l ListenerFuncs) ServiceStarting(name ServiceName) {
	if l.OnStarting != nil {
		l.OnStarting(name)
	}
}

func (l ListenerFuncs) ServiceStarted(name ServiceName) {
	if l.OnStarted != nil {
		l.OnStarted(name)
	}
}

func (l ListenerFuncs) ServiceFailed(name ServiceName, err error) {
	if l.OnFailed != nil {
		l.OnFailed(name, err)
	}
}

func (l ListenerFuncs) ServiceStopping(name ServiceName) {
	if l.OnStopping != nil {
		l.OnStopping(name)
	}
}

func (l ListenerFuncs) ServiceStopped(name ServiceName) {
	if l.OnStopped != nil {
		l.OnStopped(name)
	}
}

func (l ListenerFuncs) ServiceRemoved(name ServiceName) {
	if l.OnRemoved != nil {
		l.OnRemoved(name)
	}
}

// loggingListener records lifecycle transitions through slog.
type loggingListener struct {
	logger *slog.Logger
}

// NewLoggingListener creates a listener that logs every lifecycle
// transition. A nil logger uses slog.Default.
func NewLoggingListener(logger *slog.Logger) ServiceListener {
	if logger == nil {
		logger = slog.Default()
	}
	return loggingListener{logger: logger}
}

func (l loggingListener) ServiceStarting(name ServiceName) {
	l.logger.Debug("service starting", "service", name.String())
}

func (l loggingListener) ServiceStarted(name ServiceName) {
	l.logger.Info("service started", "service", name.String())
}

func (l loggingListener) ServiceFailed(name ServiceName, err error) {
	l.logger.Error("service failed", "service", name.String(), "error", err)
}

func (l loggingListener) ServiceStopping(name ServiceName) {
	l.logger.Debug("service stopping", "service", name.String())
}

func (l loggingListener) ServiceStopped(name ServiceName) {
	l.logger.Info("service stopped", "service", name.String())
}

func (l loggingListener) ServiceRemoved(name ServiceName) {
	l.logger.Info("service removed", "service", name.String())
}
