package event

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// PanicHandler is called when a handler connected to a signal panics.
// sender is the signal owner and payload the value being emitted.
type PanicHandler func(sender any, payload any, err *PanicError)

// DefaultPanicHandler logs the recovered panic and its stack.
func DefaultPanicHandler(sender any, _ any, err *PanicError) {
	logrus.WithFields(logrus.Fields{
		"layer":      "event",
		"sender":     fmt.Sprintf("%T", sender),
		"connection": err.ConnectionID,
	}).Errorf("%v\n%s", err.Value, err.Stack)
}

// SignalOption configures a Signal.
type SignalOption func(*signalConfig)

type signalConfig struct {
	name         string
	panicHandler PanicHandler
}

func defaultSignalConfig() signalConfig {
	return signalConfig{
		panicHandler: DefaultPanicHandler,
	}
}

// WithName labels the signal; the name shows up in String and log output.
func WithName(name string) SignalOption {
	return func(c *signalConfig) {
		c.name = name
	}
}

// WithPanicHandler sets the panic handler for the signal.
func WithPanicHandler(h PanicHandler) SignalOption {
	return func(c *signalConfig) {
		if h != nil {
			c.panicHandler = h
		}
	}
}
