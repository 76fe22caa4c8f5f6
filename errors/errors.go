// Package errors provides standardized error classification and wrapping for
// the fbpcore runtime, shared by every package in this module.
package errors

import (
	"errors"
	"fmt"
)

// Class represents the classification of an error for handling purposes.
type Class int

const (
	// ClassTransient represents temporary errors that may be retried.
	ClassTransient Class = iota
	// ClassInvalid represents errors due to invalid input or a malformed graph.
	ClassInvalid
	// ClassFatal represents unrecoverable errors that should stop processing.
	ClassFatal
)

func (c Class) String() string {
	switch c {
	case ClassTransient:
		return "transient"
	case ClassInvalid:
		return "invalid"
	case ClassFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Build-time errors: raised synchronously from Network build operations.
// They never touch the run state of a Network.
var (
	ErrUnknownComponent        = errors.New("unknown component")
	ErrUnknownPort             = errors.New("unknown port")
	ErrTypeMismatch            = errors.New("type mismatch")
	ErrDuplicateConnection     = errors.New("duplicate connection")
	ErrPortAlreadyInitialized  = errors.New("port already initialized")
	ErrArityExceeded           = errors.New("array port arity exceeded")
	ErrRequiredPortUnconnected = errors.New("required port has no connection or IIP")
	ErrNotCloneable            = errors.New("payload type is not cloneable, cannot fan out")
	ErrNotIdle                 = errors.New("network is not idle")
)

// Runtime errors. UpstreamClosed is deliberately absent: it is an end-of-
// stream sentinel, not an error, and is modeled as a (nil, nil) return from
// Receive (no packet, no error) rather than an error value.
var (
	ErrDownstreamClosed  = errors.New("downstream port closed")
	ErrCancelled         = errors.New("operation cancelled")
	ErrTimeout           = errors.New("operation timed out")
	ErrPacketLeak        = errors.New("component terminated while still owning packets")
	ErrDeadlock          = errors.New("network deadlocked")
	ErrUnbalancedBracket = errors.New("unbalanced open/close bracket sequence")
	ErrTypeError         = errors.New("payload rejected by port type validation")
)

// Classified wraps an error with component/operation context and a
// classification used by the network's error aggregator.
type Classified struct {
	Class     Class
	Err       error
	Component string
	Operation string
	Message   string
}

func (c *Classified) Error() string {
	if c.Message != "" {
		return c.Message
	}
	return c.Err.Error()
}

func (c *Classified) Unwrap() error { return c.Err }

func newClassified(class Class, err error, component, operation string) *Classified {
	msg := fmt.Sprintf("%s.%s: %v", component, operation, err)
	return &Classified{Class: class, Err: err, Component: component, Operation: operation, Message: msg}
}

// Wrap annotates err with "component.operation: context failed: err", the
// same convention used throughout this module.
func Wrap(err error, component, operation, context string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s.%s: %s failed: %w", component, operation, context, err)
}

// WrapInvalid classifies err as ClassInvalid (build-time / malformed graph).
func WrapInvalid(err error, component, operation string) error {
	if err == nil {
		return nil
	}
	return newClassified(ClassInvalid, err, component, operation)
}

// WrapTransient classifies err as ClassTransient (may be retried by a caller).
func WrapTransient(err error, component, operation string) error {
	if err == nil {
		return nil
	}
	return newClassified(ClassTransient, err, component, operation)
}

// WrapFatal classifies err as ClassFatal (component must not continue).
func WrapFatal(err error, component, operation string) error {
	if err == nil {
		return nil
	}
	return newClassified(ClassFatal, err, component, operation)
}

// Classify returns the classification carried by err, defaulting to
// ClassFatal for unclassified errors reaching the network's error list.
func Classify(err error) Class {
	var c *Classified
	if errors.As(err, &c) {
		return c.Class
	}
	return ClassFatal
}

// IsInvalid reports whether err was raised as a build-time/malformed-graph
// error, used by the control surface to map Network build-operation
// failures onto 4xx responses.
func IsInvalid(err error) bool { return Classify(err) == ClassInvalid && classified(err) }

// IsTransient reports whether err is retryable.
func IsTransient(err error) bool { return Classify(err) == ClassTransient && classified(err) }

// IsFatal reports whether err is an unrecoverable runtime failure.
func IsFatal(err error) bool { return classified(err) && Classify(err) == ClassFatal }

func classified(err error) bool {
	var c *Classified
	return errors.As(err, &c)
}
