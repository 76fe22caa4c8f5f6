// Package errors implements the three-class error classification used across
// fbpcore: Transient (retryable), Invalid (build-time/malformed graph, do not
// retry) and Fatal (unrecoverable, stop processing). It also carries the
// sentinel error values, so callers can use errors.Is against a stable
// vocabulary regardless of which package raised the error.
package errors
