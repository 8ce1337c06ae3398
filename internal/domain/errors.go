package domain

import "fmt"

// ConfigError reports a missing or malformed setting.
type ConfigError struct {
	Key    string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %s", e.Key, e.Reason)
}

// RemoteUnavailableError reports that the feed remote could not be reached,
// timed out, or returned data that could not be decoded.
type RemoteUnavailableError struct {
	Account Account
	Op      string // "resolve" or "list"
	Err     error
}

func (e *RemoteUnavailableError) Error() string {
	return fmt.Sprintf("remote unavailable (%s account %s): %v", e.Op, e.Account, e.Err)
}

func (e *RemoteUnavailableError) Unwrap() error { return e.Err }

// AccountResolutionError reports that an account has no post listing.
type AccountResolutionError struct {
	Account Account
	Reason  string
}

func (e *AccountResolutionError) Error() string {
	return fmt.Sprintf("resolve account %s: %s", e.Account, e.Reason)
}

// StorageWriteError reports that identifiers could not be durably recorded.
type StorageWriteError struct {
	Location string
	Err      error
}

func (e *StorageWriteError) Error() string {
	return fmt.Sprintf("write seen ids to %s: %v", e.Location, e.Err)
}

func (e *StorageWriteError) Unwrap() error { return e.Err }

// NotifierDeliveryError reports a failed notification delivery.
type NotifierDeliveryError struct {
	Notifier string
	Err      error
}

func (e *NotifierDeliveryError) Error() string {
	return fmt.Sprintf("deliver via %s: %v", e.Notifier, e.Err)
}

func (e *NotifierDeliveryError) Unwrap() error { return e.Err }

// RunError wraps a fatal error with the phase and account it occurred in.
type RunError struct {
	Phase   string
	Account Account
	Err     error
}

func (e *RunError) Error() string {
	if e.Account == "" {
		return fmt.Sprintf("%s: %v", e.Phase, e.Err)
	}
	return fmt.Sprintf("%s (account %s): %v", e.Phase, e.Account, e.Err)
}

func (e *RunError) Unwrap() error { return e.Err }
