package kstate

import "io/fs"

// defaultCreateMode is deliberately tighter than the original library's
// world-rwx: states are data, not programs, and most deployments want the
// owner's umask to have the final say.
const defaultCreateMode fs.FileMode = 0666

// SubscribeOption configures how a State subscribes.
type SubscribeOption func(*subscribeConfig)

type subscribeConfig struct {
	createMode fs.FileMode
	retainName bool
}

// WithCreateMode sets the filesystem mode used when a writable subscribe
// creates the shared object. It has no effect when the object already
// exists or when subscribing read-only.
func WithCreateMode(mode fs.FileMode) SubscribeOption {
	return func(c *subscribeConfig) {
		c.createMode = mode
	}
}

// WithRetainOnUnsubscribe keeps the shared-object name linked when this
// handle unsubscribes, so other processes can still open the state later.
// The default matches the original library: unsubscribe unlinks the name
// eagerly, making it single-use unless a writer recreates it.
func WithRetainOnUnsubscribe() SubscribeOption {
	return func(c *subscribeConfig) {
		c.retainName = true
	}
}

func applyOptions(opts []SubscribeOption) subscribeConfig {
	cfg := subscribeConfig{createMode: defaultCreateMode}
	for _, o := range opts {
		o(&cfg)
	}
	return cfg
}
