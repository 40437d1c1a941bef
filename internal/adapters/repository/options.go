package repository

type badgerConfig struct {
	syncWrites bool
}

// BadgerOption configures OpenBadgerStore.
type BadgerOption func(*badgerConfig)

// WithSyncWrites makes every write fsync before returning.
func WithSyncWrites(sync bool) BadgerOption {
	return func(c *badgerConfig) { c.syncWrites = sync }
}
