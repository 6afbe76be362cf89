package pool

// Option configures a Pool.
type Option func(*config)

type config struct {
	capacity int
	observer Observer
}

// WithCapacity preallocates room for n slots.
func WithCapacity(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.capacity = n
		}
	}
}

// WithObserver attaches an observer notified after every slot transition.
func WithObserver(o Observer) Option {
	return func(c *config) {
		c.observer = o
	}
}
