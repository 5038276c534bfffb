package bridge

import (
	"errors"
	"fmt"
	"time"

	"github.com/pleimann/padlink/link"
	"github.com/pleimann/padlink/logger"
)

// Default configuration values.
const (
	DefaultFrameTimeout    = link.DefaultFrameTimeout
	DefaultLivenessTimeout = link.DefaultLivenessTimeout

	// DefaultLivenessCheckInterval is how often the bridge checks for
	// heartbeat/liveness expiry.
	DefaultLivenessCheckInterval = 500 * time.Millisecond

	// DefaultSendTimeout bounds how long a Send call waits for queue space.
	DefaultSendTimeout = 3 * time.Second

	// DefaultSenderQueueSize is the capacity of the outbound frame queue.
	DefaultSenderQueueSize = 16
)

// Configuration range limits.
const (
	MinLivenessCheckInterval = 10 * time.Millisecond
	MaxLivenessCheckInterval = 30 * time.Second

	MaxSenderQueueSize = 1024
)

// Config holds all configuration for a Bridge.
type Config struct {
	frameTimeout          time.Duration
	livenessTimeout       time.Duration
	livenessCheckInterval time.Duration
	sendTimeout           time.Duration
	senderQueueSize       int

	logger logger.Logger
}

// NewConfig creates a bridge configuration with defaults, applying the
// given options in order.
func NewConfig(opts ...Option) (*Config, error) {
	cfg := &Config{
		frameTimeout:          DefaultFrameTimeout,
		livenessTimeout:       DefaultLivenessTimeout,
		livenessCheckInterval: DefaultLivenessCheckInterval,
		sendTimeout:           DefaultSendTimeout,
		senderQueueSize:       DefaultSenderQueueSize,
		logger:                logger.GetLogger(),
	}

	for _, opt := range opts {
		if err := opt.apply(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// --- Getters ---

// FrameTimeout returns the inter-byte timeout for partial frames.
func (cfg *Config) FrameTimeout() time.Duration { return cfg.frameTimeout }

// LivenessTimeout returns the gap between verified frames after which
// the device is considered disconnected.
func (cfg *Config) LivenessTimeout() time.Duration { return cfg.livenessTimeout }

// LivenessCheckInterval returns the liveness expiry polling interval.
func (cfg *Config) LivenessCheckInterval() time.Duration { return cfg.livenessCheckInterval }

// SendTimeout returns the maximum wait for outbound queue space.
func (cfg *Config) SendTimeout() time.Duration { return cfg.sendTimeout }

// SenderQueueSize returns the outbound frame queue capacity.
func (cfg *Config) SenderQueueSize() int { return cfg.senderQueueSize }

// GetLogger returns the configured logger.
func (cfg *Config) GetLogger() logger.Logger { return cfg.logger }

// --- Option ---

// Option is a functional option for configuring a Config.
type Option interface {
	apply(*Config) error
}

type optFunc func(*Config) error

func (f optFunc) apply(cfg *Config) error { return f(cfg) }

// WithFrameTimeout sets the inter-byte timeout for partial frames.
// Must be in [link.MinFrameTimeout, link.MaxFrameTimeout].
func WithFrameTimeout(d time.Duration) Option {
	return optFunc(func(cfg *Config) error {
		if d < link.MinFrameTimeout || d > link.MaxFrameTimeout {
			return fmt.Errorf("bridge: frame timeout %v out of range [%v, %v]", d, link.MinFrameTimeout, link.MaxFrameTimeout)
		}
		cfg.frameTimeout = d

		return nil
	})
}

// WithLivenessTimeout sets the gap between verified frames after which
// the device is considered disconnected. A value of 0 disables expiry;
// otherwise it must be in [link.MinLivenessTimeout, link.MaxLivenessTimeout].
func WithLivenessTimeout(d time.Duration) Option {
	return optFunc(func(cfg *Config) error {
		if d != 0 && (d < link.MinLivenessTimeout || d > link.MaxLivenessTimeout) {
			return fmt.Errorf("bridge: liveness timeout %v out of range [%v, %v]", d, link.MinLivenessTimeout, link.MaxLivenessTimeout)
		}
		cfg.livenessTimeout = d

		return nil
	})
}

// WithLivenessCheckInterval sets how often liveness expiry is checked.
func WithLivenessCheckInterval(d time.Duration) Option {
	return optFunc(func(cfg *Config) error {
		if d < MinLivenessCheckInterval || d > MaxLivenessCheckInterval {
			return fmt.Errorf("bridge: liveness check interval %v out of range [%v, %v]",
				d, MinLivenessCheckInterval, MaxLivenessCheckInterval)
		}
		cfg.livenessCheckInterval = d

		return nil
	})
}

// WithSendTimeout sets the maximum wait for outbound queue space.
func WithSendTimeout(d time.Duration) Option {
	return optFunc(func(cfg *Config) error {
		if d <= 0 {
			return errors.New("bridge: send timeout must be positive")
		}
		cfg.sendTimeout = d

		return nil
	})
}

// WithSenderQueueSize sets the outbound frame queue capacity.
func WithSenderQueueSize(n int) Option {
	return optFunc(func(cfg *Config) error {
		if n < 1 || n > MaxSenderQueueSize {
			return fmt.Errorf("bridge: sender queue size %d out of range [1, %d]", n, MaxSenderQueueSize)
		}
		cfg.senderQueueSize = n

		return nil
	})
}

// WithLogger sets the logger for the bridge.
func WithLogger(l logger.Logger) Option {
	return optFunc(func(cfg *Config) error {
		if l == nil {
			return errors.New("bridge: logger must not be nil")
		}
		cfg.logger = l

		return nil
	})
}
