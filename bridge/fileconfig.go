package bridge

import (
	"errors"
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
)

// DefaultBaudRate is the serial line rate of the reference device.
const DefaultBaudRate = 115200

// FileConfig is the on-disk bridge profile, decoded from a TOML file:
//
//	port = "/dev/ttyACM0"
//	baud = 115200
//	frame_timeout = "500ms"
//	liveness_timeout = "5s"
//	send_timeout = "3s"
//	sender_queue_size = 16
//
// Zero-valued fields fall back to the bridge defaults.
type FileConfig struct {
	Port            string   `toml:"port"`
	Baud            int      `toml:"baud"`
	FrameTimeout    Duration `toml:"frame_timeout"`
	LivenessTimeout Duration `toml:"liveness_timeout"`
	SendTimeout     Duration `toml:"send_timeout"`
	SenderQueueSize int      `toml:"sender_queue_size"`
}

// Duration wraps time.Duration so TOML values can be written as
// strings like "500ms".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))

	return err
}

// LoadFileConfig reads and validates a TOML bridge profile.
func LoadFileConfig(path string) (*FileConfig, error) {
	var fc FileConfig
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		return nil, fmt.Errorf("bridge: decode config file %q: %w", path, err)
	}

	if fc.Port == "" {
		return nil, errors.New("bridge: config file is missing the serial port path")
	}
	if fc.Baud == 0 {
		fc.Baud = DefaultBaudRate
	}
	if fc.Baud < 0 {
		return nil, fmt.Errorf("bridge: invalid baud rate %d", fc.Baud)
	}

	return &fc, nil
}

// Options converts the non-zero profile fields to bridge options.
func (fc *FileConfig) Options() []Option {
	var opts []Option

	if fc.FrameTimeout.Duration != 0 {
		opts = append(opts, WithFrameTimeout(fc.FrameTimeout.Duration))
	}
	if fc.LivenessTimeout.Duration != 0 {
		opts = append(opts, WithLivenessTimeout(fc.LivenessTimeout.Duration))
	}
	if fc.SendTimeout.Duration != 0 {
		opts = append(opts, WithSendTimeout(fc.SendTimeout.Duration))
	}
	if fc.SenderQueueSize != 0 {
		opts = append(opts, WithSenderQueueSize(fc.SenderQueueSize))
	}

	return opts
}
