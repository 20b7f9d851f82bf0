// Package canbus drives thruster controllers and reads the navigation IMU over
// SocketCAN.
package canbus

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"net"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/edaniels/golog"
	"go.einride.tech/can"
	"go.einride.tech/can/pkg/socketcan"
	"go.uber.org/multierr"

	"github.com/san-kum/auvctl/internal/hardware"
)

type Config struct {
	Interface    string  `yaml:"interface"`
	ThrustBaseID uint32  `yaml:"thrust_base_id"`
	AttitudeID   uint32  `yaml:"attitude_id"`
	DepthID      uint32  `yaml:"depth_id"`
	LightID      uint32  `yaml:"light_id"`
	Channels     int     `yaml:"channels"`
	StaleAfter   float64 `yaml:"stale_after"`
}

func DefaultConfig() Config {
	return Config{
		Interface:    "can0",
		ThrustBaseID: 0x200,
		AttitudeID:   0x100,
		DepthID:      0x101,
		LightID:      0x300,
		Channels:     4,
		StaleAfter:   0.5,
	}
}

// FrameWriter sends one frame.
type FrameWriter interface {
	TransmitFrame(ctx context.Context, f can.Frame) error
}

type Vehicle struct {
	cfg    Config
	tx     FrameWriter
	conn   net.Conn
	clock  clock.Clock
	logger golog.Logger

	mu       sync.Mutex
	latest   hardware.Orientation
	attitude time.Time
	depth    time.Time
	rxErr    error

	done chan struct{}
}

var (
	_ hardware.Vehicle   = (*Vehicle)(nil)
	_ hardware.Indicator = (*Vehicle)(nil)
)

// Dial opens the interface twice, once for transmitting commands and once for
// the receive loop that tracks the latest sensor frames.
func Dial(ctx context.Context, cfg Config, clk clock.Clock, logger golog.Logger) (*Vehicle, error) {
	txConn, err := socketcan.DialContext(ctx, "can", cfg.Interface)
	if err != nil {
		return nil, fmt.Errorf("socketcan dial: %w", err)
	}
	rxConn, err := socketcan.DialContext(ctx, "can", cfg.Interface)
	if err != nil {
		return nil, multierr.Combine(fmt.Errorf("socketcan dial: %w", err), txConn.Close())
	}

	v := newVehicle(cfg, socketcan.NewTransmitter(txConn), clk, logger)
	v.conn = txConn
	go v.receive(rxConn)
	return v, nil
}

func newVehicle(cfg Config, tx FrameWriter, clk clock.Clock, logger golog.Logger) *Vehicle {
	return &Vehicle{
		cfg:    cfg,
		tx:     tx,
		clock:  clk,
		logger: logger,
		done:   make(chan struct{}),
	}
}

func (v *Vehicle) receive(conn net.Conn) {
	recv := socketcan.NewReceiver(conn)
	go func() {
		<-v.done
		_ = conn.Close()
	}()

	for recv.Receive() {
		v.HandleFrame(recv.Frame())
	}

	select {
	case <-v.done:
	default:
		err := recv.Err()
		if err == nil {
			err = fmt.Errorf("receiver on %s closed", v.cfg.Interface)
		}
		v.logger.Errorw("can receive stopped", "interface", v.cfg.Interface, "error", err)
		v.mu.Lock()
		v.rxErr = err
		v.mu.Unlock()
	}
}

// HandleFrame folds a received frame into the latest orientation.
func (v *Vehicle) HandleFrame(f can.Frame) {
	if f.ID != v.cfg.AttitudeID && f.ID != v.cfg.DepthID {
		return
	}
	decode := DecodePair
	if f.ID == v.cfg.AttitudeID {
		decode = DecodeAttitude
	}
	a, b, err := decode(f)
	if err != nil {
		v.logger.Debugw("dropping frame", "error", err)
		return
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	now := v.clock.Now()
	if f.ID == v.cfg.AttitudeID {
		v.latest.Yaw, v.latest.Roll = a, b
		v.attitude = now
	} else {
		v.latest.Depth, v.latest.Speed = a, b
		v.depth = now
	}
}

func (v *Vehicle) ReadOrientation(ctx context.Context) (hardware.Orientation, error) {
	if err := ctx.Err(); err != nil {
		return hardware.Orientation{}, err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if v.rxErr != nil {
		return hardware.Orientation{}, v.rxErr
	}
	if v.attitude.IsZero() || v.depth.IsZero() {
		return hardware.Orientation{}, hardware.ErrNoOrientation
	}
	stale := time.Duration(v.cfg.StaleAfter * float64(time.Second))
	now := v.clock.Now()
	if stale > 0 && (now.Sub(v.attitude) > stale || now.Sub(v.depth) > stale) {
		return hardware.Orientation{}, hardware.ErrStaleOrientation
	}
	return v.latest, nil
}

// CaptureImage returns no frame: the CAN target has no camera.
func (v *Vehicle) CaptureImage(ctx context.Context) (image.Image, error) {
	return nil, ctx.Err()
}

func (v *Vehicle) SetMotorPower(ctx context.Context, channel int, power int) error {
	if channel < 0 || channel >= v.cfg.Channels {
		return fmt.Errorf("channel %d: %w", channel, hardware.ErrInvalidChannel)
	}
	return v.tx.TransmitFrame(ctx, EncodeThrust(v.cfg.ThrustBaseID, channel, hardware.ClampPower(power)))
}

func (v *Vehicle) SetColor(ctx context.Context, c color.RGBA) error {
	return v.tx.TransmitFrame(ctx, EncodeLight(v.cfg.LightID, c))
}

// Close stops the receive loop and closes both sockets.
func (v *Vehicle) Close() error {
	select {
	case <-v.done:
		return nil
	default:
		close(v.done)
	}
	if v.conn != nil {
		return v.conn.Close()
	}
	return nil
}
