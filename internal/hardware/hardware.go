// Package hardware defines the narrow contract between the control software
// and a vehicle backend: read orientation, capture an image, set motor power.
//
// Two backends implement it: [simulator.Vehicle] integrates a hull model in
// process and [canbus.Vehicle] talks to thruster controllers and the IMU over
// SocketCAN.
package hardware

import (
	"context"
	"errors"
	"image"
	"image/color"
)

// MaxPower is the magnitude limit of a motor power command.
const MaxPower = 100

var (
	ErrNoOrientation    = errors.New("hardware: no orientation reading received")
	ErrStaleOrientation = errors.New("hardware: orientation reading is stale")
	ErrInvalidChannel   = errors.New("hardware: invalid motor channel")
)

// Orientation is one snapshot of the navigation sensors. Angles are in
// degrees, depth in meters and speed in meters per second.
type Orientation struct {
	Yaw   float64
	Roll  float64
	Depth float64
	Speed float64
}

type Sensors interface {
	ReadOrientation(ctx context.Context) (Orientation, error)
}

// Camera returns the current front camera frame. A nil image with a nil
// error means the backend has no camera.
type Camera interface {
	CaptureImage(ctx context.Context) (image.Image, error)
}

type Thrusters interface {
	SetMotorPower(ctx context.Context, channel int, power int) error
}

// Indicator is implemented by backends with a status light.
type Indicator interface {
	SetColor(ctx context.Context, c color.RGBA) error
}

// Vehicle is the full capability set a control loop needs.
type Vehicle interface {
	Sensors
	Camera
	Thrusters
	Close() error
}

// ClampPower limits p to [-MaxPower, MaxPower].
func ClampPower(p int) int {
	if p > MaxPower {
		return MaxPower
	}
	if p < -MaxPower {
		return -MaxPower
	}
	return p
}
