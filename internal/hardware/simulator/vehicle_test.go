package simulator

import (
	"context"
	"errors"
	"image/color"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/edaniels/golog"

	"github.com/san-kum/auvctl/internal/actuation"
	"github.com/san-kum/auvctl/internal/hardware"
)

var testChannels = actuation.ChannelMap{YawLeft: 0, YawRight: 1, RollLeft: 2, RollRight: 3}

func newTestVehicle(t *testing.T) (*Vehicle, *clock.Mock) {
	t.Helper()
	clk := clock.NewMock()
	cfg := DefaultConfig()
	cfg.InitialHeading = 90
	v, err := New(cfg, testChannels, clk, golog.NewTestLogger(t))
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}
	return v, clk
}

func TestVehicleAtRest(t *testing.T) {
	v, clk := newTestVehicle(t)
	clk.Add(time.Second)

	o, err := v.ReadOrientation(context.Background())
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if o.Yaw != 90 || o.Roll != 0 || o.Speed != 0 || o.Depth != 0 {
		t.Errorf("expected vehicle at rest heading 90, got %+v", o)
	}
}

func TestVehicleTurnsWithDifferentialThrust(t *testing.T) {
	v, clk := newTestVehicle(t)
	ctx := context.Background()

	if err := v.SetMotorPower(ctx, 0, 30); err != nil {
		t.Fatal(err)
	}
	if err := v.SetMotorPower(ctx, 1, -30); err != nil {
		t.Fatal(err)
	}
	clk.Add(2 * time.Second)

	o, err := v.ReadOrientation(ctx)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if o.Yaw <= 90 {
		t.Errorf("expected heading to increase from 90, got %f", o.Yaw)
	}
	if o.Speed != 0 {
		t.Errorf("pure turn should not surge, speed %f", o.Speed)
	}
}

func TestVehicleOnlyAdvancesWithClock(t *testing.T) {
	v, _ := newTestVehicle(t)
	ctx := context.Background()
	_ = v.SetMotorPower(ctx, 0, 100)
	_ = v.SetMotorPower(ctx, 1, 100)

	o, _ := v.ReadOrientation(ctx)
	if o.Speed != 0 {
		t.Errorf("no time passed, expected zero speed, got %f", o.Speed)
	}
}

func TestVehicleInvalidChannel(t *testing.T) {
	v, _ := newTestVehicle(t)
	err := v.SetMotorPower(context.Background(), 4, 10)
	if !errors.Is(err, hardware.ErrInvalidChannel) {
		t.Errorf("expected invalid channel, got %v", err)
	}
}

func TestVehicleClampsPower(t *testing.T) {
	v, _ := newTestVehicle(t)
	_ = v.SetMotorPower(context.Background(), 2, -500)
	if v.MotorPower(2) != -100 {
		t.Errorf("expected -100, got %d", v.MotorPower(2))
	}
}

func TestNewRejectsMappingOutsideChannels(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Channels = 2
	_, err := New(cfg, testChannels, clock.NewMock(), nil)
	if !errors.Is(err, hardware.ErrInvalidChannel) {
		t.Errorf("expected invalid channel, got %v", err)
	}
}

func TestCaptureImage(t *testing.T) {
	v, _ := newTestVehicle(t)
	img, err := v.CaptureImage(context.Background())
	if err != nil {
		t.Fatalf("capture failed: %v", err)
	}
	if img.Bounds().Dx() != frameWidth || img.Bounds().Dy() != frameHeight {
		t.Errorf("unexpected frame size %v", img.Bounds())
	}
}

func TestReadOrientationCanceled(t *testing.T) {
	v, _ := newTestVehicle(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := v.ReadOrientation(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected canceled, got %v", err)
	}
}

func TestSetColor(t *testing.T) {
	v, _ := newTestVehicle(t)
	c := color.RGBA{R: 50, G: 50, A: 0xff}
	_ = v.SetColor(context.Background(), c)
	if v.Color() != c {
		t.Errorf("expected %v, got %v", c, v.Color())
	}
}
