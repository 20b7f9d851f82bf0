package tuning

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/edaniels/golog"

	"github.com/san-kum/auvctl/internal/actuation"
	"github.com/san-kum/auvctl/internal/behavior"
	"github.com/san-kum/auvctl/internal/control"
	"github.com/san-kum/auvctl/internal/pilot"
)

func TestParseParam(t *testing.T) {
	tests := []struct {
		in   string
		name string
		gain string
		want []float64
	}{
		{"yaw.kp=0.1,0.2,0.4", "yaw.kp", "Kp", []float64{0.1, 0.2, 0.4}},
		{"Roll.KD = 0:0.3:0.1", "roll.kd", "Kd", []float64{0, 0.1, 0.2, 0.3}},
		{"depth.windup=5", "depth.windup", "Windup", []float64{5}},
		{"hull.yaw_damping=1,2", "hull.yaw_damping", "yaw_damping", []float64{1, 2}},
	}
	for _, tt := range tests {
		p, err := ParseParam(tt.in)
		if err != nil {
			t.Fatalf("%q: %v", tt.in, err)
		}
		if p.Name() != tt.name || p.Gain != tt.gain {
			t.Errorf("%q: name=%s gain=%s", tt.in, p.Name(), p.Gain)
		}
		if len(p.Values) != len(tt.want) {
			t.Fatalf("%q: values = %v, want %v", tt.in, p.Values, tt.want)
		}
		for i := range tt.want {
			if math.Abs(p.Values[i]-tt.want[i]) > 1e-12 {
				t.Errorf("%q: values = %v, want %v", tt.in, p.Values, tt.want)
			}
		}
	}
}

func TestParseParamErrors(t *testing.T) {
	for _, in := range []string{"yaw.kp", "kp=1", "pitch.kp=1", "yaw.gain=1", "yaw.kp=a,b", "yaw.kp=1:0:0.1", "yaw.kp=", "hull.mass=1", "hull.kp=1"} {
		if _, err := ParseParam(in); !errors.Is(err, ErrBadParam) {
			t.Errorf("%q: err = %v, want ErrBadParam", in, err)
		}
	}
}

func TestGridPoints(t *testing.T) {
	g := NewGrid(
		Param{Axis: "yaw", Gain: "Kp", Values: []float64{1, 2}},
		Param{Axis: "yaw", Gain: "Kd", Values: []float64{0, 0.5, 1}},
	)
	if g.Size() != 6 {
		t.Fatalf("size = %d", g.Size())
	}
	pts := g.Points()
	if len(pts) != 6 {
		t.Fatalf("points = %d", len(pts))
	}
	if pts[0]["yaw.kp"] != 1 || pts[0]["yaw.kd"] != 0 {
		t.Errorf("first point = %v", pts[0])
	}
	if pts[1]["yaw.kp"] != 1 || pts[1]["yaw.kd"] != 0.5 {
		t.Errorf("last parameter should vary fastest: %v", pts[1])
	}
	if pts[5]["yaw.kp"] != 2 || pts[5]["yaw.kd"] != 1 {
		t.Errorf("last point = %v", pts[5])
	}

	if NewGrid().Points() != nil {
		t.Error("empty grid should have no points")
	}
}

func testConfig() Config {
	axis := func(kp float64) control.PIDConfig {
		return control.PIDConfig{Kp: kp, Saturation: 20}
	}
	cfg := DefaultConfig()
	cfg.Loop = pilot.Config{
		PID:      pilot.Gains{Yaw: axis(0.3), Roll: axis(0.3), Speed: axis(1), Depth: axis(1)},
		Channels: actuation.ChannelMap{YawLeft: 0, YawRight: 1, RollLeft: 2, RollRight: 3},
		Behavior: behavior.DefaultConfig(),
	}
	cfg.Ticks = 400
	cfg.Step = 20 * time.Millisecond
	cfg.Workers = 2
	return cfg
}

func TestSearchPrefersSteering(t *testing.T) {
	cfg := testConfig()
	grid := NewGrid(Param{Axis: "yaw", Gain: "Kp", Values: []float64{0, 0.3}})

	res, err := NewSearch(cfg, grid, golog.NewTestLogger(t)).Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Trials) != 2 {
		t.Fatalf("trials = %d", len(res.Trials))
	}
	for _, tr := range res.Trials {
		if tr.Err != nil {
			t.Fatalf("trial %v: %v", tr.Params, tr.Err)
		}
		if tr.Ticks != cfg.Ticks {
			t.Errorf("trial %v ran %d ticks", tr.Params, tr.Ticks)
		}
	}
	if res.Best.Params["yaw.kp"] != 0.3 {
		t.Errorf("best = %v", res.Best.Params)
	}

	idle := res.Trials[0]
	if math.Abs(idle.Score-30) > 1e-6 {
		t.Errorf("without steering heading_rms = %v, want 30", idle.Score)
	}
	if res.Best.Score >= idle.Score {
		t.Errorf("steering did not help: %v >= %v", res.Best.Score, idle.Score)
	}

	ranked := res.Ranked(false)
	if ranked[0].Params["yaw.kp"] != 0.3 {
		t.Errorf("ranked = %v", ranked)
	}
	if res.Ranked(true)[0].Params["yaw.kp"] != 0 {
		t.Error("maximize should reverse the order")
	}
}

func TestSearchSetsHullParams(t *testing.T) {
	grid := NewGrid(Param{Axis: HullAxis, Gain: "yaw_gain", Values: []float64{0, 0.5}})

	res, err := NewSearch(testConfig(), grid, golog.NewTestLogger(t)).Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	stuck := res.Trials[0]
	if stuck.Err != nil {
		t.Fatal(stuck.Err)
	}
	if math.Abs(stuck.Score-30) > 1e-6 {
		t.Errorf("hull without yaw authority: heading_rms = %v, want 30", stuck.Score)
	}
	if res.Best.Params["hull.yaw_gain"] != 0.5 {
		t.Errorf("best = %v", res.Best.Params)
	}
}

func TestSearchRejectsBadConfig(t *testing.T) {
	grid := NewGrid(Param{Axis: "yaw", Gain: "Kp", Values: []float64{1}})

	cfg := testConfig()
	cfg.Metric = "nope"
	if _, err := NewSearch(cfg, grid, golog.NewTestLogger(t)).Run(context.Background()); err == nil {
		t.Error("unknown metric accepted")
	}

	cfg = testConfig()
	if _, err := NewSearch(cfg, NewGrid(), golog.NewTestLogger(t)).Run(context.Background()); !errors.Is(err, ErrBadParam) {
		t.Errorf("empty grid: err = %v", err)
	}
}

func TestSearchCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	grid := NewGrid(Param{Axis: "yaw", Gain: "Kp", Values: []float64{0.1, 0.2}})
	res, err := NewSearch(testConfig(), grid, golog.NewTestLogger(t)).Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
	for _, tr := range res.Trials {
		if tr.Err == nil {
			t.Errorf("trial %v should carry an error", tr.Params)
		}
	}
}
