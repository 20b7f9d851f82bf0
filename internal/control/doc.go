// Package control provides the feedback controller used on every axis of the
// vehicle.
//
// A [PID] computes its output from the instantaneous error between its
// setpoint and a measurement:
//
//   - the integral term is clamped to the windup guard before it is scaled by Ki
//   - the output is clamped to the configured saturation
//   - samples closer together than the sample time are ignored
//
// # Usage
//
//	pid := control.NewPID(control.PIDConfig{Kp: 0.3, Saturation: 40}, 0)
//	pid.SetSetPoint(90)
//	out := pid.Update(heading, now)
//
// PID supports live tuning through GetParams and SetParam.
package control
