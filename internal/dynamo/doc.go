// Package dynamo provides the primitives used to integrate vehicle dynamics.
//
//   - [State]: vector representing system state
//   - [System]: interface for ODE systems (dX/dt = f(X, u, t))
//   - [Integrator]: numerical stepper
//   - [Configurable]: runtime parameter access
//
// # Example
//
//	hull := physics.NewHull()
//	rk4 := integrators.NewRK4()
//	x = rk4.Step(hull, x, u, t, dt)
package dynamo
