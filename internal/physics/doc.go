// Package physics provides the vehicle dynamics model used by the simulator
// backend.
//
// [Hull] implements [dynamo.System] for a vehicle with two opposed thruster
// pairs: the horizontal pair drives surge and yaw, the vertical pair drives
// heave and roll. It also implements [dynamo.Configurable] so gain
// searches can vary the hull as well as the controllers.
package physics
