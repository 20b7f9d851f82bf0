package integrators

import "github.com/san-kum/auvctl/internal/dynamo"

var (
	rk4Nodes   = [4]float64{0, 0.5, 0.5, 1}
	rk4Weights = [4]float64{1, 2, 2, 1}
)

// RK4 is the classic fourth-order Runge-Kutta stepper. Stage buffers are
// reused between calls, so an RK4 must not be shared across goroutines.
type RK4 struct {
	k     [4]dynamo.State
	stage dynamo.State
}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) grow(n int) {
	if len(r.stage) == n {
		return
	}
	for s := range r.k {
		r.k[s] = make(dynamo.State, n)
	}
	r.stage = make(dynamo.State, n)
}

func (r *RK4) Step(dyn dynamo.System, x dynamo.State, u dynamo.Control, t, dt float64) dynamo.State {
	r.grow(len(x))

	for s := range r.k {
		at := x
		if s > 0 {
			h := rk4Nodes[s] * dt
			for i := range r.stage {
				r.stage[i] = x[i] + h*r.k[s-1][i]
			}
			at = r.stage
		}
		copy(r.k[s], dyn.Derive(at, u, t+rk4Nodes[s]*dt))
	}

	next := make(dynamo.State, len(x))
	for i := range next {
		var sum float64
		for s, w := range rk4Weights {
			sum += w * r.k[s][i]
		}
		next[i] = x[i] + dt/6*sum
	}
	return next
}
