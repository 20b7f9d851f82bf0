package integrators

import (
	"testing"

	"github.com/san-kum/auvctl/internal/dynamo"
	"github.com/san-kum/auvctl/internal/physics"
)

func BenchmarkHullStep(b *testing.B) {
	hull := physics.NewHull()
	u := dynamo.Control{30, 10, 5, -5}

	for _, name := range Names() {
		b.Run(name, func(b *testing.B) {
			integ, err := Get(name)
			if err != nil {
				b.Fatal(err)
			}
			x := make(dynamo.State, hull.StateDim())

			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				x = integ.Step(hull, x, u, float64(i)*0.01, 0.01)
				hull.Constrain(x)
			}
		})
	}
}
