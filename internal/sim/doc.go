// Package sim provides a bounded random-walk signal simulator.
//
// A [Simulator] owns a single numeric value. While running, a background
// goroutine ticks on a fixed interval: it draws a perturbation from the
// variant's [Perturbation], scales it by the step size, adds it to the value,
// clamps the result to [min, max] and hands it to the registered [Observer].
//
// Two variants ship ready to use:
//
//   - [Voltage]: steps of -1, 0 or +1 times the step size, bounds [0, 10]
//   - [Temperature]: uniform steps in [-1, 1] times the step size, bounds [20, 100]
//
// # Example
//
//	s := sim.NewVoltage(sim.WithSeed(42))
//	s.RegisterCallback(func(v float64) { fmt.Println(v) })
//	s.SetInterval(250 * time.Millisecond)
//	s.Start()
//	defer s.Close()
//
// # Thread Safety
//
// All methods are safe for concurrent use. Parameter changes apply from the
// next tick. The observer is called with the state mutex held; it must not
// call back into the simulator.
package sim
