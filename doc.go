/*
Package cosim provides a cooperative scheduler to drive testbenches against an
event-driven HDL simulation kernel.

Testbenches are plain Go functions. They run as coroutines on top of two
kernel primitives: "call me back after some time" and "call me back when this
signal changes". Every wait function of the Simulator registers such a
callback, then suspends the calling coroutine until the kernel fires it:

	sim, err := cosim.New(design, cosim.Config{})
	if err != nil {
		// handle error
	}
	err = sim.Test(ctx, "or gate", func(s *cosim.Simulator, dut *cosim.DUT) error {
		a, b, y := dut.Port("inp_a"), dut.Port("inp_b"), dut.Port("result")
		a.SetBool(true)
		b.SetBool(false)
		s.DeltaStep()
		cosim.Assert(y.Bool(), "expected result to be set")
		return nil
	})

Only one coroutine runs at any time: the test itself, a task spawned with
Start or StartSoon, or a clock generator. Coroutines are backed by goroutines
that hand over control to each other, so no locking is required in testbench
code.

Design implementations are provided by the kernel package contract. Package
evsim provides an in-process kernel.
*/
package cosim
