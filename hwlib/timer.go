// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwlib

import "github.com/db47h/cosim/evsim"

// Timer mounts a one-shot timer. When idle and start is high on a clock edge,
// it loads duration and counts down one unit per clock cycle. When the count
// reaches zero, done is toggled and the timer goes back to idle.
//
//	Inputs: clk, start, duration
//	Outputs: done
//
func Timer(a *evsim.Arch, clk, start, duration, done *evsim.Signal) {
	var (
		busy bool
		left uint64
	)
	a.Seq(clk, func(k *evsim.Kernel) {
		if !busy {
			if !k.Get(start).Bool() {
				return
			}
			d, err := k.Get(duration).Uint64()
			if err != nil {
				return
			}
			busy, left = true, d
		}
		if left > 0 {
			left--
			return
		}
		busy = false
		k.Set(done, k.Get(done).Not())
	})
}
