// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package evsim

import (
	"strconv"
	"strings"

	"github.com/db47h/cosim/entity"
	"github.com/db47h/cosim/kernel"
	"github.com/db47h/cosim/simtime"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Design is an elaborated entity/architecture pair from which kernels are
// instantiated.
//
type Design struct {
	ent  *entity.Entity
	arch Architecture
	log  zerolog.Logger
}

// Option configures a Design.
//
type Option func(*Design)

// WithLogger sets the logger used by the design's kernels.
//
func WithLogger(l zerolog.Logger) Option {
	return func(d *Design) { d.log = l }
}

// Elaborate runs arch once against a probe kernel so that ports added with
// Arch.AddPort land in b, then freezes b into the design's entity.
//
func Elaborate(b *entity.Builder, arch Architecture, opts ...Option) (*Design, error) {
	if err := b.Err(); err != nil {
		return nil, err
	}
	d := &Design{arch: arch, log: zerolog.Nop()}
	for _, o := range opts {
		o(d)
	}
	probe := newKernel(b.Name(), d.log)
	a := newArch(probe, b.Name(), b)
	for _, p := range b.Ports() {
		s, err := probe.newSignal(a.prefix+p.Name, p.Type, p.Default)
		if err != nil {
			return nil, err
		}
		a.ports[p.Name] = s
	}
	if err := mount(a, arch); err != nil {
		return nil, errors.Wrapf(err, "failed to elaborate %s", b.Name())
	}
	e, err := b.Build()
	if err != nil {
		return nil, err
	}
	d.ent = e
	d.log.Debug().Str("entity", e.Name()).Int("ports", e.Len()).Int("signals", len(probe.order)).Msg("design elaborated")
	return d, nil
}

// MustElaborate is like Elaborate but panics on error.
//
func MustElaborate(b *entity.Builder, arch Architecture, opts ...Option) *Design {
	d, err := Elaborate(b, arch, opts...)
	if err != nil {
		panic(err)
	}
	return d
}

func mount(a *Arch, arch Architecture) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = e
			} else {
				err = errors.Errorf("%v", r)
			}
		}
	}()
	arch(a)
	return nil
}

// Entity returns the design's frozen entity.
//
func (d *Design) Entity() *entity.Entity { return d.ent }

// NewKernel returns a new kernel instance of the design. See Instantiate for
// the supported arguments.
//
func (d *Design) NewKernel(args []string) (kernel.Kernel, error) {
	return d.Instantiate(args...)
}

// Instantiate returns a new kernel running the design. All entity ports are
// created as signals named <entity>.<port>, then the architecture is mounted.
//
// Supported arguments:
//
//	--stop-time=<duration>  stop the simulation at the given time (e.g. 10us)
//	--max-deltas=<n>        maximum number of delta cycles per time step
//
func (d *Design) Instantiate(args ...string) (*Kernel, error) {
	name := d.ent.Name()
	k := newKernel(name, d.log)
	for _, arg := range args {
		kv := strings.SplitN(arg, "=", 2)
		if len(kv) != 2 {
			return nil, errors.Errorf("unknown simulation argument %q", arg)
		}
		switch kv[0] {
		case "--stop-time":
			t, err := simtime.ParseDuration(kv[1])
			if err != nil || t <= 0 {
				return nil, errors.Errorf("invalid stop time in %q", arg)
			}
			k.stopTime = t
		case "--max-deltas":
			n, err := strconv.Atoi(kv[1])
			if err != nil || n <= 0 {
				return nil, errors.Errorf("invalid delta cycle limit in %q", arg)
			}
			k.maxDeltas = n
		default:
			return nil, errors.Errorf("unknown simulation argument %q", arg)
		}
	}

	a := newArch(k, name, nil)
	for _, p := range d.ent.Ports() {
		s, err := k.newSignal(a.prefix+p.Name, p.Type, p.Default)
		if err != nil {
			return nil, err
		}
		a.ports[p.Name] = s
	}
	if err := mount(a, d.arch); err != nil {
		return nil, errors.Wrapf(err, "failed to instantiate %s", name)
	}
	for _, p := range k.procs {
		k.schedule(p)
	}
	return k, nil
}
