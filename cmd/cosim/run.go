package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/db47h/cosim"
	"github.com/db47h/cosim/examples"
	"github.com/db47h/cosim/internal/config"
	"github.com/db47h/cosim/telemetry"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newRunCommand(g *globalFlags) *cobra.Command {
	var (
		timeout time.Duration
		metrics bool
	)
	cmd := &cobra.Command{
		Use:   "run [example...]",
		Short: "Run the tests of the given examples, or all of them",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(g.config)
			if err != nil {
				return err
			}
			if g.logLevel != "" {
				cfg.Logging.Level = g.logLevel
			}
			if g.logFormat != "" {
				cfg.Logging.Format = g.logFormat
			}
			if cmd.Flags().Changed("metrics") {
				cfg.Metrics.Enabled = metrics
			}
			if err = cfg.Validate(); err != nil {
				return err
			}

			es, err := selectExamples(args)
			if err != nil {
				return err
			}

			log, closer, err := telemetry.NewLogger(cfg.Logging)
			if err != nil {
				return err
			}
			defer closer.Close()

			ctx := cmd.Context()
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			m := telemetry.NewMetrics(cfg.Metrics.Namespace)
			out := cmd.OutOrStdout()
			failed := 0
			for _, e := range es {
				rs, err := e.Run(ctx, cfg.Simulator, log, cosim.WithMetrics(m))
				if err != nil {
					return err
				}
				for _, r := range rs {
					status := "ok"
					if r.Err != nil {
						status = "FAIL"
						failed++
					}
					fmt.Fprintf(out, "%-4s %s/%s\n", status, r.Example, r.Test)
					if r.Err != nil {
						fmt.Fprintf(out, "     %v\n", r.Err)
					}
				}
			}
			if cfg.Metrics.Enabled {
				if err = printMetrics(out, m); err != nil {
					return err
				}
			}
			if failed > 0 {
				return errors.Errorf("%d test(s) failed", failed)
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "abort the run after the given wall clock duration")
	cmd.Flags().BoolVar(&metrics, "metrics", false, "print scheduler metrics after the run")
	return cmd
}

func selectExamples(names []string) ([]*examples.Example, error) {
	if len(names) == 0 {
		return examples.All(), nil
	}
	es := make([]*examples.Example, 0, len(names))
	for _, n := range names {
		e, ok := examples.Lookup(n)
		if !ok {
			return nil, errors.Errorf("unknown example %q", n)
		}
		es = append(es, e)
	}
	return es, nil
}

func printMetrics(w io.Writer, m *telemetry.Metrics) error {
	mfs, err := m.Registry().Gather()
	if err != nil {
		return errors.Wrap(err, "failed to gather metrics")
	}
	var lines []string
	for _, mf := range mfs {
		for _, mt := range mf.GetMetric() {
			var labels []string
			for _, l := range mt.GetLabel() {
				labels = append(labels, l.GetName()+"="+l.GetValue())
			}
			name := mf.GetName()
			if len(labels) > 0 {
				name += "{" + strings.Join(labels, ",") + "}"
			}
			lines = append(lines, fmt.Sprintf("%s %v", name, mt.GetCounter().GetValue()))
		}
	}
	sort.Strings(lines)
	for _, l := range lines {
		fmt.Fprintln(w, l)
	}
	return nil
}
