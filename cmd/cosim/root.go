package main

import (
	"fmt"
	"strings"

	"github.com/db47h/cosim/examples"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

type globalFlags struct {
	config    string
	logLevel  string
	logFormat string
}

func newRootCommand() *cobra.Command {
	var g globalFlags
	root := &cobra.Command{
		Use:   "cosim",
		Short: "Run HDL testbenches against the in-process simulation kernel",
		Long: `cosim runs the example designs and testbenches of the cosim module.

Testbenches are Go functions running as coroutines on top of the kernel's
timed and value change callbacks.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&g.config, "config", "c", "", "configuration file path")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "log level (trace, debug, info, warn, error, disabled)")
	root.PersistentFlags().StringVar(&g.logFormat, "log-format", "", "log format (console, json)")

	root.AddCommand(newListCommand())
	root.AddCommand(newPortsCommand())
	root.AddCommand(newRunCommand(&g))
	return root
}

func newListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the available examples",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			for _, e := range examples.All() {
				names := make([]string, len(e.Tests))
				for i, t := range e.Tests {
					names[i] = t.Name
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-16s %s [%s]\n", e.Name, e.Doc, strings.Join(names, ", "))
			}
		},
	}
}

func newPortsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ports <example>",
		Short: "Show the ports of an example design",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, ok := examples.Lookup(args[0])
			if !ok {
				return errors.Errorf("unknown example %q", args[0])
			}
			d, err := e.Design()
			if err != nil {
				return err
			}
			ent := d.Entity()
			fmt.Fprintf(cmd.OutOrStdout(), "entity %s\n", ent.Name())
			for _, p := range ent.Ports() {
				fmt.Fprintf(cmd.OutOrStdout(), "  %-14s %-5s %s\n", p.Name, p.Dir, p.Type)
			}
			return nil
		},
	}
}
