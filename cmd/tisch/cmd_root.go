package main

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/dgoffredo/tisch"
	"github.com/dgoffredo/tisch/engine"
	"github.com/dgoffredo/tisch/loader"
	"github.com/dgoffredo/tisch/pkg/logger"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	patterns string
	verbose  bool
	logLevel string
}

// newRootCmd builds the command tree. Output goes to stdout and stderr
// rather than the process streams so tests can capture it.
func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:   appName,
		Short: "Validate JSON and YAML documents against structural patterns",
		Long: appName + " checks documents against patterns written as YAML or JSON\n" +
			"pattern documents, one unit per file, in a patterns directory.",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.PersistentFlags().StringVarP(&g.patterns, "patterns", "p", ".",
		"directory holding the pattern documents (<id>.yaml, .yml or .json)")
	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false,
		"log unit compilation and batch progress (same as --log-level debug)")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "warn",
		"log level: debug, info, warn, error or off")

	root.AddCommand(
		newValidateCmd(g),
		newCheckCmd(g),
		newVersionCmd(),
	)
	return root
}

// logger returns the logger selected by the flags, writing to w.
func (g *globalFlags) logger(w io.Writer) (*logger.Logger, error) {
	if g.verbose {
		return logger.New(w, logger.LevelDebug), nil
	}
	level, err := logger.ParseLevel(g.logLevel)
	if err != nil {
		return nil, err
	}
	return logger.New(w, level), nil
}

// engine opens the patterns directory.
func (g *globalFlags) engine(cmd *cobra.Command, opts ...tisch.Option) (*engine.Engine, *loader.FSSource, error) {
	log, err := g.logger(cmd.ErrOrStderr())
	if err != nil {
		return nil, nil, &exitError{code: exitUsage, err: err}
	}

	src := loader.Dir(g.patterns)
	opts = append([]tisch.Option{tisch.WithLogger(log)}, opts...)
	e, err := engine.New(src, opts...)
	if err != nil {
		return nil, nil, &exitError{code: exitUsage, err: err}
	}
	return e, src, nil
}
