package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	vmodel "github.com/reoring/vmodel"
	"github.com/reoring/vmodel/internal/logging"
	"github.com/reoring/vmodel/schemafile"
)

// errInvalid is returned when the input was read but failed validation. The
// report has already been written, so Execute only sets the exit code.
var errInvalid = errors.New("input is invalid")

type app struct {
	schemaPath string
	verbose    bool
	logger     *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{logger: logging.NewNop()}
	root := &cobra.Command{
		Use:           "vmodel",
		Short:         "Validate documents against a declarative schema",
		Long:          `vmodel checks JSON and YAML documents against a schema document and reports every violation at once.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelWarn
			if a.verbose {
				level = slog.LevelDebug
			}
			a.logger = logging.New(cmd.ErrOrStderr(), level)
		},
	}
	root.PersistentFlags().StringVarP(&a.schemaPath, "schema", "s", "", "Schema document (YAML or JSON)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")
	root.AddCommand(newValidateCmd(a), newSchemaCmd(a))
	return root
}

// loadSchema parses the --schema document.
func (a *app) loadSchema() (vmodel.Schema, error) {
	if a.schemaPath == "" {
		return nil, errors.New("--schema is required")
	}
	s, err := schemafile.ParseFile(a.schemaPath)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("schema loaded", "path", a.schemaPath, "name", s.Name(), "fields", len(s.Fields()))
	return s, nil
}

// Execute runs the command tree and exits non-zero on failure.
func Execute() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	root := newRootCmd()
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)
	err := root.Execute()
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errInvalid):
		return 1
	default:
		fmt.Fprintln(stderr, "Error:", err)
		return 2
	}
}
