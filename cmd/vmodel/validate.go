package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	vmodel "github.com/reoring/vmodel"
	"github.com/reoring/vmodel/source"
)

func newValidateCmd(a *app) *cobra.Command {
	var (
		output      string
		inputFormat string
		rejectDup   bool
	)
	cmd := &cobra.Command{
		Use:   "validate [file]",
		Short: "Validate a JSON or YAML document",
		Long:  `Reads the document (or stdin when the file is "-" or omitted), validates it and prints the normalized model or the issues.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if output != "text" && output != "json" {
				return fmt.Errorf("unknown --format %q (want text or json)", output)
			}
			s, err := a.loadSchema()
			if err != nil {
				return err
			}
			var opts []source.Option
			if rejectDup {
				opts = append(opts, source.RejectDuplicateKeys())
			}
			input, err := readInput(cmd.InOrStdin(), args, inputFormat, opts)
			if err != nil {
				return err
			}
			m, err := vmodel.Validate(cmd.Context(), s, input)
			if err != nil {
				iss, ok := vmodel.AsIssues(err)
				if !ok {
					return err
				}
				a.logger.Debug("validation failed", "schema", s.Name(), "issues", len(iss))
				if err := writeIssues(cmd.OutOrStdout(), s.Name(), iss, output); err != nil {
					return err
				}
				return errInvalid
			}
			return writeModel(cmd.OutOrStdout(), m, output)
		},
	}
	cmd.Flags().StringVarP(&output, "format", "f", "text", "Output format: text or json")
	cmd.Flags().StringVar(&inputFormat, "input-format", "", "Input format (json or yaml); inferred from the file extension by default")
	cmd.Flags().BoolVar(&rejectDup, "reject-duplicate-keys", false, "Fail on repeated JSON object keys")
	return cmd
}

func readInput(stdin io.Reader, args []string, format string, opts []source.Option) (map[string]any, error) {
	path := "-"
	if len(args) == 1 {
		path = args[0]
	}
	if path != "-" && format == "" {
		return source.File(path, opts...)
	}
	f := source.FormatJSON
	if format != "" {
		var err error
		if f, err = source.ParseFormat(format); err != nil {
			return nil, err
		}
	}
	if path == "-" {
		return source.Reader(stdin, f, opts...)
	}
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()
	return source.Reader(fh, f, opts...)
}

func writeIssues(w io.Writer, name string, iss vmodel.Issues, output string) error {
	if output == "json" {
		b, err := iss.JSON()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(b))
		return err
	}
	_, err := fmt.Fprintln(w, iss.Summary(name))
	return err
}

func writeModel(w io.Writer, m *vmodel.Model, output string) error {
	if output == "json" {
		b, err := m.MarshalJSON()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(b))
		return err
	}
	_, err := fmt.Fprintln(w, m.String())
	return err
}
