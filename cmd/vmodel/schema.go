package main

import (
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

func newSchemaCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema of the schema document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.loadSchema()
			if err != nil {
				return err
			}
			js, err := s.JSONSchema()
			if err != nil {
				return err
			}
			b, err := json.MarshalIndent(js, "", "  ")
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(b))
			return err
		},
	}
}
