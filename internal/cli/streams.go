package cli

import (
	"context"
	"encoding/json"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/mltrack/pkg/errors"
)

// IOStreams are the process streams a command writes to.
type IOStreams struct {
	// Out is the standard output stream (or its override)
	Out io.Writer
	// ErrOut is the standard error stream (or its override)
	ErrOut io.Writer
}

// SetStreams takes the streams from the command so tests can override them.
func SetStreams(streams *IOStreams, cmd *cobra.Command) {
	streams.Out = cmd.OutOrStdout()
	streams.ErrOut = cmd.ErrOrStderr()
}

// withContextE adapts a context-only run function to cobra.
func withContextE(runE func(context.Context) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error { return runE(cmd.Context()) }
}

// Output formats of the read commands.
const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

// checkFormat validates and lower-cases an output format.
func checkFormat(format *string) error {
	*format = strings.ToLower(*format)
	switch *format {
	case formatTable, formatJSON, formatYAML:
		return nil
	default:
		return errors.NewInvalidArgumentError("output", "format", *format, "expected one of table|json|yaml")
	}
}

// printObj marshals obj as JSON or YAML.
func printObj(w io.Writer, format string, obj interface{}) error {
	if format == formatYAML {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(obj); err != nil {
			return err
		}
		return enc.Close()
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	return enc.Encode(obj)
}
