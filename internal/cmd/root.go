package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	cliflag "github.com/tomasbasham/cli-runtime/flag"
	"github.com/tomasbasham/cli-runtime/iooption"
	"github.com/tomasbasham/cli-runtime/printer"
	"github.com/tomasbasham/cli-runtime/templates"
)

var (
	rootLong = templates.LongDesc(`
		Smoke-test harness for the invoice ingestion pipeline. Generates a
		synthetic TIFF invoice, uploads it to the environment's GCS landing
		bucket and nudges the ingestion pipeline over Pub/Sub.`)

	rootExamples = templates.Examples(``)

	// Injected at build time using ldflags.
	version = ""
	commit  = ""
)

// SmokeOptions defines the options for the `smoke` command.
type SmokeOptions struct {
	iooption.IOStreams
}

// NewSmokeOptions provides an initialised SmokeOptions instance.
func NewSmokeOptions(streams iooption.IOStreams) *SmokeOptions {
	return &SmokeOptions{
		IOStreams: streams,
	}
}

// NewRootCommand creates the `smoke` command with default arguments.
func NewRootCommand() *cobra.Command {
	options := NewSmokeOptions(iooption.IOStreams{
		In:     os.Stdin,
		Out:    os.Stdout,
		ErrOut: os.Stderr,
	})

	return NewRootCommandWithArgs(options)
}

// NewRootCommandWithArgs creates the `smoke` command and its nested
// children.
func NewRootCommandWithArgs(o *SmokeOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:                   "smoke [command]",
		Version:               versionInfo(),
		DisableFlagsInUseLine: true,
		Short:                 "Invoice pipeline smoke-test harness",
		Long:                  rootLong,
		Example:               rootExamples,
		SilenceErrors:         true,
		SilenceUsage:          true,
	}

	printerOpts := printer.WarningPrinterOptions{Color: true}
	printer := printer.NewWarningPrinter(o.ErrOut, printerOpts)
	cmd.SetGlobalNormalizationFunc(cliflag.WarnWordSepNormalizeFunc(printer))

	cmd.AddCommand(NewRunCommand(NewRunOptions(o.IOStreams)))
	cmd.AddCommand(NewUploadCommand(NewUploadOptions(o.IOStreams)))
	cmd.AddCommand(NewServeCommand(NewServeOptions()))

	// The globlal normalisation function ensures that all flags specified meet
	// the desired format, changing users' input if necessary.
	cmd.SetGlobalNormalizationFunc(cliflag.WordSepNormalizeFunc())

	return cmd
}

func versionInfo() string {
	if version == "" {
		return ""
	}
	return fmt.Sprintf("%s (commit: %s)", version, commit)
}
