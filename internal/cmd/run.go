package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tomasbasham/cli-runtime/iooption"
	"github.com/tomasbasham/cli-runtime/templates"

	"github.com/tomasbasham/invoice-smoke/internal/config"
	"github.com/tomasbasham/invoice-smoke/internal/notify"
	"github.com/tomasbasham/invoice-smoke/internal/pipeline"
	"github.com/tomasbasham/invoice-smoke/internal/stages"
	"github.com/tomasbasham/invoice-smoke/internal/storage"
)

type RunOptions struct {
	config *config.Config

	Env        string
	ConfigPath string
	WorkDir    string
	LocalDir   string
	NoNotify   bool

	iooption.IOStreams
}

var (
	runLong = templates.LongDesc(`
		Run the full smoke pipeline against an environment: generate a
		synthetic TIFF invoice and upload it to the landing bucket.`)

	runExample = templates.Examples(`
		# Run against staging
		smoke run --env staging

		# Dry run writing "uploads" to a local directory
		smoke run --env staging --local-dir /tmp/landing`)
)

func NewRunOptions(streams iooption.IOStreams) *RunOptions {
	return &RunOptions{
		IOStreams: streams,
	}
}

func NewRunCommand(o *RunOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:                   "run",
		DisableFlagsInUseLine: true,
		Short:                 "Run the smoke pipeline end to end",
		Long:                  runLong,
		Example:               runExample,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.Complete(cmd, args); err != nil {
				return err
			}
			if err := o.Validate(); err != nil {
				return err
			}
			if err := o.Run(); err != nil {
				return err
			}
			return nil
		},
	}

	flags := cmd.Flags()

	flags.StringVarP(&o.Env, "env", "e", "", "Target environment name (required)")
	flags.StringVarP(&o.ConfigPath, "config", "c", "smoke.yaml", "Path to the harness configuration file")
	flags.StringVarP(&o.WorkDir, "work-dir", "w", "", "Scratch directory for generated artefacts (default: a temp dir)")
	flags.StringVar(&o.LocalDir, "local-dir", "", "Write artefacts to this local directory instead of GCS")
	flags.BoolVar(&o.NoNotify, "no-notify", false, "Skip the upload notification")

	return cmd
}

func (o *RunOptions) Complete(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return err
	}
	o.config = cfg
	return nil
}

func (o *RunOptions) Validate() error {
	if o.Env == "" {
		return fmt.Errorf("--env is required")
	}
	return nil
}

func (o *RunOptions) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runner := pipeline.NewRunner(o.Out,
		&stages.GenerateStage{},
		&stages.UploadStage{
			Config:   o.config,
			Storage:  o.storageFactory(),
			Notifier: o.notifierFactory(),
		},
	)

	sc := &pipeline.Context{Env: o.Env, WorkDir: o.WorkDir}

	result, err := runner.Run(ctx, sc)
	if err != nil {
		return err
	}

	if !result.Passed {
		return fmt.Errorf("smoke run failed")
	}

	fmt.Fprintf(o.Out, "Invoice uploaded to %s\n", sc.GCSObjectPath)
	return nil
}

func (o *RunOptions) storageFactory() storage.Factory {
	if o.LocalDir != "" {
		return storage.NewLocalFactory(o.LocalDir)
	}
	return storage.NewGCSFactory()
}

func (o *RunOptions) notifierFactory() notify.Factory {
	// Local dry runs have nothing listening on the topic, so skip the
	// notification there too.
	if o.NoNotify || o.LocalDir != "" {
		return nil
	}
	return notify.NewPubSubFactory()
}
