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

type UploadOptions struct {
	config *config.Config

	TIFFPath   string
	Env        string
	ConfigPath string
	LocalDir   string
	NoNotify   bool

	iooption.IOStreams
}

var (
	uploadLong = templates.LongDesc(`
		Upload an already-generated TIFF invoice to the environment's landing
		bucket, skipping the generate stage.`)

	uploadExample = templates.Examples(`
		# Upload a hand-crafted invoice to staging
		smoke upload invoice.tiff --env staging`)
)

func NewUploadOptions(streams iooption.IOStreams) *UploadOptions {
	return &UploadOptions{
		IOStreams: streams,
	}
}

func NewUploadCommand(o *UploadOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:                   "upload [FILE]",
		DisableFlagsInUseLine: true,
		Short:                 "Upload an existing TIFF invoice to the landing bucket",
		Long:                  uploadLong,
		Example:               uploadExample,
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
	flags.StringVar(&o.LocalDir, "local-dir", "", "Write artefacts to this local directory instead of GCS")
	flags.BoolVar(&o.NoNotify, "no-notify", false, "Skip the upload notification")

	return cmd
}

func (o *UploadOptions) Complete(cmd *cobra.Command, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("FILE is required")
	}
	o.TIFFPath = args[0]

	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return err
	}
	o.config = cfg
	return nil
}

func (o *UploadOptions) Validate() error {
	if o.Env == "" {
		return fmt.Errorf("--env is required")
	}
	return nil
}

func (o *UploadOptions) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var storageFactory storage.Factory
	if o.LocalDir != "" {
		storageFactory = storage.NewLocalFactory(o.LocalDir)
	} else {
		storageFactory = storage.NewGCSFactory()
	}

	var notifier notify.Factory
	if !o.NoNotify && o.LocalDir == "" {
		notifier = notify.NewPubSubFactory()
	}

	runner := pipeline.NewRunner(o.Out, &stages.UploadStage{
		Config:   o.config,
		Storage:  storageFactory,
		Notifier: notifier,
	})

	sc := &pipeline.Context{Env: o.Env, TIFFPath: o.TIFFPath}

	result, err := runner.Run(ctx, sc)
	if err != nil {
		return err
	}

	if !result.Passed {
		return fmt.Errorf("upload failed")
	}

	fmt.Fprintf(o.Out, "Invoice uploaded to %s\n", sc.GCSObjectPath)
	return nil
}
