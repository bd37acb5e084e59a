package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tomasbasham/cli-runtime/templates"

	"github.com/tomasbasham/invoice-smoke/internal/config"
	"github.com/tomasbasham/invoice-smoke/internal/notify"
	"github.com/tomasbasham/invoice-smoke/internal/operation"
	"github.com/tomasbasham/invoice-smoke/internal/server"
	"github.com/tomasbasham/invoice-smoke/internal/stages"
	"github.com/tomasbasham/invoice-smoke/internal/storage"
)

type ServeOptions struct {
	config *config.Config

	Port       int
	ConfigPath string
	DefaultEnv string
	LocalDir   string
	NoNotify   bool
}

var (
	serveLong = templates.LongDesc(`
		Start the smoke-run HTTP server. CI jobs POST /runs to trigger a
		smoke run and poll GET /runs/{id} for per-stage results.`)

	serveExample = templates.Examples(`
		# Start on the default port
		smoke serve

		# Start on a custom port with a default environment
		smoke serve --port 9090 --default-env staging`)
)

func NewServeOptions() *ServeOptions {
	return &ServeOptions{}
}

func NewServeCommand(o *ServeOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "serve",
		Short:   "Start the smoke-run HTTP server",
		Long:    serveLong,
		Example: serveExample,
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

	cmd.Flags().IntVarP(&o.Port, "port", "p", 8080, "Port to listen on")
	cmd.Flags().StringVarP(&o.ConfigPath, "config", "c", "smoke.yaml", "Path to the harness configuration file")
	cmd.Flags().StringVar(&o.DefaultEnv, "default-env", "", "Environment used when a request names none")
	cmd.Flags().StringVar(&o.LocalDir, "local-dir", "", "Write artefacts to this local directory instead of GCS")
	cmd.Flags().BoolVar(&o.NoNotify, "no-notify", false, "Skip upload notifications")

	return cmd
}

func (o *ServeOptions) Complete(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return err
	}
	o.config = cfg
	return nil
}

func (o *ServeOptions) Validate() error {
	return nil
}

func (o *ServeOptions) Run() error {
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

	runner := operation.NewWorkerRunner(
		&stages.GenerateStage{},
		&stages.UploadStage{
			Config:   o.config,
			Storage:  storageFactory,
			Notifier: notifier,
		},
	)

	store := operation.NewMemoryStore()
	srv := server.New(store, runner, o.DefaultEnv)

	addr := fmt.Sprintf(":%d", o.Port)
	fmt.Printf("Starting smoke-run server on %s\n", addr)
	return srv.ListenAndServe(addr)
}
