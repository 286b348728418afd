package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/spf13/cobra"

	"github.com/oaiiae/huma-contacts/cli/api"
	"github.com/oaiiae/huma-contacts/cli/contacts"
	"github.com/oaiiae/huma-contacts/cli/logger"
	"github.com/oaiiae/huma-contacts/cli/store"
	"github.com/oaiiae/huma-contacts/datastores"
)

// Set at build time with -ldflags "-X main.version=...".
var (
	version  = "dev"
	revision = ""
	created  = ""
)

// Options for the CLI. Pass flags like `--port` or set env vars like `SERVICE_PORT`.
type Options struct {
	logger.Options
	api.ServerOptions
	api.RouterOptions
	store.StorageOptions
}

func buildInfo() api.BuildInfo {
	return api.BuildInfo{Title: "Contacts API", Version: version, Revision: revision, Created: created}
}

func main() {
	cli := humacli.New(func(hooks humacli.Hooks, options *Options) {
		var (
			mu     sync.Mutex
			srv    *http.Server
			closer io.Closer
		)

		hooks.OnStart(func() {
			log := logger.New(&options.Options)
			contactsStore, c, err := store.Open(context.Background(), &options.StorageOptions, log)
			if err != nil {
				log.Error("could not open the contact store", "err", err)
				os.Exit(1)
			}
			handler, _ := api.NewRouter(&options.RouterOptions, buildInfo(), contactsStore, log)

			mu.Lock()
			srv, closer = api.NewServer(&options.ServerOptions, handler, log), c
			mu.Unlock()

			log.Info("listening", "addr", srv.Addr, "storage", options.Storage)
			err = srv.ListenAndServe()
			if !errors.Is(err, http.ErrServerClosed) {
				log.Error("failed to listen and serve", "err", err)
			} else {
				log.Info("server closed")
			}
		})

		hooks.OnStop(func() {
			mu.Lock()
			defer mu.Unlock()
			if srv == nil {
				return
			}
			log := logger.New(&options.Options)
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				log.Warn("could not shutdown the server", "err", err)
			}
			if err := closer.Close(); err != nil {
				log.Warn("could not close the contact store", "err", err)
			}
		})
	})

	cli.Root().AddCommand(&cobra.Command{
		Use:   "openapi",
		Short: "Print the OpenAPI document",
		Args:  cobra.NoArgs,
		Run: humacli.WithOptions(func(cmd *cobra.Command, _ []string, options *Options) {
			_, humaAPI := api.NewRouter(&options.RouterOptions, buildInfo(),
				datastores.NewContactsPersisted(datastores.NewMemorySlot(nil), nil),
				slog.New(slog.DiscardHandler))
			b, err := humaAPI.OpenAPI().YAML()
			if err != nil {
				cmd.PrintErrln("Error:", err)
				os.Exit(1)
			}
			cmd.OutOrStdout().Write(b) //nolint: errcheck // stdout
		}),
	})

	cli.Root().AddCommand(contacts.NewCommand(
		func(ctx context.Context, options *Options) (*datastores.ContactsPersisted, io.Closer, error) {
			return store.Open(ctx, &options.StorageOptions, logger.NewWriter(&options.Options, os.Stderr))
		},
	))

	cli.Run()
}
