// serve.go - The serve command.
package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/parkitectnexus/assettools/clients/server"
	"github.com/parkitectnexus/assettools/pkg/dump"
	"github.com/parkitectnexus/assettools/pkg/pipeline"
	"github.com/spf13/cobra"
)

func (a *app) newServeCmd() *cobra.Command {
	def := server.DefaultOptions()

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dump and convert operations over HTTP",
		Long: `Start an HTTP API:

  GET    /healthz
  POST   /api/blueprint            blueprint image body (?exclude=, ?format=, ?encoding=base64)
  POST   /api/savegame             savegame text body
  POST   /api/blueprint/convert    multipart form, see blueprint-convert
  POST   /api/upload/font          store a font for later conversions
  POST   /api/upload/image         store a background or logo
  GET    /api/assets               list stored uploads
  GET    /api/assets/{id}
  DELETE /api/assets/{id}

Dump exclusions and convert artwork default to the dump.* and convert.*
config keys.`,
		Args: exactArgs(0),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return a.bind(cmd.Flags(), map[string]string{
				"serve.addr":       "addr",
				"serve.max_upload": "max-upload",
				"dump.format":      "format",
			})
		},
		RunE: a.runServe,
	}

	cmd.Flags().String("addr", def.Addr, "listen address")
	cmd.Flags().Int64("max-upload", def.MaxUpload, "maximum request body in bytes")
	cmd.Flags().StringP("format", "f", string(def.Format), "default dump format: json, json-indent or toon")
	return cmd
}

func (a *app) runServe(cmd *cobra.Command, args []string) error {
	format, err := dump.ParseFormat(a.v.GetString("dump.format"))
	if err != nil {
		return usageError{err}
	}

	rect, err := a.logoRect()
	if err != nil {
		return err
	}
	convert := pipeline.ConvertOptions{
		Background: a.v.GetString("convert.background"),
		Logo:       a.v.GetString("convert.logo"),
		LogoRect:   rect,
	}

	opts := server.Options{
		Addr:      a.v.GetString("serve.addr"),
		MaxUpload: a.v.GetInt64("serve.max_upload"),
		Blueprint: dump.NewFieldSet(a.stringList(cmd.Flags(), "", "dump.blueprint.exclude", dump.BlueprintExclusions)...),
		Savegame:  dump.NewFieldSet(a.stringList(cmd.Flags(), "", "dump.savegame.exclude", dump.SavegameExclusions)...),
		Format:    format,
		Convert:   convert,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return server.RunServe(ctx, opts)
}
