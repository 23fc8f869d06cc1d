// init.go - The init command, which writes a sample config file.
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/parkitectnexus/assettools/pkg/dump"
	"github.com/parkitectnexus/assettools/pkg/pipeline"
	"github.com/spf13/cobra"
)

func (a *app) newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a sample assettools.yaml",
		Args:  exactArgs(0),
		RunE:  runInit,
	}
	cmd.Flags().StringP("output", "o", "assettools.yaml", "output path for the sample config")
	cmd.Flags().Bool("force", false, "overwrite an existing file")
	return cmd
}

func runInit(cmd *cobra.Command, args []string) error {
	output, _ := cmd.Flags().GetString("output")
	force, _ := cmd.Flags().GetBool("force")

	flag := os.O_WRONLY | os.O_CREATE | os.O_EXCL
	if force {
		flag = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	}
	f, err := os.OpenFile(output, flag, 0644)
	if err != nil {
		if os.IsExist(err) {
			return usageError{fmt.Errorf("%s already exists, use --force to overwrite", output)}
		}
		return fmt.Errorf("write config: %w", err)
	}
	if _, err := f.WriteString(sampleConfig()); err != nil {
		f.Close()
		return fmt.Errorf("write config: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created: %s\n", output)
	fmt.Fprintf(out, "Run: assettools --config %s blueprint-convert -o out.png blueprint.png\n", output)
	return nil
}

// sampleConfig returns a config file holding every key with its default.
func sampleConfig() string {
	def := pipeline.DefaultConvertOptions()
	r := def.LogoRect
	return `# assettools configuration.
# Every key can also be set through the environment, e.g.
# ASSETTOOLS_CONVERT_FONT="Go Bold" or ASSETTOOLS_LOG_LEVEL=debug.

log:
  level: warn

dump:
  format: json
  blueprint:
    exclude: ` + yamlList(dump.BlueprintExclusions) + `
  savegame:
    exclude: ` + yamlList(dump.SavegameExclusions) + `

convert:
  background: ` + strconv.Quote(def.Background) + `
  logo: ` + strconv.Quote(def.Logo) + `
  logo_x: ` + strconv.Itoa(r.Min.X) + `
  logo_y: ` + strconv.Itoa(r.Min.Y) + `
  logo_width: ` + strconv.Itoa(r.Dx()) + `
  logo_height: ` + strconv.Itoa(r.Dy()) + `
  font: ` + strconv.Quote(def.Font) + `
  font_style: Regular
  # Each entry is "x,y,color,size text". ASSETTOOLS_CONVERT_DRAW_TEXT
  # takes one directive per line.
  draw_text: []
  preview: ""

serve:
  addr: ":8080"
  max_upload: 33554432
`
}

func yamlList(items []string) string {
	return "[" + strings.Join(items, ", ") + "]"
}
