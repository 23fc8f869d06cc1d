// dump.go - The blueprint and savegame dump commands.
package main

import (
	"fmt"

	"github.com/parkitectnexus/assettools/pkg/dump"
	"github.com/parkitectnexus/assettools/pkg/pipeline"
	"github.com/spf13/cobra"
)

// dumpFunc is pipeline.Dumper.Blueprint or pipeline.Dumper.Savegame.
type dumpFunc func(d *pipeline.Dumper, data []byte, excluded dump.FieldSet, format dump.Format) ([]byte, error)

func (a *app) newBlueprintCmd() *cobra.Command {
	return a.newDumpCmd("blueprint", "Dump the header and coaster of a blueprint image",
		dump.BlueprintExclusions, pipeline.ResolveBlueprint, (*pipeline.Dumper).Blueprint)
}

func (a *app) newSavegameCmd() *cobra.Command {
	return a.newDumpCmd("savegame", "Dump the header and park of a savegame",
		dump.SavegameExclusions, pipeline.ResolveSavegame, (*pipeline.Dumper).Savegame)
}

func (a *app) newDumpCmd(verb, short string, defaults []string, resolve func(string, bool) ([]byte, error), run dumpFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   verb + " [flags] <path|data>",
		Short: short,
		Long: fmt.Sprintf(`%s

The argument is a file path, or with --raw the content itself.
Fields are left out by name at any depth; --exclude= with no value keeps
every field. Without --exclude the dump.%s.exclude config key applies,
then the built-in list:
  %v`, short, verb, defaults),
		Args: exactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return a.bind(cmd.Flags(), map[string]string{"dump.format": "format"})
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			excluded := dump.NewFieldSet(a.stringList(cmd.Flags(), "exclude", "dump."+verb+".exclude", defaults)...)
			format, err := dump.ParseFormat(a.v.GetString("dump.format"))
			if err != nil {
				return usageError{err}
			}

			raw, _ := cmd.Flags().GetBool("raw")
			data, err := resolve(args[0], raw)
			if err != nil {
				return err
			}

			out, err := run(pipeline.NewDumper(), data, excluded, format)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}

	cmd.Flags().Bool("raw", false, "treat the argument as content instead of a path")
	cmd.Flags().StringSlice("exclude", nil, "comma separated field names to leave out")
	cmd.Flags().StringP("format", "f", string(dump.FormatJSON), "output format: json, json-indent or toon")
	return cmd
}
