package main

import (
	"github.com/spf13/cobra"

	"github.com/jmylchreest/isle/internal/ipc"
	"github.com/jmylchreest/isle/internal/model"
	"github.com/jmylchreest/isle/internal/output"
)

var activitiesOpts struct {
	output       string
	template     string
	field        string
	noProperties bool
	module       string
}

var activitiesCmd = &cobra.Command{
	Use:     "activities",
	Aliases: []string{"ls", "list"},
	Short:   "List live activities",
	Long: `List the activities currently laid out in the island, with their display
mode, focus and property values.

Output formats:
  table   Bordered table with one column per property (default)
  json    JSON array
  yaml    YAML sequence
  ids     One activity@module identifier per line

Use --field to print one field per activity (id, mode, focused, or any
property name), or --template for a custom Go template. Templates see
.Index, .Activity and .Mode, plus the functions truncate, upper, lower,
oneline, mode and prop.

Examples:
  isle activities -o ids
  isle activities --field time
  isle activities --template '{{.Activity.ID}} {{prop .Activity "summary" | truncate 30}}'`,
	Args: cobra.NoArgs,
	RunE: runActivities,
}

func init() {
	rootCmd.AddCommand(activitiesCmd)

	activitiesCmd.Flags().StringVarP(&activitiesOpts.output, "output", "o", "",
		"Output format (table, json, yaml, ids)")
	activitiesCmd.Flags().StringVar(&activitiesOpts.template, "template", "",
		"Go template applied to each activity")
	activitiesCmd.Flags().StringVar(&activitiesOpts.field, "field", "",
		"Print a single field per activity")
	activitiesCmd.Flags().BoolVar(&activitiesOpts.noProperties, "no-properties", false,
		"Omit property columns from table output")
	activitiesCmd.Flags().StringVarP(&activitiesOpts.module, "module", "m", "",
		"Only list activities of this module")
}

func runActivities(cmd *cobra.Command, args []string) error {
	format, err := outputFormat(activitiesOpts.output)
	if err != nil {
		return err
	}

	opts := output.DefaultOptions()
	opts.Template = activitiesOpts.template
	opts.Field = activitiesOpts.field
	opts.Properties = !activitiesOpts.noProperties
	formatter, err := output.NewFormatter(format, opts)
	if err != nil {
		return err
	}

	resp, err := call(ipc.Request{Kind: ipc.KindListActivities})
	if err != nil {
		return err
	}

	activities := filterModule(resp.Activities, activitiesOpts.module)
	return formatter.Format(cmd.OutOrStdout(), activities)
}

// filterModule keeps the activities published by module. An empty module
// keeps everything.
func filterModule(activities []ipc.ActivityInfo, module string) []ipc.ActivityInfo {
	if module == "" {
		return activities
	}
	var out []ipc.ActivityInfo
	for _, a := range activities {
		if id, err := model.ParseIdentifier(a.ID); err == nil && id.Module == module {
			out = append(out, a)
		}
	}
	return out
}
