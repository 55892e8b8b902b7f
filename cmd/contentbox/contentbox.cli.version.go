package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// versionOutput represents JSON output for version
type versionOutput struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
}

func versionCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   CmdNameVersion,
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := versionOutput{
				Version:   version,
				Commit:    commit,
				BuildTime: date,
				GoVersion: runtime.Version(),
			}

			switch format {
			case OutputFormatJSON:
				data, err := json.MarshalIndent(info, "", "  ")
				if err != nil {
					return fail(ExitCodeError, ErrMsgJSONMarshalFailed, err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
			case OutputFormatText:
				fmt.Fprintf(cmd.OutOrStdout(), VersionTextTemplate, info.Version, info.Commit, info.BuildTime, info.GoVersion)
			default:
				return fail(ExitCodeUsageError, ErrMsgInvalidFormat, errors.New(format))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, FlagFormat, FlagFormatShort, FlagDefaultFormat, HelpFormat)

	return cmd
}
