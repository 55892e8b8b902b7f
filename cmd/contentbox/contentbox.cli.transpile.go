package main

import (
	"github.com/spf13/cobra"
)

func transpileCmd() *cobra.Command {
	var templatePath, outputPath string
	var flags rendererFlags

	cmd := &cobra.Command{
		Use:     CmdNameTranspile,
		Short:   "Print the Fusion source a template transpiles to",
		Example: `  contentbox transpile -t template.afx`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if templatePath == "" {
				return fail(ExitCodeUsageError, ErrMsgMissingTemplate, nil)
			}
			markup, err := readInput(templatePath, cmd.InOrStdin())
			if err != nil {
				return fail(ExitCodeInputError, ErrMsgReadFileFailed, err)
			}

			renderer, cleanup, err := flags.build(cmd.ErrOrStderr())
			defer cleanup()
			if err != nil {
				return err
			}

			fusion, err := renderer.Transpile(cmd.Context(), string(markup))
			if err != nil {
				return fail(ExitCodeValidationError, ErrMsgTranspileFailed, err)
			}
			if err := writeOutput(outputPath, []byte(fusion+FmtNewline), cmd.OutOrStdout()); err != nil {
				return fail(ExitCodeError, ErrMsgWriteOutputFailed, err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&templatePath, FlagTemplate, FlagTemplateShort, "", HelpTemplate)
	cmd.Flags().StringVarP(&outputPath, FlagOutput, FlagOutputShort, FlagDefaultOutput, HelpOutput)
	cmd.Flags().BoolVarP(&flags.verbose, FlagVerbose, FlagVerboseShort, false, HelpVerbose)

	return cmd
}
