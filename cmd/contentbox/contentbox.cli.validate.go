package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/go-contentbox/contentbox"
	"github.com/spf13/cobra"
)

// validateOutput represents JSON output for validation
type validateOutput struct {
	Valid   bool   `json:"valid"`
	Kind    string `json:"kind,omitempty"`
	Code    int    `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

func validateCmd() *cobra.Command {
	var templatePath, format string
	var flags rendererFlags

	cmd := &cobra.Command{
		Use:   CmdNameValidate,
		Short: "Transpile and parse a template without rendering it",
		Example: `  contentbox validate -t template.afx
  contentbox validate -t template.afx -s acme=Acme.Site --resources Acme.Site=./Acme.Site -F json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if templatePath == "" {
				return fail(ExitCodeUsageError, ErrMsgMissingTemplate, nil)
			}
			if format != OutputFormatText && format != OutputFormatJSON {
				return fail(ExitCodeUsageError, ErrMsgInvalidFormat, errors.New(format))
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

			result := validateOutput{Valid: true}
			var renderErr *contentbox.RenderingError
			if err := renderer.Validate(cmd.Context(), flags.siteName(), string(markup)); errors.As(err, &renderErr) {
				result = validateOutput{Kind: renderErr.Kind, Code: renderErr.Code, Message: renderErr.Message}
			}

			if err := writeValidation(cmd.OutOrStdout(), format, result); err != nil {
				return fail(ExitCodeError, ErrMsgWriteOutputFailed, err)
			}
			if !result.Valid {
				return fail(ExitCodeValidationError, ErrMsgValidationFailed, nil)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&templatePath, FlagTemplate, FlagTemplateShort, "", HelpTemplate)
	cmd.Flags().StringVarP(&format, FlagFormat, FlagFormatShort, FlagDefaultFormat, HelpFormat)
	flags.register(cmd)

	return cmd
}

func writeValidation(w io.Writer, format string, result validateOutput) error {
	if format == OutputFormatJSON {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("%s: %w", ErrMsgJSONMarshalFailed, err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	}

	if result.Valid {
		_, err := fmt.Fprintln(w, ValidationTextSuccess)
		return err
	}
	_, err := fmt.Fprintf(w, "%s\n  [%s %d] %s\n", ValidationTextFailure, result.Kind, result.Code, result.Message)
	return err
}
