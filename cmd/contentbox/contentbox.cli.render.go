package main

import (
	"github.com/go-contentbox/contentbox"
	"github.com/spf13/cobra"
)

// renderConfig holds parsed render command configuration
type renderConfig struct {
	templatePath string
	propsPath    string
	propsInline  string
	outputPath   string
	inlineErrors bool
	renderer     rendererFlags
}

func renderCmd() *cobra.Command {
	cfg := &renderConfig{}

	cmd := &cobra.Command{
		Use:   CmdNameRender,
		Short: "Render a template to HTML",
		Example: `  contentbox render -t template.afx --props-inline 'name: World'
  contentbox render -t template.afx -p props.yaml -s acme=Acme.Site --resources Acme.Site=./Acme.Site
  cat template.afx | contentbox render -t - --sites-db sites.db -s acme -o page.html`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRender(cmd, cfg)
		},
	}

	cmd.Flags().StringVarP(&cfg.templatePath, FlagTemplate, FlagTemplateShort, "", HelpTemplate)
	cmd.Flags().StringVarP(&cfg.propsPath, FlagProps, FlagPropsShort, "", HelpProps)
	cmd.Flags().StringVar(&cfg.propsInline, FlagPropsInline, "", HelpPropsInline)
	cmd.Flags().StringVarP(&cfg.outputPath, FlagOutput, FlagOutputShort, FlagDefaultOutput, HelpOutput)
	cmd.Flags().BoolVar(&cfg.inlineErrors, FlagInlineErrors, false, HelpInlineErrors)
	cfg.renderer.register(cmd)

	return cmd
}

func runRender(cmd *cobra.Command, cfg *renderConfig) error {
	if cfg.templatePath == "" {
		return fail(ExitCodeUsageError, ErrMsgMissingTemplate, nil)
	}
	if cfg.propsPath != "" && cfg.propsInline != "" {
		return fail(ExitCodeUsageError, ErrMsgPropsConflict, nil)
	}

	markup, err := readInput(cfg.templatePath, cmd.InOrStdin())
	if err != nil {
		return fail(ExitCodeInputError, ErrMsgReadFileFailed, err)
	}

	var props *string
	switch {
	case cfg.propsPath != "":
		data, err := readInput(cfg.propsPath, cmd.InOrStdin())
		if err != nil {
			return fail(ExitCodeInputError, ErrMsgReadFileFailed, err)
		}
		serialized := string(data)
		props = &serialized
	case cfg.propsInline != "":
		props = &cfg.propsInline
	}

	renderer, cleanup, err := cfg.renderer.build(cmd.ErrOrStderr())
	defer cleanup()
	if err != nil {
		return err
	}

	bindings := contentbox.Bindings{Site: cfg.renderer.siteName()}
	output, err := renderer.Render(cmd.Context(), bindings, string(markup), props)
	if err != nil {
		if !cfg.inlineErrors {
			return fail(ExitCodeError, ErrMsgRenderFailed, err)
		}
		output = renderer.RenderError(err)
		if writeErr := writeOutput(cfg.outputPath, []byte(output), cmd.OutOrStdout()); writeErr != nil {
			return fail(ExitCodeError, ErrMsgWriteOutputFailed, writeErr)
		}
		return failSilently(ExitCodeError, ErrMsgRenderFailed)
	}

	if err := writeOutput(cfg.outputPath, []byte(output), cmd.OutOrStdout()); err != nil {
		return fail(ExitCodeError, ErrMsgWriteOutputFailed, err)
	}
	return nil
}
