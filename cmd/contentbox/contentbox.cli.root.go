package main

import (
	"io"
	"os"
	"strings"

	"github.com/go-contentbox/contentbox"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           CLIName,
		Short:         CLIDescription,
		Long:          CLILong,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.AddCommand(
		renderCmd(),
		transpileCmd(),
		validateCmd(),
		versionCmd(),
	)
	return root
}

// rendererFlags are the flags shared by commands that build a renderer
type rendererFlags struct {
	site        string
	sitesDB     string
	sitesDriver string
	nodeTypes   string
	autoInclude string
	resources   []string
	charset     string
	verbose     bool
}

func (f *rendererFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVarP(&f.site, FlagSite, FlagSiteShort, "", HelpSite)
	flags.StringVar(&f.sitesDB, FlagSitesDB, "", HelpSitesDB)
	flags.StringVar(&f.sitesDriver, FlagSitesDriver, FlagDefaultDriver, HelpSitesDriver)
	flags.StringVar(&f.nodeTypes, FlagNodeTypes, "", HelpNodeTypes)
	flags.StringVar(&f.autoInclude, FlagAutoInclude, "", HelpAutoInclude)
	flags.StringArrayVar(&f.resources, FlagResources, nil, HelpResources)
	flags.StringVar(&f.charset, FlagCharset, contentbox.DefaultCharset, HelpCharset)
	flags.BoolVarP(&f.verbose, FlagVerbose, FlagVerboseShort, false, HelpVerbose)
}

// siteName returns the node name part of the site flag
func (f *rendererFlags) siteName() string {
	name, _, _ := strings.Cut(f.site, SiteSeparator)
	return name
}

// build creates a renderer from the flags. The returned cleanup closes
// the site database if one was opened.
func (f *rendererFlags) build(stderr io.Writer) (*contentbox.Renderer, func(), error) {
	logger := newLogger(stderr, f.verbose)
	cleanup := func() { _ = logger.Sync() }

	opts := []contentbox.Option{
		contentbox.WithLogger(logger),
		contentbox.WithCharset(f.charset),
	}

	for _, resource := range f.resources {
		pkg, dir, ok := strings.Cut(resource, ResourceSeparator)
		if !ok || pkg == "" || dir == "" {
			return nil, cleanup, fail(ExitCodeUsageError, ErrMsgInvalidResource, nil)
		}
		opts = append(opts, contentbox.WithResourcePackage(pkg, os.DirFS(dir)))
	}

	name, pkg, hasPackage := strings.Cut(f.site, SiteSeparator)
	switch {
	case hasPackage:
		if name == "" || pkg == "" {
			return nil, cleanup, fail(ExitCodeUsageError, ErrMsgInvalidSite, nil)
		}
		opts = append(opts, contentbox.WithSites(contentbox.Site{NodeName: name, Name: name, PackageKey: pkg}))
	case f.sitesDB != "":
		config := contentbox.DefaultSQLSiteConfig()
		config.Driver = f.sitesDriver
		config.ConnectionString = f.sitesDB
		config.AutoMigrate = true
		config.Logger = logger
		repo, err := contentbox.NewSQLSiteRepository(config)
		if err != nil {
			return nil, cleanup, fail(ExitCodeInputError, ErrMsgSitesDBFailed, err)
		}
		cleanup = func() {
			_ = repo.Close()
			_ = logger.Sync()
		}
		opts = append(opts, contentbox.WithSiteRepository(repo))
	}

	if f.nodeTypes != "" {
		registry := contentbox.NewNodeTypeRegistry("", logger)
		if err := registry.LoadFile(f.nodeTypes); err != nil {
			return nil, cleanup, fail(ExitCodeInputError, ErrMsgNodeTypesFailed, err)
		}
		opts = append(opts, contentbox.WithNodeTypes(registry))
	}

	if f.autoInclude != "" {
		config, err := contentbox.LoadAutoIncludeConfig(f.autoInclude)
		if err != nil {
			return nil, cleanup, fail(ExitCodeInputError, ErrMsgAutoIncludeFailed, err)
		}
		opts = append(opts, contentbox.WithAutoIncludeConfig(config))
	}

	renderer, err := contentbox.New(opts...)
	if err != nil {
		return nil, cleanup, fail(ExitCodeUsageError, ErrMsgRendererFailed, err)
	}
	return renderer, cleanup, nil
}

// newLogger logs to stderr in console format when verbose, otherwise not at all
func newLogger(stderr io.Writer, verbose bool) *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}
	encoder := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	return zap.New(zapcore.NewCore(encoder, zapcore.AddSync(stderr), zapcore.DebugLevel))
}
