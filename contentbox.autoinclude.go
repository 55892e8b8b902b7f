package contentbox

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// AutoIncludeEntry enables or disables the root definitions of a package
type AutoIncludeEntry struct {
	Package string
	Enabled bool
}

// AutoIncludeConfig lists package auto-includes in declaration order
type AutoIncludeConfig struct {
	Entries []AutoIncludeEntry
}

// DefaultAutoIncludeConfig includes Neos.Fusion only
func DefaultAutoIncludeConfig() AutoIncludeConfig {
	return AutoIncludeConfig{Entries: []AutoIncludeEntry{{Package: PackageNeosFusion, Enabled: true}}}
}

// UnmarshalYAML decodes a mapping of package keys to flags, keeping its order
func (c *AutoIncludeConfig) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("autoInclude must be a mapping, got %s", value.Tag)
	}
	entries := make([]AutoIncludeEntry, 0, len(value.Content)/2)
	for i := 0; i+1 < len(value.Content); i += 2 {
		var enabled bool
		if err := value.Content[i+1].Decode(&enabled); err != nil {
			return err
		}
		entries = append(entries, AutoIncludeEntry{Package: value.Content[i].Value, Enabled: enabled})
	}
	c.Entries = entries
	return nil
}

// Enabled returns the enabled package keys in order. A package listed twice
// takes its last flag and keeps its first position.
func (c AutoIncludeConfig) Enabled() []string {
	flags := make(map[string]bool, len(c.Entries))
	order := make([]string, 0, len(c.Entries))
	for _, entry := range c.Entries {
		if _, seen := flags[entry.Package]; !seen {
			order = append(order, entry.Package)
		}
		flags[entry.Package] = entry.Enabled
	}

	enabled := make([]string, 0, len(order))
	for _, pkg := range order {
		if flags[pkg] {
			enabled = append(enabled, pkg)
		}
	}
	return enabled
}

type autoIncludeDocument struct {
	AutoInclude *AutoIncludeConfig `yaml:"autoInclude"`
}

// ParseAutoIncludeConfig decodes a document of the form
// "autoInclude: {Neos.Fusion: true}". A document without the key yields
// the default configuration.
func ParseAutoIncludeConfig(data []byte) (AutoIncludeConfig, error) {
	var doc autoIncludeDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return AutoIncludeConfig{}, NewConfigError(ErrMsgAutoIncludeInvalid, err)
	}
	if doc.AutoInclude == nil {
		return DefaultAutoIncludeConfig(), nil
	}
	return *doc.AutoInclude, nil
}

// LoadAutoIncludeConfig reads an auto-include configuration file
func LoadAutoIncludeConfig(path string) (AutoIncludeConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return AutoIncludeConfig{}, NewConfigError(ErrMsgAutoIncludeInvalid, err)
	}
	return ParseAutoIncludeConfig(data)
}

// ConfigAutoIncludeResolver loads the root definitions of every enabled package
type ConfigAutoIncludeResolver struct {
	config    AutoIncludeConfig
	resources *ResourceLoader
	logger    *zap.Logger
}

// NewConfigAutoIncludeResolver creates a resolver reading from resources
func NewConfigAutoIncludeResolver(config AutoIncludeConfig, resources *ResourceLoader, logger *zap.Logger) *ConfigAutoIncludeResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	if resources == nil {
		resources = NewDefaultResourceLoader(logger)
	}
	return &ConfigAutoIncludeResolver{
		config:    config,
		resources: resources,
		logger:    logger,
	}
}

// ResolveAutoIncludes implements AutoIncludeResolver
func (r *ConfigAutoIncludeResolver) ResolveAutoIncludes() ([]SourceFragment, error) {
	packages := r.config.Enabled()
	fragments := make([]SourceFragment, 0, len(packages))
	for _, pkg := range packages {
		fragment, err := r.resources.Fragment(ResourceURI(pkg, ResourceRootFusion))
		if err != nil {
			return nil, err
		}
		r.logger.Debug(LogMsgAutoIncludeAdded, zap.String(LogFieldPackage, pkg))
		fragments = append(fragments, fragment)
	}
	return fragments, nil
}
