package contentbox

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/go-contentbox/contentbox/internal"
	"github.com/itsatony/go-cuserr"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

var (
	nodeTypeNamePattern     = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9.]*:[A-Za-z][A-Za-z0-9.]*$`)
	nodePropertyNamePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]*$`)
)

// PrototypeGenerator is the options.fusion.prototypeGenerator setting.
// It is either a flag or the name of the prototype to inherit from.
type PrototypeGenerator struct {
	Enabled       bool
	BasePrototype string
}

// UnmarshalYAML accepts a bool, null or a prototype name
func (g *PrototypeGenerator) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("prototypeGenerator must be a scalar, got %s", value.Tag)
	}
	switch value.Tag {
	case "!!null":
		*g = PrototypeGenerator{}
	case "!!bool":
		var enabled bool
		if err := value.Decode(&enabled); err != nil {
			return err
		}
		*g = PrototypeGenerator{Enabled: enabled}
	default:
		*g = PrototypeGenerator{Enabled: value.Value != "", BasePrototype: value.Value}
	}
	return nil
}

// NodeTypeProperty declares one property of a node type
type NodeTypeProperty struct {
	Type         string `yaml:"type"`
	DefaultValue any    `yaml:"defaultValue"`
}

// NodeTypeDefinition is one entry of a NodeTypes.yaml file
type NodeTypeDefinition struct {
	SuperTypes map[string]bool              `yaml:"superTypes"`
	Abstract   bool                         `yaml:"abstract"`
	Properties map[string]*NodeTypeProperty `yaml:"properties"`
	Options    struct {
		Fusion struct {
			PrototypeGenerator PrototypeGenerator `yaml:"prototypeGenerator"`
		} `yaml:"fusion"`
	} `yaml:"options"`
}

// NodeTypeRegistry holds node type definitions and generates Fusion
// prototypes for the ones that request it.
type NodeTypeRegistry struct {
	types         map[string]*NodeTypeDefinition
	basePrototype string
	logger        *zap.Logger
	mu            sync.RWMutex
}

// NewNodeTypeRegistry creates an empty registry. Generated prototypes
// inherit from basePrototype unless a super type is generated as well;
// empty means Neos.Fusion:Component.
func NewNodeTypeRegistry(basePrototype string, logger *zap.Logger) *NodeTypeRegistry {
	if basePrototype == "" {
		basePrototype = DefaultBasePrototype
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NodeTypeRegistry{
		types:         make(map[string]*NodeTypeDefinition),
		basePrototype: basePrototype,
		logger:        logger,
	}
}

// Load merges the node types of a NodeTypes.yaml document.
// Later definitions of a name replace earlier ones.
func (r *NodeTypeRegistry) Load(data []byte) error {
	var definitions map[string]*NodeTypeDefinition
	if err := yaml.Unmarshal(data, &definitions); err != nil {
		return NewConfigError(ErrMsgNodeTypesInvalid, err)
	}

	for name := range definitions {
		if !nodeTypeNamePattern.MatchString(name) {
			return cuserr.NewValidationError(ErrCodeConfig, ErrMsgNodeTypeInvalidName).
				WithMetadata(MetaKeyNodeType, name)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for name, definition := range definitions {
		if definition == nil {
			definition = &NodeTypeDefinition{}
		}
		r.types[name] = definition
	}

	r.logger.Debug(LogMsgNodeTypesLoaded, zap.Int(LogFieldCount, len(definitions)))
	return nil
}

// LoadFile reads and merges a NodeTypes.yaml file
func (r *NodeTypeRegistry) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return NewConfigError(ErrMsgNodeTypesInvalid, err)
	}
	return r.Load(data)
}

// Get returns the definition of a node type
func (r *NodeTypeRegistry) Get(name string) (*NodeTypeDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	definition, ok := r.types[name]
	return definition, ok
}

// Names returns all node type names in sorted order
func (r *NodeTypeRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sortedNames()
}

func (r *NodeTypeRegistry) sortedNames() []string {
	names := make([]string, 0, len(r.types))
	for name := range r.types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GenerateTypeDefinitions implements TypeDefinitionGenerator. Every
// non-abstract node type with an enabled prototype generator gets a
// prototype mapping its properties to ${Node.property(node, 'name')}.
func (r *NodeTypeRegistry) GenerateTypeDefinitions() (SourceFragment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var sb strings.Builder
	for _, name := range r.sortedNames() {
		definition := r.types[name]
		if !r.generates(definition) {
			continue
		}

		fmt.Fprintf(&sb, generatedPrototypeFormat, name, r.parentPrototype(definition))
		for _, property := range sortedPropertyNames(definition) {
			expr := fmt.Sprintf(nodePropertyExprFormat, internal.FusionStringLiteral(property))
			fmt.Fprintf(&sb, generatedPropertyFormat, property, expr)
		}
		sb.WriteString(generatedPrototypeClosing)

		r.logger.Debug(LogMsgPrototypeGenerated, zap.String(LogFieldNodeType, name))
	}
	return NewGeneratedFragment(OriginNodeTypes, sb.String()), nil
}

func (r *NodeTypeRegistry) generates(definition *NodeTypeDefinition) bool {
	return !definition.Abstract && definition.Options.Fusion.PrototypeGenerator.Enabled
}

// parentPrototype picks the first generated super type in name order,
// then the configured base of the generator, then the registry base.
func (r *NodeTypeRegistry) parentPrototype(definition *NodeTypeDefinition) string {
	superTypes := make([]string, 0, len(definition.SuperTypes))
	for name, enabled := range definition.SuperTypes {
		if enabled {
			superTypes = append(superTypes, name)
		}
	}
	sort.Strings(superTypes)
	for _, name := range superTypes {
		if super, ok := r.types[name]; ok && r.generates(super) {
			return name
		}
	}
	if base := definition.Options.Fusion.PrototypeGenerator.BasePrototype; base != "" {
		return base
	}
	return r.basePrototype
}

// sortedPropertyNames skips internal (underscore) and non-identifier names
func sortedPropertyNames(definition *NodeTypeDefinition) []string {
	names := make([]string, 0, len(definition.Properties))
	for name := range definition.Properties {
		if nodePropertyNamePattern.MatchString(name) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
