package contentbox

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"github.com/go-contentbox/contentbox/internal"
	"go.uber.org/zap"
)

// FragmentKind tells where a source fragment came from
type FragmentKind int

// Fragment kinds
const (
	FragmentFile FragmentKind = iota
	FragmentInline
	FragmentGenerated
)

// String returns the kind name used in fragment identities
func (k FragmentKind) String() string {
	switch k {
	case FragmentFile:
		return "file"
	case FragmentInline:
		return "inline"
	case FragmentGenerated:
		return "generated"
	default:
		return "unknown"
	}
}

const fragmentHashBytes = 12

// SourceFragment is an immutable piece of Fusion source.
// File fragments are identified by their path, inline and generated
// fragments by their origin and a hash of their code.
type SourceFragment struct {
	kind     FragmentKind
	origin   string
	code     string
	identity string
}

// NewFileFragment creates a fragment read from path (usually a resource:// uri)
func NewFileFragment(path, code string) SourceFragment {
	return SourceFragment{
		kind:     FragmentFile,
		origin:   path,
		code:     code,
		identity: FragmentFile.String() + ":" + path,
	}
}

// NewInlineFragment creates a fragment from a string, e.g. a transpiled template
func NewInlineFragment(origin, code string) SourceFragment {
	return newHashedFragment(FragmentInline, origin, code)
}

// NewGeneratedFragment creates a fragment produced by a generator
func NewGeneratedFragment(origin, code string) SourceFragment {
	return newHashedFragment(FragmentGenerated, origin, code)
}

func newHashedFragment(kind FragmentKind, origin, code string) SourceFragment {
	hash := sha256.Sum256([]byte(code))
	return SourceFragment{
		kind:     kind,
		origin:   origin,
		code:     code,
		identity: kind.String() + ":" + origin + ":" + hex.EncodeToString(hash[:fragmentHashBytes]),
	}
}

// Kind returns the fragment kind
func (f SourceFragment) Kind() FragmentKind { return f.kind }

// Origin returns the path or label of the fragment
func (f SourceFragment) Origin() string { return f.origin }

// Code returns the Fusion source
func (f SourceFragment) Code() string { return f.code }

// Identity returns the key the fragment is de-duplicated by
func (f SourceFragment) Identity() string { return f.identity }

// IsZero reports whether the fragment was never initialized
func (f SourceFragment) IsZero() bool { return f.identity == "" }

// FragmentCollection is an ordered set of fragments. Later fragments take
// precedence over earlier ones when parsed. Collections are never modified
// after creation.
type FragmentCollection struct {
	fragments []SourceFragment
	index     map[string]int
}

// NewFragmentCollection creates a collection; repeated identities keep their first position
func NewFragmentCollection(fragments ...SourceFragment) *FragmentCollection {
	c := &FragmentCollection{index: make(map[string]int, len(fragments))}
	for _, fragment := range fragments {
		c.add(fragment)
	}
	return c
}

// EmptyFragments returns an empty collection
func EmptyFragments() *FragmentCollection {
	return NewFragmentCollection()
}

func (c *FragmentCollection) add(fragment SourceFragment) {
	if fragment.IsZero() {
		return
	}
	if _, exists := c.index[fragment.identity]; exists {
		return
	}
	c.index[fragment.identity] = len(c.fragments)
	c.fragments = append(c.fragments, fragment)
}

// Union returns a new collection holding c followed by the fragments of
// other not already present. Both inputs stay unchanged.
//
// A fragment whose identity is already in c keeps its first position, so
// adding the same file again never raises its precedence.
func (c *FragmentCollection) Union(other *FragmentCollection) *FragmentCollection {
	result := NewFragmentCollection(c.Fragments()...)
	for _, fragment := range other.Fragments() {
		result.add(fragment)
	}
	return result
}

// With returns a new collection with fragments appended
func (c *FragmentCollection) With(fragments ...SourceFragment) *FragmentCollection {
	return c.Union(NewFragmentCollection(fragments...))
}

// Len returns the number of fragments
func (c *FragmentCollection) Len() int {
	if c == nil {
		return 0
	}
	return len(c.fragments)
}

// Contains reports whether a fragment with the identity is present
func (c *FragmentCollection) Contains(identity string) bool {
	if c == nil {
		return false
	}
	_, ok := c.index[identity]
	return ok
}

// Fragments returns a copy of the fragments in precedence order
func (c *FragmentCollection) Fragments() []SourceFragment {
	if c == nil {
		return nil
	}
	result := make([]SourceFragment, len(c.fragments))
	copy(result, c.fragments)
	return result
}

// Sources converts the collection into parser input
func (c *FragmentCollection) Sources() []internal.FusionSource {
	fragments := c.Fragments()
	sources := make([]internal.FusionSource, len(fragments))
	for i, fragment := range fragments {
		sources[i] = internal.FusionSource{Origin: fragment.origin, Code: fragment.code}
	}
	return sources
}

// TypeDefinitionGenerator produces Fusion prototypes for host node types
type TypeDefinitionGenerator interface {
	GenerateTypeDefinitions() (SourceFragment, error)
}

// AutoIncludeResolver lists the fragments the host configuration includes automatically
type AutoIncludeResolver interface {
	ResolveAutoIncludes() ([]SourceFragment, error)
}

// FragmentFactoryConfig holds the collaborators of a FragmentFactory.
// Nil collaborators contribute nothing, except Resources which defaults
// to the embedded packages.
type FragmentFactoryConfig struct {
	Sites           SiteRepository
	TypeDefinitions TypeDefinitionGenerator
	AutoIncludes    AutoIncludeResolver
	Resources       *ResourceLoader
	Logger          *zap.Logger
}

// FragmentFactory assembles the fragment collection of a render
type FragmentFactory struct {
	sites     SiteRepository
	types     TypeDefinitionGenerator
	includes  AutoIncludeResolver
	resources *ResourceLoader
	logger    *zap.Logger
}

// NewFragmentFactory creates a factory from its collaborators
func NewFragmentFactory(config FragmentFactoryConfig) *FragmentFactory {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	resources := config.Resources
	if resources == nil {
		resources = NewDefaultResourceLoader(logger)
	}
	return &FragmentFactory{
		sites:     config.Sites,
		types:     config.TypeDefinitions,
		includes:  config.AutoIncludes,
		resources: resources,
		logger:    logger,
	}
}

// Resources returns the resource loader used for file fragments and includes
func (f *FragmentFactory) Resources() *ResourceLoader {
	return f.resources
}

// Assemble builds the fragments of a render in precedence order: site root,
// node type definitions, auto-includes, built-in root definitions and
// finally the template assigned to the entry path.
func (f *FragmentFactory) Assemble(ctx context.Context, site any, templateFusion string) (*FragmentCollection, error) {
	siteFragments, err := f.FromSite(ctx, site)
	if err != nil {
		return nil, err
	}
	typeFragments, err := f.FromNodeTypeDefinitions()
	if err != nil {
		return nil, err
	}
	includeFragments, err := f.FromAutoIncludes()
	if err != nil {
		return nil, err
	}
	rootFragments, err := f.FromResource(ContentBoxRootURI)
	if err != nil {
		return nil, err
	}

	collection := siteFragments.
		Union(typeFragments).
		Union(includeFragments).
		Union(rootFragments).
		Union(f.FromTemplate(templateFusion))

	f.logger.Debug(LogMsgFragmentsAssembled, zap.Int(LogFieldFragments, collection.Len()))
	return collection, nil
}

// FromSite returns the root definitions of the site named by the binding.
// No binding yields an empty collection; an unknown site is an error.
func (f *FragmentFactory) FromSite(ctx context.Context, site any) (*FragmentCollection, error) {
	nodeName, ok, err := siteNodeName(site)
	if err != nil {
		return nil, err
	}
	if !ok {
		return EmptyFragments(), nil
	}
	if f.sites == nil {
		f.logger.Warn(LogMsgSiteMissing, zap.String(LogFieldSite, nodeName))
		return nil, NewSiteNotFoundError(nodeName)
	}

	found, err := f.sites.FindByNodeName(ctx, nodeName)
	if err != nil {
		f.logger.Warn(LogMsgSiteMissing, zap.String(LogFieldSite, nodeName), zap.Error(err))
		return nil, err
	}
	f.logger.Debug(LogMsgSiteResolved, zap.String(LogFieldSite, nodeName))
	return f.FromResource(found.RootFusionURI())
}

// FromNodeTypeDefinitions returns the generated node type prototypes
func (f *FragmentFactory) FromNodeTypeDefinitions() (*FragmentCollection, error) {
	if f.types == nil {
		return EmptyFragments(), nil
	}
	fragment, err := f.types.GenerateTypeDefinitions()
	if err != nil {
		return nil, err
	}
	return NewFragmentCollection(fragment), nil
}

// FromAutoIncludes returns the automatically included package roots
func (f *FragmentFactory) FromAutoIncludes() (*FragmentCollection, error) {
	if f.includes == nil {
		return EmptyFragments(), nil
	}
	fragments, err := f.includes.ResolveAutoIncludes()
	if err != nil {
		return nil, err
	}
	return NewFragmentCollection(fragments...), nil
}

// FromResource returns the fragment stored at a resource:// uri
func (f *FragmentFactory) FromResource(uri string) (*FragmentCollection, error) {
	fragment, err := f.resources.Fragment(uri)
	if err != nil {
		return nil, err
	}
	return NewFragmentCollection(fragment), nil
}

// FromTemplate returns the transpiled template assigned to the entry path
func (f *FragmentFactory) FromTemplate(templateFusion string) *FragmentCollection {
	return NewFragmentCollection(NewInlineFragment(OriginTemplate, EntryAssignment+templateFusion))
}
