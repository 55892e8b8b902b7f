package contentbox

import (
	"embed"
	"errors"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/go-contentbox/contentbox/internal"
	"go.uber.org/zap"
)

//go:embed resources
var embeddedResources embed.FS

// ResourceLoader serves resource://<Package>/<path> uris from per-package
// file systems. It also resolves Fusion include statements.
type ResourceLoader struct {
	packages map[string]fs.FS
	logger   *zap.Logger
	mu       sync.RWMutex
}

// NewResourceLoader creates a loader without packages
func NewResourceLoader(logger *zap.Logger) *ResourceLoader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResourceLoader{
		packages: make(map[string]fs.FS),
		logger:   logger,
	}
}

// NewDefaultResourceLoader creates a loader serving the embedded
// Neos.Fusion and ContentBox packages
func NewDefaultResourceLoader(logger *zap.Logger) *ResourceLoader {
	l := NewResourceLoader(logger)
	for _, pkg := range []string{PackageNeosFusion, PackageContentBox} {
		sub, err := fs.Sub(embeddedResources, resourceEmbedRoot+resourcePathSep+pkg)
		if err != nil {
			panic(err)
		}
		l.RegisterPackage(pkg, sub)
	}
	return l
}

// RegisterPackage makes fsys available under resource://<packageKey>/.
// Registering a key again replaces the previous file system.
func (l *ResourceLoader) RegisterPackage(packageKey string, fsys fs.FS) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.packages[packageKey] = fsys
}

// Packages returns the registered package keys in sorted order
func (l *ResourceLoader) Packages() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	keys := make([]string, 0, len(l.packages))
	for key := range l.packages {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// HasPackage reports whether a package is registered
func (l *ResourceLoader) HasPackage(packageKey string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.packages[packageKey]
	return ok
}

// ParseResourceURI splits a resource uri into package key and relative path
func ParseResourceURI(uri string) (packageKey, relPath string, err error) {
	rest, ok := strings.CutPrefix(uri, ResourceScheme)
	if !ok {
		return "", "", NewResourceError(ErrMsgInvalidResourceURI, uri, nil)
	}
	packageKey, relPath, ok = strings.Cut(rest, resourcePathSep)
	if !ok || packageKey == "" || relPath == "" {
		return "", "", NewResourceError(ErrMsgInvalidResourceURI, uri, nil)
	}
	relPath = path.Clean(relPath)
	if !fs.ValidPath(relPath) {
		return "", "", NewResourceError(ErrMsgInvalidResourceURI, uri, nil)
	}
	return packageKey, relPath, nil
}

// ResourceURI builds the uri of a file inside a package
func ResourceURI(packageKey, relPath string) string {
	return ResourceScheme + packageKey + resourcePathSep + relPath
}

func (l *ResourceLoader) packageFS(packageKey, uri string) (fs.FS, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	fsys, ok := l.packages[packageKey]
	if !ok {
		return nil, NewResourceError(ErrMsgUnknownPackage, uri, nil)
	}
	return fsys, nil
}

// Load reads the resource at uri
func (l *ResourceLoader) Load(uri string) (string, error) {
	packageKey, relPath, err := ParseResourceURI(uri)
	if err != nil {
		return "", err
	}
	fsys, err := l.packageFS(packageKey, uri)
	if err != nil {
		return "", err
	}

	data, err := fs.ReadFile(fsys, relPath)
	if err != nil {
		if isNotExist(err) {
			return "", NewResourceNotFoundError(uri)
		}
		return "", NewResourceError(ErrMsgResourceReadFailed, uri, err)
	}

	l.logger.Debug(LogMsgResourceLoaded, zap.String(LogFieldURI, uri))
	return string(data), nil
}

// Fragment loads the resource at uri as a file fragment
func (l *ResourceLoader) Fragment(uri string) (SourceFragment, error) {
	code, err := l.Load(uri)
	if err != nil {
		return SourceFragment{}, err
	}
	return NewFileFragment(uri, code), nil
}

// ResolveInclude expands an include pattern into sources. Relative patterns
// are resolved against the directory of origin. Patterns may use the
// wildcards of path.Match plus a ** segment matching any directory depth.
// Matches are returned in lexical order.
func (l *ResourceLoader) ResolveInclude(origin, pattern string) ([]internal.FusionSource, error) {
	uri, err := l.absoluteInclude(origin, pattern)
	if err != nil {
		return nil, err
	}
	packageKey, relPattern, err := ParseResourceURI(uri)
	if err != nil {
		return nil, err
	}
	fsys, err := l.packageFS(packageKey, uri)
	if err != nil {
		return nil, err
	}

	matches, err := globResources(fsys, relPattern)
	if err != nil {
		return nil, NewResourceError(ErrMsgIncludeInvalid, uri, err)
	}
	if len(matches) == 0 && !hasWildcard(relPattern) {
		return nil, NewResourceNotFoundError(uri)
	}

	sources := make([]internal.FusionSource, 0, len(matches))
	for _, match := range matches {
		matchURI := ResourceURI(packageKey, match)
		code, err := l.Load(matchURI)
		if err != nil {
			return nil, err
		}
		sources = append(sources, internal.FusionSource{Origin: matchURI, Code: code})
	}

	l.logger.Debug(LogMsgIncludeResolved,
		zap.String(LogFieldURI, origin),
		zap.String(LogFieldPattern, pattern),
		zap.Int(LogFieldCount, len(sources)),
	)
	return sources, nil
}

func (l *ResourceLoader) absoluteInclude(origin, pattern string) (string, error) {
	if strings.HasPrefix(pattern, ResourceScheme) {
		return pattern, nil
	}
	if strings.HasPrefix(pattern, resourcePathSep) {
		return "", NewResourceError(ErrMsgIncludeInvalid, pattern, nil)
	}
	packageKey, relPath, err := ParseResourceURI(origin)
	if err != nil {
		return "", NewResourceError(ErrMsgIncludeInvalid, pattern, err)
	}
	return ResourceURI(packageKey, path.Join(path.Dir(relPath), pattern)), nil
}

// globResources matches pattern against the files of fsys
func globResources(fsys fs.FS, pattern string) ([]string, error) {
	base, tail, recursive := strings.Cut(pattern, recursiveGlob+resourcePathSep)
	if !recursive {
		matches, err := fs.Glob(fsys, pattern)
		if err != nil {
			return nil, err
		}
		return onlyFiles(fsys, matches), nil
	}

	base = strings.TrimSuffix(base, resourcePathSep)
	if base == "" {
		base = "."
	}
	if _, err := path.Match(tail, ""); err != nil {
		return nil, err
	}
	tailSegments := strings.Count(tail, resourcePathSep) + 1

	var matches []string
	err := fs.WalkDir(fsys, base, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if isNotExist(err) && p == base {
				return fs.SkipAll
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		segments := strings.Split(p, resourcePathSep)
		if len(segments) < tailSegments {
			return nil
		}
		candidate := strings.Join(segments[len(segments)-tailSegments:], resourcePathSep)
		if ok, _ := path.Match(tail, candidate); ok {
			matches = append(matches, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	return matches, nil
}

func onlyFiles(fsys fs.FS, paths []string) []string {
	files := make([]string, 0, len(paths))
	for _, p := range paths {
		info, err := fs.Stat(fsys, p)
		if err != nil || info.IsDir() {
			continue
		}
		files = append(files, p)
	}
	sort.Strings(files)
	return files
}

func hasWildcard(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[")
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
