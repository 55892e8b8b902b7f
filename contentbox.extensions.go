package contentbox

import (
	"github.com/go-contentbox/contentbox/internal"
)

// FusionObject is the view of an evaluated Fusion object handed to custom
// implementations. Properties are evaluated lazily on access.
type FusionObject interface {
	// Type returns the prototype name of the object
	Type() string
	// Path returns the evaluation path of the object
	Path() string
	Property(name string) (any, error)
	StringProperty(name string) (string, error)
	HasProperty(name string) bool
}

// ImplementationFunc evaluates objects whose prototype declares its
// @class. The returned value becomes the value of the object.
type ImplementationFunc func(object FusionObject) (any, error)

// Helper is a function callable from Eel expressions under a dotted name
// such as Vendor.slugify.
type Helper struct {
	Name    string
	MinArgs int
	MaxArgs int // -1 for variadic
	Fn      func(args []any) (any, error)
}

func (h *Helper) toInternal() *internal.Helper {
	return &internal.Helper{
		Name:    h.Name,
		MinArgs: h.MinArgs,
		MaxArgs: h.MaxArgs,
		Fn:      h.Fn,
	}
}

func (fn ImplementationFunc) toInternal() internal.Implementation {
	return internal.ImplementationFunc(func(object *internal.FusionObject) (any, error) {
		return fn(object)
	})
}
