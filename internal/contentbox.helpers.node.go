package internal

// registerNodeHelpers registers the Node.* helpers used by generated prototypes
func registerNodeHelpers(r *HelperRegistry) {
	// property(node, name) reads a node property; a missing node or property yields null
	r.MustRegister(&Helper{
		Name:    HelperNodeProperty,
		MinArgs: 2,
		MaxArgs: 2,
		Fn: func(args []any) (any, error) {
			name, ok := toString(args[ArgIndexSecond])
			if !ok {
				return nil, NewHelperTypeError(ErrMsgHelperExpectedString, HelperNodeProperty, ArgIndexSecond)
			}
			if node, ok := args[ArgIndexFirst].(NodePropertyReader); ok {
				value, _ := node.Property(name)
				return value, nil
			}
			value, _, err := Traverse(args[ArgIndexFirst], name)
			return value, err
		},
	})
}

// NodePropertyReader is implemented by content nodes exposing typed properties
type NodePropertyReader interface {
	Property(name string) (any, bool)
}
