package contentbox

import (
	"strings"

	"gopkg.in/yaml.v3"
)

// ParamsDecoder turns serialized render parameters into the props mapping
type ParamsDecoder interface {
	Decode(serialized *string) (map[string]any, error)
}

// ParamsDecoderFunc adapts a function to ParamsDecoder
type ParamsDecoderFunc func(serialized *string) (map[string]any, error)

// Decode implements ParamsDecoder
func (f ParamsDecoderFunc) Decode(serialized *string) (map[string]any, error) {
	return f(serialized)
}

// YAMLParamsDecoder decodes props written as a YAML mapping
type YAMLParamsDecoder struct{}

// Decode returns an empty mapping for absent or blank input.
// Any document that is not a mapping is an error.
func (YAMLParamsDecoder) Decode(serialized *string) (map[string]any, error) {
	if serialized == nil || strings.TrimSpace(*serialized) == "" {
		return map[string]any{}, nil
	}

	var node yaml.Node
	if err := yaml.Unmarshal([]byte(*serialized), &node); err != nil {
		return nil, NewPropsError(ErrMsgPropsInvalid, err)
	}
	if len(node.Content) == 0 {
		return map[string]any{}, nil
	}

	root := node.Content[0]
	if root.Kind == yaml.ScalarNode && root.Tag == "!!null" {
		return map[string]any{}, nil
	}
	if root.Kind != yaml.MappingNode {
		return nil, NewPropsError(ErrMsgPropsNotMapping, nil)
	}

	props := map[string]any{}
	if err := root.Decode(&props); err != nil {
		return nil, NewPropsError(ErrMsgPropsInvalid, err)
	}
	return props, nil
}
