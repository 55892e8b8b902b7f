package internal

import (
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// Fusion output constants used by the transpiler
const (
	FusionIndent          = "    "
	FusionTagPrototype    = "Neos.Fusion:Tag"
	FusionJoinPrototype   = "Neos.Fusion:Join"
	FusionEmptyString     = "''"
	FusionTrue            = "true"
	FusionEelOpen         = "${"
	FusionEelClose        = "}"
	FusionPropTagName     = "tagName"
	FusionPropSelfClosing = "selfClosingTag"
	FusionPropContent     = "content"
	FusionPropAttributes  = "attributes"
	FusionApplyPrefix     = "@apply.spread_"
	FusionItemPrefix      = "item_"
)

var (
	plainSegmentPattern  = regexp.MustCompile(`^[A-Za-z0-9_\-]+$`)
	objectPathPattern    = regexp.MustCompile(`^@?[A-Za-z0-9_\-]+(\.@?[A-Za-z0-9_\-]+)*$`)
	leadingNewlineSpace  = regexp.MustCompile(`^\s*\n\s*`)
	trailingNewlineSpace = regexp.MustCompile(`\s*\n\s*$`)
)

// AFXTranspiler converts parsed markup into Fusion source text
type AFXTranspiler struct {
	logger  *zap.Logger
	spreads int
}

// NewAFXTranspiler creates a transpiler
func NewAFXTranspiler(logger *zap.Logger) *AFXTranspiler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AFXTranspiler{logger: logger}
}

// Transpile converts markup into a Fusion value expression.
// The result can be assigned to any Fusion path, e.g. "html = <result>".
func (t *AFXTranspiler) Transpile(markup string) (string, error) {
	nodes, err := ParseAFX(markup, t.logger)
	if err != nil {
		return "", err
	}

	t.spreads = 0
	fusion, ok, err := t.childrenToFusion(nodes, "")
	if err != nil {
		return "", err
	}
	if !ok {
		fusion = FusionEmptyString
	}

	t.logger.Debug(LogMsgAFXTranspiled, zap.Int(LogFieldSource, len(markup)), zap.Int(LogFieldOutputLength, len(fusion)))
	return fusion, nil
}

// childrenToFusion renders a list of sibling nodes as one Fusion value.
// Returns false when nothing remains after whitespace handling.
func (t *AFXTranspiler) childrenToFusion(children []*AFXNode, indent string) (string, bool, error) {
	prepared := prepareChildren(children)
	switch len(prepared) {
	case 0:
		return "", false, nil
	case 1:
		value, err := t.nodeToFusion(prepared[0], indent)
		return value, err == nil, err
	}

	inner := indent + FusionIndent
	var sb strings.Builder
	sb.WriteString(FusionJoinPrototype + " {\n")
	for i, child := range prepared {
		value, err := t.nodeToFusion(child, inner)
		if err != nil {
			return "", false, err
		}
		key := FusionItemPrefix + strconv.Itoa(i+1)
		if child.Kind == AFXNodeElement {
			if attr, ok := child.Attribute(AFXMetaKey); ok && attr.Kind == AFXAttrString && attr.Value != "" {
				key = fusionPathSegment(attr.Value)
			}
		}
		writeFusionLine(&sb, inner, key+" = "+value)
	}
	sb.WriteString(indent + "}")
	return sb.String(), true, nil
}

// nodeToFusion renders a single node as a Fusion value
func (t *AFXTranspiler) nodeToFusion(node *AFXNode, indent string) (string, error) {
	switch node.Kind {
	case AFXNodeText:
		return FusionStringLiteral(node.Text), nil
	case AFXNodeExpression:
		return FusionEelOpen + node.Text + FusionEelClose, nil
	default:
		return t.elementToFusion(node, indent)
	}
}

// elementToFusion renders an element as either a Tag or a Fusion object
func (t *AFXTranspiler) elementToFusion(node *AFXNode, indent string) (string, error) {
	inner := indent + FusionIndent
	isObject := node.IsFusionObject()

	var sb strings.Builder
	childrenPath := FusionPropContent
	if isObject {
		sb.WriteString(node.Name + " {\n")
	} else {
		sb.WriteString(FusionTagPrototype + " {\n")
		writeFusionLine(&sb, inner, FusionPropTagName+" = "+FusionStringLiteral(node.Name))
		if node.SelfClosing {
			writeFusionLine(&sb, inner, FusionPropSelfClosing+" = "+FusionTrue)
		}
	}

	for _, attr := range node.Attributes {
		switch {
		case attr.Name == AFXMetaKey || attr.Name == AFXMetaPath:
			continue
		case attr.Name == AFXMetaChildren:
			if attr.Kind != AFXAttrString || !objectPathPattern.MatchString(attr.Value) {
				return "", NewAFXError(ErrMsgAFXInvalidAttribute, attr.Name, attr.Pos)
			}
			childrenPath = attr.Value
			continue
		}

		value, err := attributeValue(attr)
		if err != nil {
			return "", err
		}

		switch {
		case attr.Kind == AFXAttrSpread:
			t.spreads++
			path := FusionApplyPrefix + strconv.Itoa(t.spreads)
			if !isObject {
				path = FusionPropAttributes + "." + path
			}
			writeFusionLine(&sb, inner, path+" = "+value)
		case attr.IsMeta():
			if !objectPathPattern.MatchString(attr.Name) {
				return "", NewAFXError(ErrMsgAFXInvalidAttribute, attr.Name, attr.Pos)
			}
			writeFusionLine(&sb, inner, attr.Name+" = "+value)
		case isObject:
			path := attr.Name
			if !objectPathPattern.MatchString(path) {
				path = fusionPathSegment(path)
			}
			writeFusionLine(&sb, inner, path+" = "+value)
		default:
			writeFusionLine(&sb, inner, FusionPropAttributes+"."+fusionPathSegment(attr.Name)+" = "+value)
		}
	}

	var content []*AFXNode
	for _, child := range node.Children {
		if child.Kind == AFXNodeElement {
			if attr, ok := child.Attribute(AFXMetaPath); ok {
				if attr.Kind != AFXAttrString || !objectPathPattern.MatchString(attr.Value) {
					return "", NewAFXError(ErrMsgAFXInvalidAttribute, AFXMetaPath, attr.Pos)
				}
				value, err := t.elementToFusion(child, inner)
				if err != nil {
					return "", err
				}
				writeFusionLine(&sb, inner, attr.Value+" = "+value)
				continue
			}
		}
		content = append(content, child)
	}

	value, ok, err := t.childrenToFusion(content, inner)
	if err != nil {
		return "", err
	}
	if ok {
		writeFusionLine(&sb, inner, childrenPath+" = "+value)
	}

	sb.WriteString(indent + "}")
	return sb.String(), nil
}

// attributeValue renders an attribute value as a Fusion value
func attributeValue(attr AFXAttribute) (string, error) {
	switch attr.Kind {
	case AFXAttrString:
		return FusionStringLiteral(attr.Value), nil
	case AFXAttrBoolean:
		return FusionTrue, nil
	default:
		if strings.TrimSpace(attr.Value) == StringValueEmpty {
			return "", NewAFXError(ErrMsgAFXEmptyExpression, attr.Name, attr.Pos)
		}
		return FusionEelOpen + attr.Value + FusionEelClose, nil
	}
}

// prepareChildren applies the whitespace rules and drops empty nodes.
// Whitespace runs containing a newline at the start or end of a text are removed.
func prepareChildren(children []*AFXNode) []*AFXNode {
	prepared := make([]*AFXNode, 0, len(children))
	for _, child := range children {
		switch child.Kind {
		case AFXNodeText:
			text := leadingNewlineSpace.ReplaceAllString(child.Text, "")
			text = trailingNewlineSpace.ReplaceAllString(text, "")
			if text == StringValueEmpty {
				continue
			}
			prepared = append(prepared, &AFXNode{Kind: AFXNodeText, Text: text, Pos: child.Pos})
		case AFXNodeExpression:
			if strings.TrimSpace(child.Text) == StringValueEmpty {
				continue
			}
			prepared = append(prepared, child)
		default:
			prepared = append(prepared, child)
		}
	}
	return prepared
}

// FusionStringLiteral quotes s as a single-quoted Fusion string
func FusionStringLiteral(s string) string {
	var sb strings.Builder
	sb.Grow(len(s) + 2)
	sb.WriteByte(CharSingleQuote)
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if ch == CharSingleQuote || ch == CharBackslash {
			sb.WriteByte(CharBackslash)
		}
		sb.WriteByte(ch)
	}
	sb.WriteByte(CharSingleQuote)
	return sb.String()
}

// fusionPathSegment returns name as a path segment, quoting it when needed
func fusionPathSegment(name string) string {
	if plainSegmentPattern.MatchString(name) {
		return name
	}
	return FusionStringLiteral(name)
}

func writeFusionLine(sb *strings.Builder, indent, line string) {
	sb.WriteString(indent)
	sb.WriteString(line)
	sb.WriteByte(CharNewline)
}

// TranspileAFX is a convenience function that converts markup to Fusion source
func TranspileAFX(markup string, logger *zap.Logger) (string, error) {
	return NewAFXTranspiler(logger).Transpile(markup)
}
