package internal

// ValidateFusionConfig checks referential integrity of a parsed configuration:
// every prototype parent and every referenced object type must be defined,
// and prototype inheritance must be acyclic.
func ValidateFusionConfig(config *FusionConfig) error {
	for _, name := range config.PrototypeNames() {
		prototype := config.Prototypes[name]
		if prototype.Parent == StringValueEmpty {
			continue
		}
		if _, ok := config.Prototypes[prototype.Parent]; !ok {
			return NewFusionParseError(prototype.Origin, prototype.Pos, ErrMsgFusionUnknownParent, name+" < "+prototype.Parent)
		}
		if err := checkInheritanceCycle(config, prototype); err != nil {
			return err
		}
	}

	if err := validateObjectTypes(config, config.Root); err != nil {
		return err
	}
	for _, name := range config.PrototypeNames() {
		if err := validateObjectTypes(config, config.Prototypes[name].Node); err != nil {
			return err
		}
	}
	return nil
}

func checkInheritanceCycle(config *FusionConfig, start *FusionPrototype) error {
	seen := map[string]bool{start.Name: true}
	for current := start; current.Parent != StringValueEmpty; {
		if seen[current.Parent] {
			return NewFusionParseError(start.Origin, start.Pos, ErrMsgFusionInheritanceCycle, start.Name)
		}
		seen[current.Parent] = true
		next, ok := config.Prototypes[current.Parent]
		if !ok {
			return nil
		}
		current = next
	}
	return nil
}

func validateObjectTypes(config *FusionConfig, node *FusionNode) error {
	if node == nil || node.Removed {
		return nil
	}
	if node.ObjectType != StringValueEmpty {
		if _, ok := config.Prototypes[node.ObjectType]; !ok {
			return NewFusionParseError(node.Origin, node.Pos, ErrMsgFusionUnknownType, node.ObjectType)
		}
	}
	for _, key := range node.Keys {
		if err := validateObjectTypes(config, node.Children[key]); err != nil {
			return err
		}
	}
	return nil
}
