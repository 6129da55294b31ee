package score

import (
	"errors"
	"fmt"
	"strings"
)

// Component is a PC hardware component type.
type Component string

const (
	CPU         Component = "cpu"
	Motherboard Component = "motherboard"
	Cooler      Component = "cooler"
	GPU         Component = "gpu"
	Case        Component = "case"
	PSU         Component = "psu"
	Memory      Component = "memory"

	// All selects every component.
	All = "all"
)

var (
	// ErrUnknownComponent is returned for a component name with no scorer.
	ErrUnknownComponent = errors.New("unknown component")

	// Components lists every component in scoring order.
	Components = []Component{CPU, Motherboard, Cooler, GPU, Case, PSU, Memory}

	componentAliases = map[string]Component{
		"mobo":         Motherboard,
		"cpucooler":    Cooler,
		"cpu-cooler":   Cooler,
		"video-card":   GPU,
		"videocard":    GPU,
		"ram":          Memory,
		"power-supply": PSU,
	}
)

func (c Component) String() string {
	return string(c)
}

// ParseComponent resolves a component name, case-insensitively.
func ParseComponent(s string) (Component, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for _, c := range Components {
		if string(c) == name {
			return c, nil
		}
	}
	if c, ok := componentAliases[name]; ok {
		return c, nil
	}
	return "", fmt.Errorf("%w: %q (permitted options: %s, %s)", ErrUnknownComponent, s, ComponentNames(), All)
}

// ParseSelector resolves a component name or "all" into the components to
// score, in scoring order.
func ParseSelector(s string) ([]Component, error) {
	if strings.EqualFold(strings.TrimSpace(s), All) {
		list := make([]Component, len(Components))
		copy(list, Components)
		return list, nil
	}
	c, err := ParseComponent(s)
	if err != nil {
		return nil, err
	}
	return []Component{c}, nil
}

// ComponentNames returns the comma separated component names.
func ComponentNames() string {
	names := make([]string, len(Components))
	for i, c := range Components {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}
