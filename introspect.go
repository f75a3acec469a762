package scyjava

import (
	"fmt"
	"sort"
	"strings"
)

// Member describes one reflected member of a Java class.
type Member struct {
	// Type is "constructor", "field", or "method".
	Type string

	// Name is the member name.
	Name string

	// Mods lists the member's modifiers ("public", "static", ...).
	Mods []string

	// Arguments lists parameter type names; nil for fields.
	Arguments []string

	// Returns is the return type for methods, the field type for fields,
	// and the class name for constructors.
	Returns string

	// Declared is the class that declares the member.
	Declared string
}

// Reflect introspects a Java class, returning a table of its members.
//
// The target may be a *JClass, a *JObject (its concrete class is used), or
// a fully qualified class name. Aspect is one of "all", "constructors",
// "fields", or "methods".
func Reflect(target interface{}, aspect string) ([]Member, error) {
	switch aspect {
	case "all", "constructors", "fields", "methods":
	default:
		return nil, fmt.Errorf(`aspect must be one of "all", "constructors", "fields", "methods"; got %q`, aspect)
	}

	cls, err := classOf(target)
	if err != nil {
		return nil, err
	}

	var members []Member
	if aspect == "all" || aspect == "constructors" {
		batch, err := fetchMembers(cls, "constructors")
		if err != nil {
			return nil, err
		}
		members = append(members, batch...)
	}
	if aspect == "all" || aspect == "fields" {
		batch, err := fetchMembers(cls, "fields")
		if err != nil {
			return nil, err
		}
		members = append(members, batch...)
	}
	if aspect == "all" || aspect == "methods" {
		batch, err := fetchMembers(cls, "methods")
		if err != nil {
			return nil, err
		}
		members = append(members, batch...)
	}
	return members, nil
}

// JClassOf resolves the target to its Java class. The target may be a
// *JClass (returned as is), a *JObject or collection view (its concrete
// class), or a fully qualified class name.
func JClassOf(target interface{}) (*JClass, error) {
	return classOf(target)
}

// classOf resolves the target to a JClass.
func classOf(target interface{}) (*JClass, error) {
	switch v := target.(type) {
	case *JClass:
		return v, nil
	case *JObject:
		return Import(v.Class)
	case string:
		return Import(v)
	default:
		if o := jObjectOf(target); o != nil {
			return Import(o.Class)
		}
		return nil, fmt.Errorf("object of type %T is not a Java object", target)
	}
}

func fetchMembers(cls *JClass, command string) ([]Member, error) {
	result, err := cls.gateway.Call(command, 0, map[string]interface{}{"cls": cls.Name})
	if err != nil {
		return nil, err
	}
	rows, ok := result.([]interface{})
	if !ok {
		return nil, fmt.Errorf("unexpected %s result: %T", command, result)
	}

	members := make([]Member, 0, len(rows))
	for _, row := range rows {
		info, ok := row.(map[string]interface{})
		if !ok {
			continue
		}
		m := Member{}
		m.Type, _ = info["type"].(string)
		m.Name, _ = info["name"].(string)
		m.Returns, _ = info["returns"].(string)
		m.Declared, _ = info["declared"].(string)
		if mods, ok := info["mods"].([]interface{}); ok {
			for _, mod := range mods {
				if s, ok := mod.(string); ok {
					m.Mods = append(m.Mods, s)
				}
			}
		}
		if params, ok := info["params"].([]interface{}); ok {
			m.Arguments = make([]string, 0, len(params))
			for _, p := range params {
				if s, ok := p.(string); ok {
					m.Arguments = append(m.Arguments, s)
				}
			}
		}
		members = append(members, m)
	}
	return members, nil
}

// Methods returns the public methods of the target's class.
func Methods(target interface{}) ([]Member, error) {
	return Reflect(target, "methods")
}

// Fields returns the public fields of the target's class.
func Fields(target interface{}) ([]Member, error) {
	return Reflect(target, "fields")
}

// Constructors returns the public constructors of the target's class.
func Constructors(target interface{}) ([]Member, error) {
	return Reflect(target, "constructors")
}

// MemberTable renders members as an aligned text table, one member per
// line, sorted by name. Useful for exploring an unfamiliar class.
func MemberTable(members []Member) string {
	sorted := make([]Member, len(members))
	copy(sorted, members)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	var b strings.Builder
	for _, m := range sorted {
		args := ""
		if m.Arguments != nil {
			args = "(" + strings.Join(m.Arguments, ", ") + ")"
		}
		fmt.Fprintf(&b, "%-12s %s %s%s -> %s\n",
			m.Type, strings.Join(m.Mods, " "), m.Name, args, m.Returns)
	}
	return b.String()
}

// JavaSource returns the code location URL of the target's class, typically
// the jar it was loaded from. Classes baked into the Java runtime have no
// code source and produce an error.
func JavaSource(target interface{}) (string, error) {
	cls, err := classOf(target)
	if err != nil {
		return "", err
	}
	result, err := cls.gateway.Call("source", 0, map[string]interface{}{"cls": cls.Name})
	if err != nil {
		return "", err
	}
	if result == nil {
		return "", fmt.Errorf("source location not available for %s", cls.Name)
	}
	url, ok := result.(string)
	if !ok {
		return "", fmt.Errorf("unexpected source result: %v", result)
	}
	if strings.HasPrefix(url, "jrt:") {
		return "", fmt.Errorf("source location not available for runtime builtin %s", cls.Name)
	}
	return url, nil
}
