package scyjava

import (
	"strings"
	"testing"
)

func memberGateway() func(msg map[string]interface{}) []map[string]interface{} {
	return func(msg map[string]interface{}) []map[string]interface{} {
		id, _ := msg["request_id"].(string)
		data, _ := msg["data"].(map[string]interface{})
		reply := func(result interface{}) []map[string]interface{} {
			return []map[string]interface{}{{"request_id": id, "result": result}}
		}

		switch msg["command"] {
		case "import":
			return reply(map[string]interface{}{
				"cls": data["name"], "primitive": false, "interface": false,
			})
		case "methods":
			return reply([]interface{}{
				map[string]interface{}{
					"type": "method", "name": "parseInt",
					"mods":     []interface{}{"public", "static"},
					"params":   []interface{}{"java.lang.String"},
					"returns":  "int",
					"declared": "java.lang.Integer",
				},
			})
		case "fields":
			return reply([]interface{}{
				map[string]interface{}{
					"type": "field", "name": "MAX_VALUE",
					"mods":     []interface{}{"public", "static", "final"},
					"returns":  "int",
					"declared": "java.lang.Integer",
				},
			})
		case "constructors":
			return reply([]interface{}{})
		case "source":
			cls, _ := data["cls"].(string)
			if strings.HasPrefix(cls, "java.") {
				return reply("jrt:/java.base")
			}
			return reply("file:/opt/jars/scijava-common.jar")
		}
		return reply("ok")
	}
}

func TestReflect(t *testing.T) {
	withFakeJVM(t, memberGateway())
	if err := Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer Shutdown()

	methods, err := Methods("java.lang.Integer")
	if err != nil {
		t.Fatalf("Methods failed: %v", err)
	}
	if len(methods) != 1 {
		t.Fatalf("Expected 1 method, got %d", len(methods))
	}
	m := methods[0]
	if m.Name != "parseInt" || m.Returns != "int" {
		t.Errorf("Unexpected method: %+v", m)
	}
	if len(m.Mods) != 2 || m.Mods[1] != "static" {
		t.Errorf("Unexpected modifiers: %v", m.Mods)
	}
	if len(m.Arguments) != 1 || m.Arguments[0] != "java.lang.String" {
		t.Errorf("Unexpected arguments: %v", m.Arguments)
	}

	fields, err := Fields("java.lang.Integer")
	if err != nil {
		t.Fatalf("Fields failed: %v", err)
	}
	if len(fields) != 1 || fields[0].Name != "MAX_VALUE" {
		t.Errorf("Unexpected fields: %+v", fields)
	}
	// Fields carry no argument list.
	if fields[0].Arguments != nil {
		t.Errorf("Expected nil arguments for a field, got %v", fields[0].Arguments)
	}

	all, err := Reflect("java.lang.Integer", "all")
	if err != nil {
		t.Fatalf("Reflect all failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("Expected 2 members for aspect 'all', got %d", len(all))
	}

	if _, err := Reflect("java.lang.Integer", "everything"); err == nil {
		t.Error("Expected error for invalid aspect")
	}
	if _, err := Reflect(42, "methods"); err == nil {
		t.Error("Expected error for a non-Java target")
	}
}

func TestMemberTable(t *testing.T) {
	members := []Member{
		{Type: "method", Name: "valueOf", Mods: []string{"public", "static"},
			Arguments: []string{"java.lang.String"}, Returns: "java.lang.Integer"},
		{Type: "field", Name: "MAX_VALUE", Mods: []string{"public", "static", "final"},
			Returns: "int"},
	}
	table := MemberTable(members)

	lines := strings.Split(strings.TrimRight(table, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected 2 lines, got %d", len(lines))
	}
	// Sorted by name: MAX_VALUE before valueOf.
	if !strings.Contains(lines[0], "MAX_VALUE") {
		t.Errorf("Expected MAX_VALUE first, got '%s'", lines[0])
	}
	if !strings.Contains(lines[1], "valueOf(java.lang.String)") {
		t.Errorf("Expected method with argument list, got '%s'", lines[1])
	}
	if !strings.Contains(lines[1], "-> java.lang.Integer") {
		t.Errorf("Expected return type, got '%s'", lines[1])
	}
	// Fields render without parentheses.
	if strings.Contains(lines[0], "()") {
		t.Errorf("Did not expect parentheses on a field, got '%s'", lines[0])
	}
}

func TestJavaSource(t *testing.T) {
	withFakeJVM(t, memberGateway())
	if err := Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer Shutdown()

	url, err := JavaSource("org.scijava.Context")
	if err != nil {
		t.Fatalf("JavaSource failed: %v", err)
	}
	if url != "file:/opt/jars/scijava-common.jar" {
		t.Errorf("Unexpected source URL: '%s'", url)
	}

	// Runtime builtins have no usable code source.
	if _, err := JavaSource("java.lang.Integer"); err == nil {
		t.Error("Expected error for a runtime builtin class")
	}
}

func TestJClassOf(t *testing.T) {
	withFakeJVM(t, memberGateway())
	if err := Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer Shutdown()

	cls, err := JClassOf("java.lang.Integer")
	if err != nil {
		t.Fatalf("JClassOf by name failed: %v", err)
	}
	if cls.Name != "java.lang.Integer" {
		t.Errorf("Expected java.lang.Integer, got %q", cls.Name)
	}

	// A *JClass target comes back unchanged.
	same, err := JClassOf(cls)
	if err != nil {
		t.Fatalf("JClassOf of a class failed: %v", err)
	}
	if same != cls {
		t.Error("Expected the same class handle")
	}

	// A handle resolves through its concrete class.
	gateway, _ := ActiveGateway()
	obj := &JObject{gateway: gateway, ID: 1, Class: "java.lang.Integer"}
	fromObj, err := JClassOf(obj)
	if err != nil {
		t.Fatalf("JClassOf of an object failed: %v", err)
	}
	if fromObj != cls {
		t.Error("Expected the memoized class handle")
	}

	if _, err := JClassOf(42); err == nil {
		t.Error("Expected error for a non-Java target")
	}
}
