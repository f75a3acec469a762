package scyjava

import (
	"testing"
)

func TestSet(t *testing.T) {
	s := NewSet("a", "b")
	if !s.Contains("a") || !s.Contains("b") {
		t.Error("Expected initial items present")
	}
	if s.Contains("c") {
		t.Error("Did not expect 'c'")
	}
	s.Add("c")
	if !s.Contains("c") {
		t.Error("Expected 'c' after Add")
	}
	if len(s) != 3 {
		t.Errorf("Expected 3 items, got %d", len(s))
	}
}

// listGateway simulates a JVM holding one java.util.List of strings.
// Ref 1 is the list; ref 2 is its current iterator.
func listGateway(items []string) func(msg map[string]interface{}) []map[string]interface{} {
	iterIdx := 0
	return func(msg map[string]interface{}) []map[string]interface{} {
		id, _ := msg["request_id"].(string)
		data, _ := msg["data"].(map[string]interface{})
		reply := func(result interface{}) []map[string]interface{} {
			return []map[string]interface{}{{"request_id": id, "result": result}}
		}
		taggedStr := func(s string) map[string]interface{} {
			return map[string]interface{}{"t": "str", "v": s}
		}
		argValue := func(i int) interface{} {
			args, _ := data["args"].([]interface{})
			arg, _ := args[i].(map[string]interface{})
			return arg["v"]
		}

		if msg["command"] != "call" {
			return reply("ok")
		}
		method, _ := data["method"].(string)
		ref := asInt64(data["ref"])

		if ref == 2 {
			switch method {
			case "hasNext":
				return reply(map[string]interface{}{"t": "bool", "v": iterIdx < len(items)})
			case "next":
				item := items[iterIdx]
				iterIdx++
				return reply(taggedStr(item))
			}
		}

		switch method {
		case "size":
			return reply(map[string]interface{}{"t": "int", "v": int64(len(items))})
		case "get":
			return reply(taggedStr(items[asInt64(argValue(0))]))
		case "add":
			items = append(items, argValue(0).(string))
			return reply(map[string]interface{}{"t": "bool", "v": true})
		case "contains":
			want, _ := argValue(0).(string)
			for _, item := range items {
				if item == want {
					return reply(map[string]interface{}{"t": "bool", "v": true})
				}
			}
			return reply(map[string]interface{}{"t": "bool", "v": false})
		case "iterator":
			iterIdx = 0
			return reply(map[string]interface{}{
				"t": "ref", "v": int64(2), "cls": "java.util.Iterator$1",
				"ifaces": []interface{}{"java.util.Iterator"},
			})
		}
		return reply(map[string]interface{}{"t": "null"})
	}
}

func newListView(t *testing.T, items []string) (*JavaList, *GatewayProcess) {
	t.Helper()
	ft := newFakeTransport(listGateway(items))
	gp := NewGatewayFromTransport(ft)
	gp.Start()
	t.Cleanup(func() { gp.Close() })

	obj := &JObject{gateway: gp, ID: 1, Class: "java.util.ArrayList",
		Interfaces: []string{"java.util.List", "java.util.Collection", "java.lang.Iterable"}}
	return &JavaList{obj: obj}, gp
}

func TestJavaListView(t *testing.T) {
	list, _ := newListView(t, []string{"alpha", "beta"})

	size, err := list.Size()
	if err != nil {
		t.Fatalf("Size failed: %v", err)
	}
	if size != 2 {
		t.Errorf("Expected size 2, got %d", size)
	}

	item, err := list.Get(1)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if item != "beta" {
		t.Errorf("Expected 'beta', got %v", item)
	}

	if err := list.Add("gamma"); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	size, _ = list.Size()
	if size != 3 {
		t.Errorf("Expected size 3 after Add, got %d", size)
	}

	has, err := list.Contains("alpha")
	if err != nil {
		t.Fatalf("Contains failed: %v", err)
	}
	if !has {
		t.Error("Expected list to contain 'alpha'")
	}
	has, _ = list.Contains("omega")
	if has {
		t.Error("Did not expect 'omega'")
	}
}

func TestJavaListIteration(t *testing.T) {
	list, _ := newListView(t, []string{"one", "two", "three"})

	it, err := list.Iterator()
	if err != nil {
		t.Fatalf("Iterator failed: %v", err)
	}
	var collected []string
	for {
		ok, err := it.HasNext()
		if err != nil {
			t.Fatalf("HasNext failed: %v", err)
		}
		if !ok {
			break
		}
		item, err := it.Next()
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		collected = append(collected, item.(string))
	}
	if len(collected) != 3 || collected[0] != "one" || collected[2] != "three" {
		t.Errorf("Unexpected iteration order: %v", collected)
	}
}

func TestJavaListString(t *testing.T) {
	list, _ := newListView(t, []string{"a", "b"})
	if s := list.String(); s != "[a, b]" {
		t.Errorf("Expected '[a, b]', got '%s'", s)
	}
}
