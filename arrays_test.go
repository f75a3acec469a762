package scyjava

import (
	"reflect"
	"testing"
)

func arrayGateway(t *testing.T) func(msg map[string]interface{}) []map[string]interface{} {
	return func(msg map[string]interface{}) []map[string]interface{} {
		id, _ := msg["request_id"].(string)
		data, _ := msg["data"].(map[string]interface{})
		reply := func(result interface{}) []map[string]interface{} {
			return []map[string]interface{}{{"request_id": id, "result": result}}
		}

		switch msg["command"] {
		case "array_new":
			kind, _ := data["kind"].(string)
			shape, _ := data["shape"].([]interface{})
			if kind != "d" {
				t.Errorf("Expected kind d, got %q", kind)
			}
			if len(shape) != 2 {
				t.Errorf("Expected 2 dimensions, got %d", len(shape))
			}
			return reply(map[string]interface{}{
				"t": "ref", "v": int64(7), "cls": "[[D",
				"ifaces": []interface{}{"java.lang.Cloneable", "java.io.Serializable"},
			})
		case "array_get":
			// int[]{10, 20, 30} packed little-endian.
			return reply(map[string]interface{}{
				"t": "array", "k": "i",
				"shape": []interface{}{int64(3)},
				"v":     []byte{10, 0, 0, 0, 20, 0, 0, 0, 30, 0, 0, 0},
			})
		case "release":
			return reply(nil)
		}
		return reply("ok")
	}
}

func TestNewJArray(t *testing.T) {
	withFakeJVM(t, arrayGateway(t))
	if err := Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	arr, err := NewJArray("d", 2, 3)
	if err != nil {
		t.Fatalf("NewJArray failed: %v", err)
	}
	if arr.ID != 7 {
		t.Errorf("Expected handle id 7, got %d", arr.ID)
	}
	if arr.Class != "[[D" {
		t.Errorf("Expected class [[D, got %q", arr.Class)
	}
}

func TestNewJArrayValidation(t *testing.T) {
	withFakeJVM(t, arrayGateway(t))
	if err := Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	if _, err := NewJArray("i"); err == nil {
		t.Error("Expected error for zero dimensions")
	}
	if _, err := NewJArray("i", -1); err == nil {
		t.Error("Expected error for negative length")
	}
}

func TestNewJArrayWithoutJVM(t *testing.T) {
	withFakeJVM(t, arrayGateway(t))

	if _, err := NewJArray("i", 4); err != ErrJVMNotStarted {
		t.Errorf("Expected ErrJVMNotStarted, got %v", err)
	}
}

func TestJArrayToSlice(t *testing.T) {
	withFakeJVM(t, arrayGateway(t))
	if err := Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	gateway, err := ActiveGateway()
	if err != nil {
		t.Fatalf("ActiveGateway failed: %v", err)
	}

	obj := &JObject{gateway: gateway, ID: 7, Class: "[I"}
	got, err := JArrayToSlice(obj)
	if err != nil {
		t.Fatalf("JArrayToSlice failed: %v", err)
	}
	want := []int{10, 20, 30}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}
