package scyjava

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// JClass represents a Java class resolved inside the gateway JVM.
// Instances are obtained from Import and are memoized per class name.
type JClass struct {
	// Name is the fully qualified class name.
	Name string

	// Primitive reports whether this is a primitive type (int, double, ...).
	Primitive bool

	// Interface reports whether this is an interface type.
	Interface bool

	gateway *GatewayProcess
}

var (
	classMu    sync.Mutex
	classCache = make(map[string]*JClass)
)

// Import resolves a Java class by fully qualified name. Results are
// memoized until the JVM shuts down. Returns ErrJVMNotStarted if the JVM
// is not running, or a *JavaException wrapping ClassNotFoundException if
// the class does not exist.
func Import(className string) (*JClass, error) {
	gateway, err := ActiveGateway()
	if err != nil {
		return nil, err
	}

	classMu.Lock()
	if cls, ok := classCache[className]; ok {
		classMu.Unlock()
		return cls, nil
	}
	classMu.Unlock()

	result, err := gateway.Call("import", 0, map[string]interface{}{"name": className})
	if err != nil {
		return nil, err
	}
	info, ok := result.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("unexpected import result: %v", result)
	}

	cls := &JClass{gateway: gateway}
	cls.Name, _ = info["cls"].(string)
	cls.Primitive, _ = info["primitive"].(bool)
	cls.Interface, _ = info["interface"].(bool)

	classMu.Lock()
	classCache[className] = cls
	classMu.Unlock()
	return cls, nil
}

// clearClassCache drops all memoized classes. Called on JVM shutdown.
func clearClassCache() {
	classMu.Lock()
	defer classMu.Unlock()
	classCache = make(map[string]*JClass)
}

// New constructs an instance of the class, converting the arguments with
// ToJava and the result with ToGo. For most classes the result is a
// *JObject; classes with registered converters (String, boxed numbers,
// collections) come back as their Go counterparts.
func (cls *JClass) New(args ...interface{}) (interface{}, error) {
	wireArgs, err := toWireArgs(args)
	if err != nil {
		return nil, err
	}
	result, err := cls.gateway.Call("new", 0, map[string]interface{}{
		"cls":  cls.Name,
		"args": wireArgs,
	})
	if err != nil {
		return nil, err
	}
	return fromWire(cls.gateway, result)
}

// CallStatic invokes a static method on the class.
func (cls *JClass) CallStatic(method string, args ...interface{}) (interface{}, error) {
	wireArgs, err := toWireArgs(args)
	if err != nil {
		return nil, err
	}
	result, err := cls.gateway.Call("call", 0, map[string]interface{}{
		"cls":    cls.Name,
		"method": method,
		"args":   wireArgs,
	})
	if err != nil {
		return nil, err
	}
	return fromWire(cls.gateway, result)
}

// GetStatic reads a static field.
func (cls *JClass) GetStatic(field string) (interface{}, error) {
	result, err := cls.gateway.Call("get", 0, map[string]interface{}{
		"cls":   cls.Name,
		"field": field,
	})
	if err != nil {
		return nil, err
	}
	return fromWire(cls.gateway, result)
}

// SetStatic writes a static field.
func (cls *JClass) SetStatic(field string, value interface{}) error {
	wire, err := ToJava(value)
	if err != nil {
		return err
	}
	_, err = cls.gateway.Call("set", 0, map[string]interface{}{
		"cls":   cls.Name,
		"field": field,
		"value": wire,
	})
	return err
}

// JObject is a handle to an object living inside the gateway JVM. The
// object stays in the JVM; only its identity crosses the wire. Call Release
// when the object is no longer needed so the gateway can free it.
type JObject struct {
	gateway *GatewayProcess

	// ID is the gateway handle for the object.
	ID int64

	// Class is the object's concrete class name.
	Class string

	// Interfaces lists all interfaces the object's class implements,
	// transitively.
	Interfaces []string

	mu       sync.Mutex
	released bool
}

// wireRef renders the object as a wire reference.
func (o *JObject) wireRef() map[string]interface{} {
	return map[string]interface{}{"t": "ref", "v": o.ID}
}

// IsInstanceOf reports whether the object's class or any implemented
// interface matches the given fully qualified name. Superclass names other
// than the concrete class are not tracked and return false.
func (o *JObject) IsInstanceOf(className string) bool {
	if o.Class == className {
		return true
	}
	for _, iface := range o.Interfaces {
		if iface == className {
			return true
		}
	}
	return false
}

// Call invokes a method on the object, converting arguments with ToJava
// and the result with ToGo.
func (o *JObject) Call(method string, args ...interface{}) (interface{}, error) {
	wireArgs, err := toWireArgs(args)
	if err != nil {
		return nil, err
	}
	result, err := o.gateway.Call("call", 0, map[string]interface{}{
		"ref":    o.ID,
		"method": method,
		"args":   wireArgs,
	})
	if err != nil {
		return nil, err
	}
	return fromWire(o.gateway, result)
}

// Get reads an instance field.
func (o *JObject) Get(field string) (interface{}, error) {
	result, err := o.gateway.Call("get", 0, map[string]interface{}{
		"ref":   o.ID,
		"field": field,
	})
	if err != nil {
		return nil, err
	}
	return fromWire(o.gateway, result)
}

// Set writes an instance field.
func (o *JObject) Set(field string, value interface{}) error {
	wire, err := ToJava(value)
	if err != nil {
		return err
	}
	_, err = o.gateway.Call("set", 0, map[string]interface{}{
		"ref":   o.ID,
		"field": field,
		"value": wire,
	})
	return err
}

// String returns the object's Java toString rendering. Errors talking to
// the gateway degrade to a handle description, keeping String usable in
// fmt verbs.
func (o *JObject) String() string {
	result, err := o.gateway.Call("tostring", 0, map[string]interface{}{"ref": o.ID})
	if err != nil {
		Logger().Debug("tostring failed", zap.Int64("ref", o.ID), zap.Error(err))
		return fmt.Sprintf("<%s#%d>", o.Class, o.ID)
	}
	s, _ := result.(string)
	return s
}

// HashCode returns the object's Java hashCode.
func (o *JObject) HashCode() (int64, error) {
	result, err := o.gateway.Call("hash", 0, map[string]interface{}{"ref": o.ID})
	if err != nil {
		return 0, err
	}
	if !isInt(result) {
		return 0, fmt.Errorf("unexpected hash result: %v", result)
	}
	return asInt64(result), nil
}

// Equals applies Java equals semantics between this object and another
// value. The other value is converted with ToJava first, so Go natives
// compare against their boxed Java counterparts.
func (o *JObject) Equals(other interface{}) (bool, error) {
	wire, err := ToJava(other)
	if err != nil {
		return false, err
	}
	result, err := o.gateway.Call("equals", 0, map[string]interface{}{
		"a": o.wireRef(),
		"b": wire,
	})
	if err != nil {
		return false, err
	}
	eq, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("unexpected equals result: %v", result)
	}
	return eq, nil
}

// Release frees the object's handle in the gateway. Further use of the
// handle is an error on the Java side. Release is idempotent.
func (o *JObject) Release() error {
	o.mu.Lock()
	if o.released {
		o.mu.Unlock()
		return nil
	}
	o.released = true
	o.mu.Unlock()

	_, err := o.gateway.Call("release", 0, map[string]interface{}{
		"refs": []interface{}{o.ID},
	})
	return err
}

// toWireArgs converts call arguments to their wire form.
func toWireArgs(args []interface{}) ([]interface{}, error) {
	wire := make([]interface{}, len(args))
	for i, arg := range args {
		w, err := ToJava(arg)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		wire[i] = w
	}
	return wire, nil
}
