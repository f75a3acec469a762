package scyjava

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// GatewayProcess provides bidirectional RPC-style communication between Go
// and the gateway JVM. It uses MessagePack serialization over the process's
// standard streams.
//
// GatewayProcess is safe for concurrent use by multiple goroutines. Writes
// are serialized via an internal mutex, and responses are correlated with
// requests using unique IDs. Command handlers registered via RegisterHandler
// are invoked in separate goroutines and may execute concurrently.
type GatewayProcess struct {
	*JavaProcess

	// serializer handles message encoding/decoding (MessagePack)
	serializer Serializer

	// transport handles the wire protocol (length-prefixed binary)
	transport Transport

	// mutex protects concurrent access to shared state
	mutex sync.Mutex

	// responseMap tracks pending requests awaiting responses
	responseMap map[string]chan map[string]interface{}

	// commandHandlers maps command names to Go handler functions
	commandHandlers map[string]CommandHandler

	// defaultHandler is invoked for commands without a specific handler
	defaultHandler CommandHandler

	// running indicates whether the message loop is active
	running bool

	// processingWg tracks in-flight command handlers
	processingWg sync.WaitGroup
}

// CommandHandler is a function that handles commands received from the JVM.
// It receives the command data and request ID, and returns a response or error.
// Handlers are registered with RegisterHandler and invoked by the message loop.
type CommandHandler func(data interface{}, requestID string) (interface{}, error)

// NewGatewayProcess launches the gateway JVM and wires up the RPC machinery.
//
// The JVM's stderr is forwarded to the Go process's stderr. The message loop
// starts immediately and a version handshake confirms the gateway is alive
// before the function returns.
func (env *JavaEnvironment) NewGatewayProcess(classpath []string, jvmOptions []string) (*GatewayProcess, error) {
	jp, err := env.NewJavaProcess(classpath, jvmOptions)
	if err != nil {
		return nil, err
	}

	go func() {
		io.Copy(os.Stderr, jp.Stderr)
	}()

	gp := NewGatewayFromTransport(NewMsgpackTransport(jp.Stdout, jp.Stdin))
	gp.JavaProcess = jp
	gp.Start()

	// Handshake: a gateway that fails to answer within 30 seconds is broken.
	response, err := gp.SendCommand("version", nil, 30, true)
	if err != nil {
		jp.Terminate()
		return nil, fmt.Errorf("gateway handshake failed: %v", err)
	}
	Logger().Info("gateway started",
		zap.Any("java.version", response["result"]),
		zap.Int("pid", jp.Cmd.Process.Pid))

	return gp, nil
}

// NewGatewayFromTransport builds a GatewayProcess over an existing transport
// without spawning a JVM. The message loop is not started.
func NewGatewayFromTransport(transport Transport) *GatewayProcess {
	return &GatewayProcess{
		serializer:      MsgpackSerializer{},
		transport:       transport,
		responseMap:     make(map[string]chan map[string]interface{}),
		commandHandlers: map[string]CommandHandler{},
	}
}

// RegisterHandler registers a Go function to handle a specific command from
// the JVM. When the gateway sends a command with this name, the handler is
// invoked with the data. The handler's return value is sent back as the
// response.
func (gp *GatewayProcess) RegisterHandler(command string, handler CommandHandler) {
	gp.mutex.Lock()
	defer gp.mutex.Unlock()
	gp.commandHandlers[command] = handler
}

// SetDefaultHandler sets a fallback handler for commands without a specific
// handler. If no handler is registered for a command and no default is set,
// an error is returned to the gateway.
func (gp *GatewayProcess) SetDefaultHandler(handler CommandHandler) {
	gp.mutex.Lock()
	defer gp.mutex.Unlock()
	gp.defaultHandler = handler
}

// Start begins the message processing loop.
// This is called automatically by NewGatewayProcess; manual calls are idempotent.
func (gp *GatewayProcess) Start() {
	gp.mutex.Lock()
	if gp.running {
		gp.mutex.Unlock()
		return
	}
	gp.running = true
	gp.mutex.Unlock()

	go gp.messageLoop()
}

// messageLoop continuously reads messages from the gateway and dispatches
// them. Responses to Go requests are routed via responseMap; commands from
// the JVM are handled by registered handlers in separate goroutines.
func (gp *GatewayProcess) messageLoop() {
	for {
		gp.mutex.Lock()
		running := gp.running
		gp.mutex.Unlock()

		if !running {
			break
		}

		payload, err := gp.transport.Receive()
		if err != nil {
			if err == io.EOF {
				// The pipe was closed
				break
			}
			Logger().Error("error reading from gateway", zap.Error(err))
			continue
		}

		var message map[string]interface{}
		if err := gp.serializer.Unmarshal(payload, &message); err != nil {
			Logger().Error("error decoding message", zap.Error(err))
			continue
		}

		// Gateway-initiated requests carry "jv-" IDs; anything else is a
		// response to one of ours.
		if requestID, ok := message["request_id"].(string); ok && !strings.HasPrefix(requestID, "jv-") {
			gp.mutex.Lock()
			if ch, exists := gp.responseMap[requestID]; exists {
				ch <- message
				delete(gp.responseMap, requestID)
			}
			gp.mutex.Unlock()
			continue
		}

		command, hasCommand := message["command"].(string)
		data := message["data"]
		requestID, hasRequestID := message["request_id"].(string)
		if !hasRequestID {
			Logger().Warn("command without request ID", zap.Any("message", message))
			continue
		}
		if hasCommand {
			gp.processingWg.Add(1)
			go func() {
				defer gp.processingWg.Done()
				gp.processCommand(command, data, requestID)
			}()
		}
	}
}

// processCommand dispatches a command from the JVM to the appropriate handler
// and sends the response back with the matching requestID.
func (gp *GatewayProcess) processCommand(command string, data interface{}, requestID string) {
	var response interface{}
	var err error

	gp.mutex.Lock()
	handler, exists := gp.commandHandlers[command]
	defaultHandler := gp.defaultHandler
	gp.mutex.Unlock()

	if exists {
		response, err = handler(data, requestID)
	} else if defaultHandler != nil {
		response, err = defaultHandler(data, requestID)
	} else {
		err = fmt.Errorf("unknown command: %s", command)
	}

	responseObj := map[string]interface{}{
		"request_id": requestID,
	}
	if err != nil {
		responseObj["error"] = err.Error()
	} else {
		responseObj["result"] = response
	}

	if err := gp.sendMessage(responseObj); err != nil {
		Logger().Error("error sending response to gateway", zap.Error(err))
	}
}

// sendMessage serializes and writes a single message frame.
func (gp *GatewayProcess) sendMessage(message map[string]interface{}) error {
	msgdata, err := gp.serializer.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	gp.mutex.Lock()
	err = gp.transport.Send(msgdata)
	if err != nil {
		gp.mutex.Unlock()
		return fmt.Errorf("failed to write message: %w", err)
	}
	err = gp.transport.Flush()
	gp.mutex.Unlock()

	if err != nil {
		return fmt.Errorf("failed to flush message: %w", err)
	}
	return nil
}

// SendCommand sends a command to the gateway with optional response waiting.
//
// Parameters:
//   - command: The command name
//   - data: The command arguments
//   - timeoutSeconds: Maximum seconds to wait (0 for unlimited, ignored if not waiting)
//   - waitForResponse: If true, blocks until the gateway responds
//
// Returns the response map (if waiting) or nil, and any error encountered.
func (gp *GatewayProcess) SendCommand(command string, data interface{}, timeoutSeconds int, waitForResponse bool) (map[string]interface{}, error) {
	requestID := uuid.NewString()
	request := map[string]interface{}{
		"command":    command,
		"data":       data,
		"request_id": requestID,
	}

	var responseChan chan map[string]interface{}
	if waitForResponse {
		responseChan = make(chan map[string]interface{}, 1)
		gp.mutex.Lock()
		gp.responseMap[requestID] = responseChan
		gp.mutex.Unlock()
	}

	if err := gp.sendMessage(request); err != nil {
		if waitForResponse {
			gp.mutex.Lock()
			delete(gp.responseMap, requestID)
			gp.mutex.Unlock()
		}
		return nil, err
	}

	if !waitForResponse {
		return nil, nil
	}

	if timeoutSeconds <= 0 {
		return <-responseChan, nil
	}
	select {
	case response := <-responseChan:
		return response, nil
	case <-time.After(time.Duration(timeoutSeconds) * time.Second):
		gp.mutex.Lock()
		delete(gp.responseMap, requestID)
		gp.mutex.Unlock()
		return nil, fmt.Errorf("timeout waiting for response to command %q", command)
	}
}

// Call invokes a gateway command and unwraps the result.
//
// A response carrying an "error" map becomes a *JavaException; a plain
// error string becomes an ordinary error. Otherwise the "result" value is
// returned.
func (gp *GatewayProcess) Call(command string, timeoutSeconds int, data interface{}) (interface{}, error) {
	response, err := gp.SendCommand(command, data, timeoutSeconds, true)
	if err != nil {
		return nil, err
	}

	if errVal, ok := response["error"]; ok && errVal != nil {
		if errMap, ok := errVal.(map[string]interface{}); ok {
			return nil, javaExceptionFromMessage(errMap)
		}
		return nil, fmt.Errorf("gateway error: %v", errVal)
	}

	return response["result"], nil
}

// Close shuts down the message loop and terminates the JVM. The gateway is
// asked to exit cleanly first; Terminate's escalation handles the rest.
func (gp *GatewayProcess) Close() error {
	gp.mutex.Lock()
	if !gp.running {
		gp.mutex.Unlock()
		return nil
	}
	gp.running = false
	gp.mutex.Unlock()

	gp.SendCommand("shutdown", nil, 0, false)
	gp.processingWg.Wait()
	gp.transport.Close()

	if gp.JavaProcess != nil {
		return gp.Terminate()
	}
	return nil
}
