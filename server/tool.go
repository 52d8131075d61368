package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"

	"github.com/felixgeelhaar/telegram-mcp/protocol"
	"github.com/felixgeelhaar/telegram-mcp/schema"
)

var (
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
)

// Tool is a registered, callable tool.
type Tool struct {
	name        string
	description string
	annotations *ToolAnnotations
	inputType   reflect.Type
	inputSchema *schema.Schema
	handler     reflect.Value
	hasContext  bool
}

// Name returns the tool name.
func (t *Tool) Name() string { return t.name }

// ToolBuilder declares a tool. Builder errors are kept until Err is called.
type ToolBuilder struct {
	tool   *Tool
	server *Server
	err    error
}

// Description sets the tool description.
func (b *ToolBuilder) Description(desc string) *ToolBuilder {
	b.tool.description = desc
	return b
}

// Handler sets the handler and registers the tool. fn must be
//
//	func(In) (Out, error)
//	func(context.Context, In) (Out, error)
//
// where In is a struct (or pointer to one) describing the arguments.
func (b *ToolBuilder) Handler(fn any) *ToolBuilder {
	if b.err != nil {
		return b
	}
	if err := b.bind(fn); err != nil {
		b.err = fmt.Errorf("server: tool %q: %w", b.tool.name, err)
		return b
	}
	if err := b.server.registerTool(b.tool); err != nil {
		b.err = err
	}
	return b
}

// Err reports any error from building or registering the tool.
func (b *ToolBuilder) Err() error {
	return b.err
}

func (b *ToolBuilder) bind(fn any) error {
	if fn == nil {
		return errors.New("handler is nil")
	}
	fnType := reflect.TypeOf(fn)
	if fnType.Kind() != reflect.Func {
		return fmt.Errorf("handler must be a function, got %s", fnType.Kind())
	}

	inputIdx := 0
	switch fnType.NumIn() {
	case 1:
	case 2:
		if !fnType.In(0).Implements(contextType) {
			return errors.New("first parameter must be context.Context")
		}
		b.tool.hasContext = true
		inputIdx = 1
	default:
		return fmt.Errorf("handler must have 1 or 2 parameters, got %d", fnType.NumIn())
	}

	if fnType.NumOut() != 2 || !fnType.Out(1).Implements(errorType) {
		return errors.New("handler must return (result, error)")
	}

	inputType := fnType.In(inputIdx)
	if inputType.Kind() == reflect.Ptr {
		inputType = inputType.Elem()
	}
	if inputType.Kind() != reflect.Struct {
		return fmt.Errorf("input must be a struct, got %s", inputType.Kind())
	}

	s, err := schema.GenerateFromType(inputType)
	if err != nil {
		return err
	}

	b.tool.inputType = inputType
	b.tool.inputSchema = s
	b.tool.handler = reflect.ValueOf(fn)
	return nil
}

// decodeMessage describes a decode failure without Go type names.
func decodeMessage(err error) string {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return fmt.Sprintf("%s: unexpected %s", typeErr.Field, typeErr.Value)
	}
	return err.Error()
}

// Execute validates args, runs the handler and shapes its outcome into a
// ToolResult. Invalid arguments and handler errors produce an error result;
// only a *protocol.Error returned by the handler is passed back as an error.
func (t *Tool) Execute(ctx context.Context, args json.RawMessage) (*ToolResult, error) {
	args = bytes.TrimSpace(args)
	if len(args) == 0 || bytes.Equal(args, []byte("null")) {
		args = json.RawMessage("{}")
	}

	if err := t.inputSchema.Validate(args); err != nil {
		return ErrorResult("invalid arguments: " + err.Error()), nil
	}

	args, err := schema.NormalizeIntegers(args)
	if err != nil {
		return ErrorResult("invalid arguments: " + err.Error()), nil
	}

	input := reflect.New(t.inputType)
	if err := json.Unmarshal(args, input.Interface()); err != nil {
		return ErrorResult("invalid arguments: " + decodeMessage(err)), nil
	}

	callArgs := make([]reflect.Value, 0, 2)
	if t.hasContext {
		callArgs = append(callArgs, reflect.ValueOf(ctx))
	}
	if t.handler.Type().In(len(callArgs)).Kind() == reflect.Ptr {
		callArgs = append(callArgs, input)
	} else {
		callArgs = append(callArgs, input.Elem())
	}

	out := t.handler.Call(callArgs)
	if errVal := out[1].Interface(); errVal != nil {
		err := errVal.(error)
		var rpcErr *protocol.Error
		if errors.As(err, &rpcErr) {
			return nil, rpcErr
		}
		return ErrorResult(err.Error()), nil
	}

	return NewResult(out[0].Interface()), nil
}
