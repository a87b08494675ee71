package nodes

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dop251/goja"
	"github.com/rs/zerolog/log"
)

// sandbox is the goja-backed JS execution environment for the `code` node
// (spec.md §4.3.3). Synchronization is via a done channel + select on
// ctx.Done() — not a busy-wait poll, correcting the reference
// implementation's defect (spec.md §9).
type sandbox struct {
	softTimeout time.Duration
	hardTimeout time.Duration
	pool        *vmPool
}

func newSandbox() *sandbox {
	return &sandbox{
		softTimeout: 30 * time.Second,
		hardTimeout: 35 * time.Second,
		pool:        newVMPool(10),
	}
}

// codeError distinguishes a timeout from a script-thrown error so the
// caller can attach the right apperrors code.
type codeError struct {
	timeout bool
	err     error
}

func (e *codeError) Error() string { return e.err.Error() }
func (e *codeError) Unwrap() error { return e.err }

// run executes code wrapped in an async IIFE, with items/$node/$env/console
// injected, and returns whatever the IIFE resolves to.
func (s *sandbox) run(ctx context.Context, code string, items []map[string]interface{}, node map[string]interface{}, env map[string]string) (interface{}, error) {
	vm := s.pool.get()
	defer s.pool.put(vm)

	wrapped := "(async function() {\n" + code + "\n})()"

	soft := time.AfterFunc(s.softTimeout, func() {
		vm.Interrupt("execution timeout exceeded")
	})
	defer soft.Stop()
	hard := time.AfterFunc(s.hardTimeout, func() {
		vm.Interrupt("execution timeout exceeded (hard limit)")
	})
	defer hard.Stop()

	_ = vm.Set("items", items)
	_ = vm.Set("$node", node)
	readOnlyEnv := make(map[string]interface{}, len(env))
	for k, v := range env {
		readOnlyEnv[k] = v
	}
	_ = vm.Set("$env", readOnlyEnv)
	injectConsole(vm, fmt.Sprintf("%v", node["id"]))

	type outcome struct {
		val interface{}
		err error
	}
	done := make(chan outcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: &codeError{err: fmt.Errorf("sandbox panic: %v", r)}}
			}
		}()

		val, err := vm.RunString(wrapped)
		if err != nil {
			if interrupted, ok := err.(*goja.InterruptedError); ok {
				done <- outcome{err: &codeError{timeout: true, err: fmt.Errorf("%v", interrupted.Value())}}
				return
			}
			done <- outcome{err: &codeError{err: err}}
			return
		}

		if p, ok := val.Export().(*goja.Promise); ok && p.State() == goja.PromiseStateRejected {
			done <- outcome{err: &codeError{err: fmt.Errorf("%v", p.Result())}}
			return
		}
		done <- outcome{val: resolvePromise(val)}
	}()

	select {
	case <-ctx.Done():
		vm.Interrupt("context cancelled")
		return nil, &codeError{err: ctx.Err()}
	case o := <-done:
		return o.val, o.err
	}
}

func resolvePromise(val goja.Value) interface{} {
	if val == nil || goja.IsUndefined(val) || goja.IsNull(val) {
		return nil
	}
	if p, ok := val.Export().(*goja.Promise); ok {
		switch p.State() {
		case goja.PromiseStateFulfilled:
			return exportValue(p.Result())
		case goja.PromiseStateRejected:
			return exportValue(p.Result())
		default:
			return nil
		}
	}
	return exportValue(val)
}

func exportValue(val goja.Value) interface{} {
	if val == nil || goja.IsUndefined(val) || goja.IsNull(val) {
		return nil
	}
	return val.Export()
}

// injectConsole wires console.log/error/warn/info to the process logger
// rather than letting them no-op, so a `code` node's console output shows up
// in the worker's own log stream (prefixed with its node id) instead of
// vanishing silently.
func injectConsole(vm *goja.Runtime, nodeID string) {
	consoleFn := func(level string) func(goja.FunctionCall) goja.Value {
		return func(call goja.FunctionCall) goja.Value {
			parts := make([]string, len(call.Arguments))
			for i, arg := range call.Arguments {
				parts[i] = arg.String()
			}
			msg := strings.Join(parts, " ")
			evt := log.Info()
			switch level {
			case "error":
				evt = log.Error()
			case "warn":
				evt = log.Warn()
			}
			evt.Str("nodeId", nodeID).Str("source", "console."+level).Msg(msg)
			return goja.Undefined()
		}
	}

	console := vm.NewObject()
	_ = console.Set("log", consoleFn("log"))
	_ = console.Set("error", consoleFn("error"))
	_ = console.Set("warn", consoleFn("warn"))
	_ = console.Set("info", consoleFn("info"))
	_ = vm.Set("console", console)
}

// vmPool is a reusable pool of goja runtimes, each pre-stripped of
// dangerous globals (eval, Function constructor) so sandboxed code cannot
// compile arbitrary code at runtime or reach host process state.
type vmPool struct {
	pool chan *goja.Runtime
}

func newVMPool(size int) *vmPool {
	p := &vmPool{pool: make(chan *goja.Runtime, size)}
	for i := 0; i < size; i++ {
		p.pool <- p.createVM()
	}
	return p
}

func (p *vmPool) createVM() *goja.Runtime {
	vm := goja.New()
	vm.SetFieldNameMapper(goja.UncapFieldNameMapper())
	_ = vm.Set("eval", goja.Undefined())
	_ = vm.Set("Function", goja.Undefined())
	injectJSONHelpers(vm)
	return vm
}

func injectJSONHelpers(vm *goja.Runtime) {
	jsonObj := vm.NewObject()
	_ = jsonObj.Set("parse", func(s string) interface{} {
		var v interface{}
		_ = json.Unmarshal([]byte(s), &v)
		return v
	})
	_ = jsonObj.Set("stringify", func(v interface{}) string {
		b, _ := json.Marshal(v)
		return string(b)
	})
	_ = vm.Set("JSON", jsonObj)
}

func (p *vmPool) get() *goja.Runtime {
	select {
	case vm := <-p.pool:
		return vm
	default:
		return p.createVM()
	}
}

func (p *vmPool) put(vm *goja.Runtime) {
	vm.ClearInterrupt()
	select {
	case p.pool <- vm:
	default:
	}
}
