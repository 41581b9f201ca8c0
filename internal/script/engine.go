package script

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
)

// Engine compiles and runs Tengo scripts under SecurityLimits.
type Engine struct {
	limits SecurityLimits
}

// NewEngine creates an engine with the given limits.
func NewEngine(limits SecurityLimits) *Engine {
	return &Engine{limits: limits}
}

// CompiledScript is a script ready to run. It is immutable; every run works
// on a clone of the compiled program.
type CompiledScript struct {
	Script   *Script
	compiled *tengo.Compiled
}

// Compile declares inputs (with their zero values) and compiles the script.
// Inputs must be declared here because Tengo resolves globals at compile time.
func (e *Engine) Compile(s *Script, inputs map[string]any) (*CompiledScript, error) {
	ts := tengo.NewScript([]byte(s.Content))
	ts.SetImports(stdlib.GetModuleMap(e.limits.AllowedPackages...))

	for name, zero := range inputs {
		if err := ts.Add(name, zero); err != nil {
			return nil, NewScriptError(ErrorTypeCompilation, s.Name, fmt.Sprintf("failed to declare input %s", name), err)
		}
	}
	if err := ts.Add("log", logFunction(s.Name)); err != nil {
		return nil, NewScriptError(ErrorTypeCompilation, s.Name, "failed to add logging function", err)
	}

	compiled, err := ts.Compile()
	if err != nil {
		return nil, NewScriptError(ErrorTypeCompilation, s.Name, "failed to compile Tengo script", err)
	}

	slog.Debug("Tengo script compiled", "script", s.Name, "checksum", s.Checksum)
	return &CompiledScript{Script: s, compiled: compiled}, nil
}

// Run executes a clone of c with vars assigned and returns the finished
// program so callers can read its globals.
func (e *Engine) Run(ctx context.Context, c *CompiledScript, vars map[string]any) (*tengo.Compiled, error) {
	run := c.compiled.Clone()
	for name, value := range vars {
		if err := run.Set(name, value); err != nil {
			return nil, NewScriptError(ErrorTypeExecution, c.Script.Name, fmt.Sprintf("failed to set input %s", name), err)
		}
	}

	execCtx, cancel := context.WithTimeout(ctx, e.limits.MaxExecutionTime)
	defer cancel()

	if err := run.RunContext(execCtx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, NewScriptError(ErrorTypeTimeout, c.Script.Name, "script execution timed out", err)
		}
		return nil, NewScriptError(ErrorTypeExecution, c.Script.Name, "script execution failed", err)
	}
	return run, nil
}

// Checksum fingerprints script content so unchanged reloads can be skipped.
func Checksum(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

func logFunction(scriptName string) *tengo.UserFunction {
	return &tengo.UserFunction{
		Name: "log",
		Value: func(args ...tengo.Object) (tengo.Object, error) {
			if len(args) != 1 {
				return nil, tengo.ErrWrongNumArguments
			}
			msg, _ := tengo.ToString(args[0])
			slog.Info("Script log", "message", msg, "script", scriptName)
			return tengo.UndefinedValue, nil
		},
	}
}
