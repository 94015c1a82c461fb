package common

import "context"

// RawStackFrame is one frame as reported by the debug channel, before
// symbolization. InstructionPointer is the channel's hex string form
// (e.g. "0x08000496").
type RawStackFrame struct {
	InstructionPointer string
	Name               string
	SourcePath         string // Empty if the channel had no source info
	Line               int    // 1-based, 0 if the channel had no line info
}

// DebugChannel is the request/response channel to the debug session through
// which all target state is read. The analyzer never controls the target
// (no reset, step, or breakpoint operations); it only reads.
//
// Implementations can provide:
// - A live debug-adapter session
// - A post-mortem dump loaded from disk (see the dump package)
// - Scripted responses for unit tests
//
// Every call is an independent round trip and may fail; callers decide
// per call site whether a failure degrades or aborts the analysis.
type DebugChannel interface {
	// Evaluate evaluates an expression in the debug session and returns the
	// result text. evalContext selects the evaluation mode: "watch" for
	// direct expression evaluation (e.g. "$mcause"), "repl" for console
	// commands (e.g. "-exec info registers mcause").
	Evaluate(ctx context.Context, expression, evalContext string) (string, error)

	// ReadMemory reads count bytes of target memory starting at addr.
	// Returns an error if the range is not accessible.
	ReadMemory(ctx context.Context, addr uint64, count int) ([]byte, error)

	// StackTrace requests up to levels frames of the call stack for the
	// given thread, starting at startFrame. Frames are innermost first.
	StackTrace(ctx context.Context, threadID, startFrame, levels int) ([]RawStackFrame, error)
}
