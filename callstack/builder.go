// Package callstack reconstructs the call stack leading to a fault from
// the debug channel's stack trace, symbolizing frames that the channel
// could not attribute to source.
package callstack

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"faultscope/common"
	"faultscope/internal/symbolize"
)

// Symbolizer resolves a raw program counter to function/file/line.
type Symbolizer interface {
	Symbolize(ctx context.Context, pc uint64) (symbolize.Result, error)
}

const (
	// DefaultMaxDepth bounds the stack trace request.
	DefaultMaxDepth = 20

	// DefaultConcurrency bounds the symbolizer fan-out. Frame resolution
	// is independent and frames are written by index, so concurrency does
	// not affect the final ordering.
	DefaultConcurrency = 4
)

// Builder requests raw frames from the debug channel and fills in source
// attribution for frames that lack it.
type Builder struct {
	channel common.DebugChannel
	sym     Symbolizer // nil disables symbolization
	log     common.Logger

	// MaxDepth is the number of frames requested; 0 means DefaultMaxDepth.
	MaxDepth int
	// Concurrency bounds parallel symbolizer invocations; 0 means
	// DefaultConcurrency.
	Concurrency int
}

// NewBuilder creates a stack builder over the given channel. sym may be
// nil, in which case unresolved frames keep their raw form.
func NewBuilder(ch common.DebugChannel, sym Symbolizer) *Builder {
	return &Builder{channel: ch, sym: sym, log: common.NewNoOpLogger()}
}

// SetLogger replaces the builder's logger. The default is a no-op logger.
func (b *Builder) SetLogger(l common.Logger) {
	if l != nil {
		b.log = l
	}
}

// Build requests the call stack for the given thread and symbolicates it.
// The returned list is innermost frame first (frame 0 is where the fault
// occurred). A frame that cannot be symbolized keeps its raw
// program-counter-only form; only the stack trace request itself can fail.
func (b *Builder) Build(ctx context.Context, threadID int) ([]common.StackFrame, error) {
	levels := b.MaxDepth
	if levels <= 0 {
		levels = DefaultMaxDepth
	}
	raw, err := b.channel.StackTrace(ctx, threadID, 0, levels)
	if err != nil {
		return nil, fmt.Errorf("stack trace: %w", err)
	}

	frames := make([]common.StackFrame, len(raw))
	for i, rf := range raw {
		pc, err := parsePC(rf.InstructionPointer)
		if err != nil {
			b.log.Logf(common.SeverityDebug, "frame %d: bad instruction pointer %q: %v", i, rf.InstructionPointer, err)
		}
		frames[i] = common.StackFrame{
			PC:       pc,
			Function: rf.Name,
			File:     rf.SourcePath,
			Line:     rf.Line,
		}
	}

	if b.sym != nil {
		b.symbolicate(ctx, frames)
	}
	return frames, nil
}

// symbolicate fills in source attribution for frames that lack it, one
// symbolizer invocation per unresolved frame, bounded fan-out. Each frame
// degrades independently: a failed resolution is logged and the frame is
// left as-is.
func (b *Builder) symbolicate(ctx context.Context, frames []common.StackFrame) {
	concurrency := b.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i := range frames {
		if frames[i].Resolved() || frames[i].PC == 0 {
			continue
		}
		i := i
		g.Go(func() error {
			res, err := b.sym.Symbolize(gctx, frames[i].PC)
			if err != nil {
				b.log.Logf(common.SeverityDebug, "symbolize 0x%x: %v", frames[i].PC, err)
				return nil
			}
			// An unresolved ("??") function keeps whatever name the
			// channel already supplied.
			if res.Function != "" {
				frames[i].Function = res.Function
			}
			if res.File != "" {
				frames[i].File = res.File
				frames[i].Line = res.Line
			}
			return nil
		})
	}
	g.Wait()
}

// parsePC parses the channel's hex instruction pointer form ("0x..." or
// bare hex digits).
func parsePC(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty instruction pointer")
	}
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s = s[2:]
	}
	return strconv.ParseUint(s, 16, 64)
}
