package callstack

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"faultscope/common"
	"faultscope/internal/symbolize"
)

// traceChannel scripts the StackTrace response and records the request.
type traceChannel struct {
	frames []common.RawStackFrame
	err    error

	gotStart  int
	gotLevels int
}

func (c *traceChannel) StackTrace(ctx context.Context, threadID, startFrame, levels int) ([]common.RawStackFrame, error) {
	c.gotStart, c.gotLevels = startFrame, levels
	return c.frames, c.err
}

func (c *traceChannel) Evaluate(ctx context.Context, expression, evalContext string) (string, error) {
	return "", fmt.Errorf("evaluate not scripted")
}

func (c *traceChannel) ReadMemory(ctx context.Context, addr uint64, count int) ([]byte, error) {
	return nil, fmt.Errorf("memory reads not scripted")
}

// fakeSymbolizer resolves addresses from a fixed map and records which
// addresses were requested.
type fakeSymbolizer struct {
	mu      sync.Mutex
	results map[uint64]symbolize.Result
	errs    map[uint64]error
	asked   map[uint64]bool
}

func (s *fakeSymbolizer) Symbolize(ctx context.Context, pc uint64) (symbolize.Result, error) {
	s.mu.Lock()
	if s.asked == nil {
		s.asked = make(map[uint64]bool)
	}
	s.asked[pc] = true
	s.mu.Unlock()
	if err, ok := s.errs[pc]; ok {
		return symbolize.Result{}, err
	}
	return s.results[pc], nil
}

func TestBuildSymbolicatesUnresolvedFrames(t *testing.T) {
	ch := &traceChannel{frames: []common.RawStackFrame{
		{InstructionPointer: "0x08000496", Name: "HardFault_Handler", SourcePath: "src/startup.c", Line: 120},
		{InstructionPointer: "0x08001a30", Name: "memcpy"},
		{InstructionPointer: "0x080002f4"},
	}}
	sym := &fakeSymbolizer{results: map[uint64]symbolize.Result{
		0x08001a30: {Function: "memcpy", File: "lib/string.c", Line: 44},
		0x080002f4: {Function: "process_packet", File: "src/proto.c", Line: 211},
	}}

	b := NewBuilder(ch, sym)
	frames, err := b.Build(context.Background(), 1)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	want := []common.StackFrame{
		{PC: 0x08000496, Function: "HardFault_Handler", File: "src/startup.c", Line: 120},
		{PC: 0x08001a30, Function: "memcpy", File: "lib/string.c", Line: 44},
		{PC: 0x080002f4, Function: "process_packet", File: "src/proto.c", Line: 211},
	}
	if diff := cmp.Diff(want, frames); diff != "" {
		t.Errorf("frames mismatch (-want +got):\n%s", diff)
	}

	// Frame 0 already had source attribution; the symbolizer must not
	// have been invoked for it.
	if sym.asked[0x08000496] {
		t.Error("symbolizer invoked for a frame with existing source info")
	}
	if ch.gotStart != 0 || ch.gotLevels != DefaultMaxDepth {
		t.Errorf("StackTrace request = (start %d, levels %d), want (0, %d)", ch.gotStart, ch.gotLevels, DefaultMaxDepth)
	}
}

func TestBuildUnresolvedFunctionKeepsChannelName(t *testing.T) {
	// addr2line printing "??" comes back as an empty Function; the name
	// the channel supplied must survive.
	ch := &traceChannel{frames: []common.RawStackFrame{
		{InstructionPointer: "0x20000100", Name: "ISR_vector_12"},
	}}
	sym := &fakeSymbolizer{results: map[uint64]symbolize.Result{
		0x20000100: {File: "src/isr.c", Line: 9},
	}}

	frames, err := NewBuilder(ch, sym).Build(context.Background(), 1)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	want := []common.StackFrame{{PC: 0x20000100, Function: "ISR_vector_12", File: "src/isr.c", Line: 9}}
	if diff := cmp.Diff(want, frames); diff != "" {
		t.Errorf("frames mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildFrameFailureDegrades(t *testing.T) {
	ch := &traceChannel{frames: []common.RawStackFrame{
		{InstructionPointer: "0x08000100"},
		{InstructionPointer: "0x08000200"},
	}}
	sym := &fakeSymbolizer{
		results: map[uint64]symbolize.Result{0x08000200: {Function: "main", File: "src/main.c", Line: 12}},
		errs:    map[uint64]error{0x08000100: fmt.Errorf("addr2line exited 1")},
	}

	frames, err := NewBuilder(ch, sym).Build(context.Background(), 1)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	// The failed frame keeps its raw program-counter-only form; the rest
	// of the stack still resolves, in order.
	want := []common.StackFrame{
		{PC: 0x08000100},
		{PC: 0x08000200, Function: "main", File: "src/main.c", Line: 12},
	}
	if diff := cmp.Diff(want, frames); diff != "" {
		t.Errorf("frames mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildWithoutSymbolizer(t *testing.T) {
	ch := &traceChannel{frames: []common.RawStackFrame{
		{InstructionPointer: "0x08000100", Name: "loop"},
	}}

	frames, err := NewBuilder(ch, nil).Build(context.Background(), 1)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	want := []common.StackFrame{{PC: 0x08000100, Function: "loop"}}
	if diff := cmp.Diff(want, frames); diff != "" {
		t.Errorf("frames mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildStackTraceFailure(t *testing.T) {
	ch := &traceChannel{err: fmt.Errorf("target not halted")}
	if _, err := NewBuilder(ch, nil).Build(context.Background(), 1); err == nil {
		t.Fatal("expected error when the stack trace request fails")
	}
}

func TestBuildRespectsMaxDepth(t *testing.T) {
	ch := &traceChannel{}
	b := NewBuilder(ch, nil)
	b.MaxDepth = 5
	if _, err := b.Build(context.Background(), 1); err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if ch.gotLevels != 5 {
		t.Errorf("StackTrace levels = %d, want 5", ch.gotLevels)
	}
}

func TestParsePC(t *testing.T) {
	tests := []struct {
		input   string
		want    uint64
		wantErr bool
	}{
		{"0x08000496", 0x08000496, false},
		{"0X80000130", 0x80000130, false},
		{"deadbeef", 0xdeadbeef, false},
		{" 0x10 ", 0x10, false},
		{"", 0, true},
		{"wat", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parsePC(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parsePC(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("parsePC(%q) = 0x%X, want 0x%X", tt.input, got, tt.want)
			}
		})
	}
}
