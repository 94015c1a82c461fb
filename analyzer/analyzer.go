// Package analyzer orchestrates architecture detection, register
// decoding, call-stack reconstruction, and recommendation generation into
// a single fault-analysis pipeline.
package analyzer

import (
	"context"

	"faultscope/callstack"
	"faultscope/common"
	"faultscope/internal/symbolize"
)

// Analyzer is the fault-analysis facade. It holds one channel reference
// and one resolved architecture for its lifetime; repeated Analyze calls
// are independent, with no cross-call caching.
type Analyzer struct {
	channel common.DebugChannel
	cfg     Config
	arch    common.Architecture
	log     common.Logger

	// newSymbolizer is swapped out by tests; the default spawns addr2line.
	newSymbolizer func(toolchainPrefix, executable string) callstack.Symbolizer
}

// New creates an analyzer over the given channel. The architecture is
// detected once, here, and is immutable for the session.
func New(ch common.DebugChannel, cfg Config) *Analyzer {
	return &Analyzer{
		channel: ch,
		cfg:     cfg,
		arch:    DetectArchitecture(cfg),
		log:     common.NewNoOpLogger(),
		newSymbolizer: func(toolchainPrefix, executable string) callstack.Symbolizer {
			return symbolize.New(toolchainPrefix, executable)
		},
	}
}

// SetLogger replaces the analyzer's logger. The default is a no-op logger.
func (a *Analyzer) SetLogger(l common.Logger) {
	if l != nil {
		a.log = l
	}
}

// Architecture returns the architecture resolved for this session.
func (a *Analyzer) Architecture() common.Architecture {
	return a.arch
}

// Analyze runs the full pipeline: acquire the decoder, read the register
// snapshot, classify, enumerate causes, extract the fault address, build
// and symbolicate the call stack, and generate the recommendation.
//
// It returns (nil, nil) when no exception is pending - callers must treat
// a nil result as "nothing to show". A populated FaultAnalysis is built
// exactly once and never mutated afterward.
func (a *Analyzer) Analyze(ctx context.Context) (*common.FaultAnalysis, error) {
	dec, err := NewDecoder(a.arch, a.channel, a.cfg)
	if err != nil {
		return nil, err
	}

	regs, err := dec.ReadRegisters(ctx)
	if err != nil {
		return nil, err
	}

	fault := dec.DetermineFaultType(regs)
	if fault == common.FaultNone {
		a.log.Debug("no exception pending")
		return nil, nil
	}

	causes := dec.AnalyzeFaultCause(fault, regs)
	addr, addrValid := dec.FaultAddress(fault, regs)
	frames := a.buildStack(ctx, dec)
	recommendation := dec.Recommend(fault, causes)

	return &common.FaultAnalysis{
		FaultType:      fault,
		Causes:         causes,
		Address:        addr,
		AddressValid:   addrValid,
		Registers:      regs,
		CallStack:      frames,
		Recommendation: recommendation,
		Architecture:   a.arch,
	}, nil
}

// buildStack reconstructs the call stack. A failed stack trace request
// degrades to an empty stack rather than aborting the analysis; the
// register decode is still worth reporting on its own.
func (a *Analyzer) buildStack(ctx context.Context, dec FaultDecoder) []common.StackFrame {
	var sym callstack.Symbolizer
	if a.cfg.Executable != "" {
		sym = a.newSymbolizer(dec.ToolchainPrefix(), a.cfg.Executable)
	}
	builder := callstack.NewBuilder(a.channel, sym)
	builder.SetLogger(a.log)
	frames, err := builder.Build(ctx, a.cfg.ThreadID)
	if err != nil {
		a.log.Logf(common.SeverityWarning, "call stack unavailable: %v", err)
		return nil
	}
	return frames
}
