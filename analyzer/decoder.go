package analyzer

import (
	"context"
	"fmt"

	"faultscope/common"
	"faultscope/cortexm"
	"faultscope/riscv"
)

// FaultDecoder is the per-architecture capability interface. One
// implementation exists per member of the closed Architecture set; the
// factory resolves it once per session and it is never re-dispatched per
// call.
//
// ReadRegisters is the only method that performs I/O. The classification
// methods are pure functions of the snapshot: they never fail on valid
// register input, and registers absent from the snapshot read as zero.
type FaultDecoder interface {
	// ReadRegisters captures the architecture's fault status registers.
	ReadRegisters(ctx context.Context) (common.RegisterSnapshot, error)

	// DetermineFaultType classifies the snapshot into the unified taxonomy.
	DetermineFaultType(regs common.RegisterSnapshot) common.FaultType

	// AnalyzeFaultCause enumerates human-readable cause lines.
	AnalyzeFaultCause(fault common.FaultType, regs common.RegisterSnapshot) []string

	// FaultAddress extracts the faulting memory address, when the
	// architecture reports a valid one.
	FaultAddress(fault common.FaultType, regs common.RegisterSnapshot) (uint64, bool)

	// Recommend produces remediation text for the classified fault.
	Recommend(fault common.FaultType, causes []string) string

	// ToolchainPrefix resolves the toolchain prefix used for symbolization.
	ToolchainPrefix() string

	// Architecture identifies the decoder variant.
	Architecture() common.Architecture
}

// NewDecoder is the factory over the closed Architecture set.
func NewDecoder(arch common.Architecture, ch common.DebugChannel, cfg Config) (FaultDecoder, error) {
	switch arch {
	case common.ArchCortexM:
		return cortexm.NewDecoder(ch, cortexm.Config{
			PrefixOverride: cfg.ToolchainPrefix,
			PrefixSetting:  cfg.ToolchainPrefixSetting,
		}), nil
	case common.ArchRiscV32, common.ArchRiscV64:
		return riscv.NewDecoder(ch, arch.Xlen(), riscv.Config{
			PrefixOverride: cfg.ToolchainPrefix,
			PrefixSetting:  cfg.ToolchainPrefixSetting,
		}), nil
	default:
		return nil, fmt.Errorf("unsupported architecture %q", arch)
	}
}
