// Package riscv decodes the RISC-V machine-mode trap CSRs (mcause, mepc,
// mtval, mstatus, mtvec) into a fault classification, cause list, and
// fault address. Both RV32 and RV64 are supported.
package riscv

import (
	"context"
	"fmt"

	"faultscope/common"
)

// Exception codes from the mcause table of the privileged specification.
const (
	codeInstrMisaligned = 0
	codeInstrAccess     = 1
	codeIllegalInstr    = 2
	codeBreakpoint      = 3
	codeLoadMisaligned  = 4
	codeLoadAccess      = 5
	codeStoreMisaligned = 6
	codeStoreAccess     = 7
	codeEnvCallU        = 8
	codeEnvCallS        = 9
	codeEnvCallM        = 11
	codeInstrPage       = 12
	codeLoadPage        = 13
	codeStorePage       = 15
)

// Config holds the per-session decoder settings.
type Config struct {
	// PrefixOverride is the session-level toolchain prefix override.
	// It wins over PrefixSetting, which wins over the architecture default.
	PrefixOverride string
	PrefixSetting  string
}

// Decoder reads and decodes the RISC-V trap CSRs. The channel reference is
// set once at construction and is read-only during analysis.
type Decoder struct {
	channel common.DebugChannel
	xlen    int // 32 or 64
	cfg     Config
	log     common.Logger
}

// NewDecoder creates a RISC-V fault decoder over the given channel.
// xlen selects the register width (32 or 64).
func NewDecoder(ch common.DebugChannel, xlen int, cfg Config) *Decoder {
	return &Decoder{channel: ch, xlen: xlen, cfg: cfg, log: common.NewNoOpLogger()}
}

// SetLogger replaces the decoder's logger. The default is a no-op logger.
func (d *Decoder) SetLogger(l common.Logger) {
	if l != nil {
		d.log = l
	}
}

// trapCSRs lists the registers read per analysis, in read order. Reads are
// independent: a failed optional read leaves that register absent from the
// snapshot, a failed mandatory read aborts the acquisition.
var trapCSRs = []struct {
	name      string
	mandatory bool
}{
	{"mcause", true},
	{"mepc", false},
	{"mtval", false},
	{"mstatus", true},
	{"mtvec", false},
}

// ReadRegisters reads the trap CSR set through the debug channel. Some
// cores and debug stubs do not expose every CSR, so each read is isolated:
// missing optional registers are tolerated and simply absent from the
// snapshot.
func (d *Decoder) ReadRegisters(ctx context.Context) (common.RegisterSnapshot, error) {
	regs := make(common.RegisterSnapshot, len(trapCSRs))
	for _, csr := range trapCSRs {
		v, err := common.ReadRegister(ctx, d.channel, csr.name)
		if err != nil {
			if csr.mandatory {
				return nil, fmt.Errorf("read %s: %w", csr.name, err)
			}
			d.log.Logf(common.SeverityDebug, "optional CSR %s unavailable: %v", csr.name, err)
			continue
		}
		regs[csr.name] = v
		d.log.Logf(common.SeverityDebug, "%s = 0x%X", csr.name, v)
	}
	return regs, nil
}

// interruptBit returns the mcause interrupt flag for the given width:
// bit 31 for RV32, bit 63 for RV64. Computed in uint64 so the RV64 shift
// is exact.
func interruptBit(xlen int) uint64 {
	return uint64(1) << (uint(xlen) - 1)
}

// exceptionCode extracts the exception code from mcause. The mask must be
// computed with 64-bit arithmetic: (1<<63)-1 is not representable in
// 32-bit operations, and truncating it silently discards the upper code
// bits on RV64.
func exceptionCode(mcause uint64, xlen int) uint64 {
	return mcause & (interruptBit(xlen) - 1)
}

// DetermineFaultType classifies the snapshot. If the mcause interrupt flag
// is set the trap is an interrupt, not a fault, and the result is
// FaultNone. Otherwise the exception code selects the fault type from the
// fixed privileged-specification table.
func (d *Decoder) DetermineFaultType(regs common.RegisterSnapshot) common.FaultType {
	mcause := regs.Value("mcause")
	if mcause&interruptBit(d.xlen) != 0 {
		return common.FaultNone
	}
	switch exceptionCode(mcause, d.xlen) {
	case codeInstrMisaligned:
		return common.FaultInstrMisaligned
	case codeInstrAccess, codeInstrPage:
		return common.FaultInstrAccess
	case codeIllegalInstr:
		return common.FaultIllegalInstr
	case codeBreakpoint:
		return common.FaultBreakpoint
	case codeLoadMisaligned:
		return common.FaultLoadMisaligned
	case codeLoadAccess, codeLoadPage:
		return common.FaultLoadAccess
	case codeStoreMisaligned:
		return common.FaultStoreMisaligned
	case codeStoreAccess, codeStorePage:
		return common.FaultStoreAccess
	case codeEnvCallU, codeEnvCallS, codeEnvCallM:
		return common.FaultEnvCall
	default:
		return common.FaultUnknown
	}
}

// FaultAddress returns mtval as the fault address whenever it was captured
// and is non-zero. RISC-V has no valid bit for mtval, so this is a coarser
// rule than the Cortex-M valid-bit check; a legitimately zero fault
// address is not reported.
func (d *Decoder) FaultAddress(fault common.FaultType, regs common.RegisterSnapshot) (uint64, bool) {
	if fault == common.FaultNone {
		return 0, false
	}
	if mtval, ok := regs.Lookup("mtval"); ok && mtval != 0 {
		return mtval, true
	}
	return 0, false
}

// ToolchainPrefix resolves the toolchain prefix for symbolization:
// session override, then user setting, then the width-specific default.
func (d *Decoder) ToolchainPrefix() string {
	if d.cfg.PrefixOverride != "" {
		return d.cfg.PrefixOverride
	}
	if d.cfg.PrefixSetting != "" {
		return d.cfg.PrefixSetting
	}
	if d.xlen == 64 {
		return "riscv64-unknown-elf-"
	}
	return "riscv32-unknown-elf-"
}

// Architecture returns the architecture this decoder serves.
func (d *Decoder) Architecture() common.Architecture {
	if d.xlen == 64 {
		return common.ArchRiscV64
	}
	return common.ArchRiscV32
}
