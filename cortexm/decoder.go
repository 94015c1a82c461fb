// Package cortexm decodes the ARM Cortex-M System Control Block fault
// status registers into a fault classification, cause list, and fault
// address.
package cortexm

import (
	"context"
	"encoding/binary"
	"fmt"

	"faultscope/common"
)

// SCB fault status and address register addresses (ARMv7-M, fixed).
const (
	addrCFSR  = 0xE000ED28 // Configurable Fault Status (MMFSR | BFSR<<8 | UFSR<<16)
	addrHFSR  = 0xE000ED2C // HardFault Status
	addrDFSR  = 0xE000ED30 // Debug Fault Status
	addrMMFAR = 0xE000ED34 // MemManage Fault Address
	addrBFAR  = 0xE000ED38 // BusFault Address
	addrAFSR  = 0xE000ED3C // Auxiliary Fault Status (implementation defined)
)

// HFSR bits
const (
	hfsrVectTbl = 1 << 1  // Bus fault on vector table read
	hfsrForced  = 1 << 30 // Configurable fault escalated to hard fault
)

// MMFSR/BFSR address-valid bits
const (
	mmfsrMMARValID = 1 << 7
	bfsrBFARVALID  = 1 << 7
)

// DefaultToolchainPrefix is used when neither a session override nor a
// user setting names one.
const DefaultToolchainPrefix = "arm-none-eabi-"

// Config holds the per-session decoder settings.
type Config struct {
	// PrefixOverride is the session-level toolchain prefix override.
	// It wins over PrefixSetting, which wins over the architecture default.
	PrefixOverride string
	PrefixSetting  string
}

// Decoder reads and decodes the Cortex-M SCB fault registers.
// The channel reference is set once at construction and is read-only
// during analysis.
type Decoder struct {
	channel common.DebugChannel
	cfg     Config
	log     common.Logger
}

// NewDecoder creates a Cortex-M fault decoder over the given channel.
func NewDecoder(ch common.DebugChannel, cfg Config) *Decoder {
	return &Decoder{channel: ch, cfg: cfg, log: common.NewNoOpLogger()}
}

// SetLogger replaces the decoder's logger. The default is a no-op logger.
func (d *Decoder) SetLogger(l common.Logger) {
	if l != nil {
		d.log = l
	}
}

// scbRegisters lists the registers read per analysis, in read order.
var scbRegisters = []struct {
	name string
	addr uint64
}{
	{"CFSR", addrCFSR},
	{"HFSR", addrHFSR},
	{"DFSR", addrDFSR},
	{"MMFAR", addrMMFAR},
	{"BFAR", addrBFAR},
	{"AFSR", addrAFSR},
}

// ReadRegisters reads the SCB fault register battery through the debug
// channel. Cortex-M register reads are assumed always available when the
// channel is up, so any single failure aborts the whole acquisition.
func (d *Decoder) ReadRegisters(ctx context.Context) (common.RegisterSnapshot, error) {
	regs := make(common.RegisterSnapshot, len(scbRegisters))
	for _, reg := range scbRegisters {
		data, err := d.channel.ReadMemory(ctx, reg.addr, 4)
		if err != nil {
			return nil, fmt.Errorf("read %s at 0x%08X: %w", reg.name, reg.addr, err)
		}
		if len(data) < 4 {
			return nil, fmt.Errorf("read %s at 0x%08X: short read (%d bytes)", reg.name, reg.addr, len(data))
		}
		regs[reg.name] = uint64(binary.LittleEndian.Uint32(data))
		d.log.Logf(common.SeverityDebug, "%s = 0x%08X", reg.name, regs[reg.name])
	}
	return regs, nil
}

// CFSR subfields. The composite register packs three status bytes:
// byte 0 MMFSR, byte 1 BFSR, bytes 2-3 UFSR.
func mmfsr(regs common.RegisterSnapshot) uint64 { return regs.Value("CFSR") & 0xFF }
func bfsr(regs common.RegisterSnapshot) uint64  { return (regs.Value("CFSR") >> 8) & 0xFF }
func ufsr(regs common.RegisterSnapshot) uint64  { return (regs.Value("CFSR") >> 16) & 0xFFFF }

// DetermineFaultType classifies the snapshot. The precedence order matters
// because the hardware sets overlapping indications:
//  1. any debug event wins,
//  2. a FORCED hard fault is attributed to the escalated configurable fault,
//  3. a vector table read error is a genuine hard fault,
//  4. otherwise the first non-zero configurable status byte wins.
func (d *Decoder) DetermineFaultType(regs common.RegisterSnapshot) common.FaultType {
	if regs.Value("DFSR") != 0 {
		return common.FaultDebug
	}
	if regs.Value("HFSR")&hfsrForced != 0 {
		switch {
		case mmfsr(regs) != 0:
			return common.FaultMemManage
		case bfsr(regs) != 0:
			return common.FaultBus
		case ufsr(regs) != 0:
			return common.FaultUsage
		}
	}
	if regs.Value("HFSR")&hfsrVectTbl != 0 {
		return common.FaultHard
	}
	switch {
	case mmfsr(regs) != 0:
		return common.FaultMemManage
	case bfsr(regs) != 0:
		return common.FaultBus
	case ufsr(regs) != 0:
		return common.FaultUsage
	}
	return common.FaultNone
}

// FaultAddress returns the faulting memory address when the hardware marked
// it valid. Only MemManage and Bus faults report addresses, and only when
// the corresponding valid bit is set; a stale non-zero MMFAR/BFAR without
// its valid bit is ignored.
func (d *Decoder) FaultAddress(fault common.FaultType, regs common.RegisterSnapshot) (uint64, bool) {
	switch fault {
	case common.FaultMemManage:
		if mmfsr(regs)&mmfsrMMARValID != 0 {
			return regs.Value("MMFAR"), true
		}
	case common.FaultBus:
		if bfsr(regs)&bfsrBFARVALID != 0 {
			return regs.Value("BFAR"), true
		}
	}
	return 0, false
}

// ToolchainPrefix resolves the toolchain prefix for symbolization:
// session override, then user setting, then the architecture default.
func (d *Decoder) ToolchainPrefix() string {
	if d.cfg.PrefixOverride != "" {
		return d.cfg.PrefixOverride
	}
	if d.cfg.PrefixSetting != "" {
		return d.cfg.PrefixSetting
	}
	return DefaultToolchainPrefix
}

// Architecture returns the architecture this decoder serves.
func (d *Decoder) Architecture() common.Architecture {
	return common.ArchCortexM
}
