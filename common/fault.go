package common

// FaultType is the unified exception classification spanning all supported
// architectures. Exactly one value is produced per analysis run.
// FaultNone means no exception is pending and short-circuits the rest of the
// pipeline: no causes, no address, no recommendation.
type FaultType int

const (
	FaultUnknown FaultType = iota
	FaultNone

	// Cortex-M exception classes
	FaultHard
	FaultMemManage
	FaultBus
	FaultUsage
	FaultDebug

	// RISC-V exception classes
	FaultInstrMisaligned
	FaultInstrAccess
	FaultIllegalInstr
	FaultBreakpoint
	FaultLoadMisaligned
	FaultLoadAccess
	FaultStoreMisaligned
	FaultStoreAccess
	FaultEnvCall
	FaultPage
)

func (f FaultType) String() string {
	switch f {
	case FaultNone:
		return "None"
	case FaultHard:
		return "Hard Fault"
	case FaultMemManage:
		return "Memory Management Fault"
	case FaultBus:
		return "Bus Fault"
	case FaultUsage:
		return "Usage Fault"
	case FaultDebug:
		return "Debug Fault"
	case FaultInstrMisaligned:
		return "Instruction Address Misaligned"
	case FaultInstrAccess:
		return "Instruction Access Fault"
	case FaultIllegalInstr:
		return "Illegal Instruction"
	case FaultBreakpoint:
		return "Breakpoint"
	case FaultLoadMisaligned:
		return "Load Address Misaligned"
	case FaultLoadAccess:
		return "Load Access Fault"
	case FaultStoreMisaligned:
		return "Store Address Misaligned"
	case FaultStoreAccess:
		return "Store Access Fault"
	case FaultEnvCall:
		return "Environment Call"
	case FaultPage:
		return "Page Fault"
	default:
		return "Unknown"
	}
}
