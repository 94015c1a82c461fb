package common

// Architecture identifies the target processor family.
// It is resolved once per analysis session and never changes afterward.
type Architecture int

const (
	ArchUnknown Architecture = iota
	ArchCortexM              // ARM Cortex-M (System Control Block fault registers)
	ArchRiscV32              // RISC-V RV32 (machine-mode CSRs)
	ArchRiscV64              // RISC-V RV64 (machine-mode CSRs)
)

func (a Architecture) String() string {
	switch a {
	case ArchCortexM:
		return "Cortex-M"
	case ArchRiscV32:
		return "RISC-V (RV32)"
	case ArchRiscV64:
		return "RISC-V (RV64)"
	default:
		return "Unknown"
	}
}

// Xlen returns the register width in bits for RISC-V variants, 0 otherwise.
func (a Architecture) Xlen() int {
	switch a {
	case ArchRiscV32:
		return 32
	case ArchRiscV64:
		return 64
	default:
		return 0
	}
}
