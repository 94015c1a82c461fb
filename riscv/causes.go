package riscv

import (
	"fmt"

	"faultscope/common"
)

// AnalyzeFaultCause returns the cause lines for the classified fault,
// interpolating mepc (faulting instruction address) and mtval (fault
// value or address) where the hardware defines them. Page faults and
// plain access faults share a FaultType but get distinct wording, chosen
// by the exact exception code. Pure: no I/O, identical input yields
// identical output.
func (d *Decoder) AnalyzeFaultCause(fault common.FaultType, regs common.RegisterSnapshot) []string {
	if fault == common.FaultNone {
		return nil
	}
	code := exceptionCode(regs.Value("mcause"), d.xlen)
	mepc := regs.Value("mepc")
	mtval := regs.Value("mtval")

	var causes []string
	switch fault {
	case common.FaultInstrMisaligned:
		causes = append(causes,
			fmt.Sprintf("Instruction address misaligned: fetch from 0x%X", mtval),
			fmt.Sprintf("Trapping instruction: 0x%X", mepc),
			"Instruction addresses must be 4-byte aligned (2-byte with the C extension).")

	case common.FaultInstrAccess:
		if code == codeInstrPage {
			causes = append(causes,
				fmt.Sprintf("Instruction page fault: fetch from an unmapped or non-executable page at 0x%X", mtval))
		} else {
			causes = append(causes,
				fmt.Sprintf("Instruction access fault: fetch from 0x%X was denied (no memory there, or PMP forbids execution)", mtval))
		}
		causes = append(causes, fmt.Sprintf("Trapping instruction: 0x%X", mepc))

	case common.FaultIllegalInstr:
		causes = append(causes, fmt.Sprintf("Illegal instruction at 0x%X", mepc))
		if mtval != 0 {
			causes = append(causes, fmt.Sprintf("Faulting instruction word: 0x%X", mtval))
		}
		causes = append(causes,
			"The opcode is not implemented by this core's ISA extensions, or the instruction stream is corrupted.")

	case common.FaultBreakpoint:
		causes = append(causes, fmt.Sprintf("Breakpoint (ebreak) at 0x%X", mepc))

	case common.FaultLoadMisaligned:
		causes = append(causes,
			fmt.Sprintf("Misaligned load from address 0x%X", mtval),
			fmt.Sprintf("Trapping instruction: 0x%X", mepc),
			"This core requires naturally aligned loads for this access width.")

	case common.FaultLoadAccess:
		if code == codeLoadPage {
			causes = append(causes,
				fmt.Sprintf("Load page fault: read from an unmapped or unreadable page at address 0x%X", mtval))
		} else {
			causes = append(causes,
				fmt.Sprintf("Load access fault: read from address 0x%X was denied (no device there, or PMP forbids reads)", mtval))
		}
		causes = append(causes, fmt.Sprintf("Trapping instruction: 0x%X", mepc))

	case common.FaultStoreMisaligned:
		causes = append(causes,
			fmt.Sprintf("Misaligned store to address 0x%X", mtval),
			fmt.Sprintf("Trapping instruction: 0x%X", mepc),
			"This core requires naturally aligned stores for this access width.")

	case common.FaultStoreAccess:
		if code == codeStorePage {
			causes = append(causes,
				fmt.Sprintf("Store page fault: write to an unmapped or read-only page at address 0x%X", mtval))
		} else {
			causes = append(causes,
				fmt.Sprintf("Store access fault: write to address 0x%X was denied (no device there, ROM, or PMP forbids writes)", mtval))
		}
		causes = append(causes, fmt.Sprintf("Trapping instruction: 0x%X", mepc))

	case common.FaultEnvCall:
		causes = append(causes,
			fmt.Sprintf("Environment call from %s at 0x%X", envCallMode(code), mepc),
			"An ecall reached the machine trap handler; usually an unhandled system call.")

	default:
		causes = append(causes,
			fmt.Sprintf("Unrecognized exception code %d (mcause = 0x%X)", code, regs.Value("mcause")))
	}
	return causes
}

func envCallMode(code uint64) string {
	switch code {
	case codeEnvCallU:
		return "U-mode"
	case codeEnvCallS:
		return "S-mode"
	case codeEnvCallM:
		return "M-mode"
	default:
		return "unknown mode"
	}
}

// Recommend returns remediation text for the classified fault. Unlike the
// Cortex-M decoder, which mines its cause strings for keywords, the
// RISC-V fault types map directly to advice.
func (d *Decoder) Recommend(fault common.FaultType, causes []string) string {
	switch fault {
	case common.FaultNone:
		return ""
	case common.FaultInstrMisaligned, common.FaultLoadMisaligned, common.FaultStoreMisaligned:
		return "Check for casts of byte buffers to wider types and for hand-built addresses; use memcpy or aligned accessors."
	case common.FaultInstrAccess:
		return "Check for calls through corrupted function pointers and for a linker script that places code outside executable memory."
	case common.FaultLoadAccess, common.FaultStoreAccess:
		return "Check for invalid pointer dereferences (uninitialized, NULL, or freed pointers) and for stack overflow running past a memory region."
	case common.FaultIllegalInstr:
		return "Check that the binary was built for this core's ISA extensions (-march), and that execution did not jump into data."
	case common.FaultBreakpoint:
		return "The core stopped at an ebreak; if unexpected, look for compiled-in assertions or semihosting calls."
	case common.FaultEnvCall:
		return "An ecall was not handled; install or fix the environment-call handler, or check the syscall layer configuration."
	default:
		return "Examine mcause, mepc, and mtval above to locate the faulting code."
	}
}
