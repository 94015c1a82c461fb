package cortexm

import (
	"fmt"
	"strings"

	"faultscope/common"
)

// causeBit maps one status register bit to its cause text.
type causeBit struct {
	bit  uint
	text string
}

var mmfsrCauses = []causeBit{
	{0, "Instruction access violation (attempt to execute from a protected or invalid region)"},
	{1, "Data access violation (load or store to a protected or invalid address)"},
	{3, "Unstacking error: MemManage fault on exception return (stack pointer or stacked frame corrupted)"},
	{4, "Stacking error: MemManage fault on exception entry (possible stack overflow)"},
	{5, "MemManage fault during lazy floating-point state preservation"},
}

var bfsrCauses = []causeBit{
	{0, "Instruction bus error (prefetch from an invalid address)"},
	{1, "Precise data bus error (the instruction at the stacked PC caused the fault)"},
	{2, "Imprecise data bus error (the faulting write may be earlier in the instruction stream)"},
	{3, "Unstacking error: bus fault on exception return"},
	{4, "Stacking error: bus fault on exception entry (possible stack overflow)"},
	{5, "Bus fault during lazy floating-point state preservation"},
}

var ufsrCauses = []causeBit{
	{0, "Undefined instruction executed"},
	{1, "Invalid state: EPSR Thumb bit cleared (branch to an even address or corrupt function pointer)"},
	{2, "Invalid PC load on exception return (corrupt EXC_RETURN or stacked frame)"},
	{3, "No coprocessor: access to a disabled or absent coprocessor (FPU not enabled?)"},
	{8, "Unaligned access while unaligned trapping is enabled, or a multi-word access that is never allowed unaligned"},
	{9, "Divide by zero (CCR.DIV_0_TRP is set)"},
}

var hfsrCauses = []causeBit{
	{1, "Bus fault on vector table read (vector table address or VTOR corrupt)"},
	{30, "Forced hard fault: a configurable fault escalated because its handler was disabled or it faulted inside a handler"},
	{31, "Debug event while debug is disabled"},
}

var dfsrCauses = []causeBit{
	{0, "Halt request debug event"},
	{1, "Breakpoint debug event (BKPT instruction or FPB match)"},
	{2, "DWT watchpoint debug event"},
	{3, "Vector catch debug event"},
	{4, "External debug request"},
}

// AnalyzeFaultCause returns one human-readable line per set bit in the
// status register selected by the fault type, in ascending bit order.
// When the address-valid bit is set, a line quoting the corresponding
// address register is appended. Pure: no I/O, identical input yields
// identical output.
func (d *Decoder) AnalyzeFaultCause(fault common.FaultType, regs common.RegisterSnapshot) []string {
	switch fault {
	case common.FaultMemManage:
		causes := collectCauses(mmfsr(regs), mmfsrCauses)
		if mmfsr(regs)&mmfsrMMARValID != 0 {
			causes = append(causes, fmt.Sprintf("MMFAR holds a valid fault address: 0x%08X", regs.Value("MMFAR")))
		}
		return causes
	case common.FaultBus:
		causes := collectCauses(bfsr(regs), bfsrCauses)
		if bfsr(regs)&bfsrBFARVALID != 0 {
			causes = append(causes, fmt.Sprintf("BFAR holds a valid fault address: 0x%08X", regs.Value("BFAR")))
		}
		return causes
	case common.FaultUsage:
		return collectCauses(ufsr(regs), ufsrCauses)
	case common.FaultHard:
		return collectCauses(regs.Value("HFSR"), hfsrCauses)
	case common.FaultDebug:
		return collectCauses(regs.Value("DFSR"), dfsrCauses)
	}
	return nil
}

func collectCauses(status uint64, table []causeBit) []string {
	var causes []string
	for _, c := range table {
		if status&(1<<c.bit) != 0 {
			causes = append(causes, c.text)
		}
	}
	return causes
}

// remediation pairs a cause-text keyword with its canned advice line.
// Matching is case-insensitive substring search over the cause lines.
var remediations = []struct {
	keywords []string
	advice   string
}{
	{[]string{"stack"},
		"Check for stack overflow: increase the stack size or reduce usage (large locals, deep recursion, nested interrupts)."},
	{[]string{"pointer", "address"},
		"Check for invalid pointer dereferences: uninitialized, NULL, or freed pointers, and out-of-bounds array indexing."},
	{[]string{"divide by zero"},
		"Check for integer division by zero; validate divisors before dividing."},
	{[]string{"unaligned"},
		"Check for unaligned accesses, typically from casting a byte buffer to a wider type; use memcpy or packed-access helpers."},
	{[]string{"undefined instruction"},
		"Check that the binary matches the target core and that function pointers are valid; a corrupted PC executes data as code."},
}

const genericAdvice = "Examine the fault status registers and the call stack above to locate the faulting code."

// Recommend derives remediation text by keyword-matching the cause lines
// already produced, one advice line per matched keyword group, with a
// generic fallback when nothing matches.
func (d *Decoder) Recommend(fault common.FaultType, causes []string) string {
	if fault == common.FaultNone {
		return ""
	}
	haystack := strings.ToLower(strings.Join(causes, "\n"))
	var lines []string
	for _, r := range remediations {
		for _, kw := range r.keywords {
			if strings.Contains(haystack, kw) {
				lines = append(lines, r.advice)
				break
			}
		}
	}
	if len(lines) == 0 {
		lines = append(lines, genericAdvice)
	}
	return strings.Join(lines, "\n")
}
