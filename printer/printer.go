// Package printer renders a FaultAnalysis as a human-readable report.
package printer

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"faultscope/common"
)

// NoFaultMessage is printed when analysis finds no pending exception.
const NoFaultMessage = "No exception is pending on the target."

var (
	headerStyle  = color.New(color.FgRed, color.Bold)
	sectionStyle = color.New(color.FgCyan, color.Bold)
	causeStyle   = color.New(color.FgYellow)
	adviceStyle  = color.New(color.FgGreen)
)

// FormatAnalysis renders the full report: fault type, probable causes,
// fault address, register snapshot, call stack, and recommendation.
func FormatAnalysis(a *common.FaultAnalysis) string {
	if a == nil {
		return NoFaultMessage + "\n"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s  [%s]\n", headerStyle.Sprintf("FAULT DETECTED: %s", a.FaultType), a.Architecture)

	if a.AddressValid {
		fmt.Fprintf(&b, "Faulting address: 0x%08X\n", a.Address)
	}

	if len(a.Causes) > 0 {
		fmt.Fprintf(&b, "\n%s\n", sectionStyle.Sprint("Probable causes:"))
		for _, cause := range a.Causes {
			fmt.Fprintf(&b, "  - %s\n", causeStyle.Sprint(cause))
		}
	}

	if len(a.Registers) > 0 {
		fmt.Fprintf(&b, "\n%s\n", sectionStyle.Sprint("Fault status registers:"))
		for _, name := range a.Registers.Names() {
			fmt.Fprintf(&b, "  %-8s = %s\n", name, formatRegValue(a.Registers.Value(name)))
		}
	}

	if len(a.CallStack) > 0 {
		fmt.Fprintf(&b, "\n%s\n", sectionStyle.Sprint("Call stack (innermost first):"))
		for i, frame := range a.CallStack {
			fmt.Fprintf(&b, "  #%-2d %s\n", i, formatFrame(frame))
		}
	}

	if a.Recommendation != "" {
		fmt.Fprintf(&b, "\n%s\n", sectionStyle.Sprint("Recommendation:"))
		for _, line := range strings.Split(a.Recommendation, "\n") {
			fmt.Fprintf(&b, "  %s\n", adviceStyle.Sprint(line))
		}
	}
	return b.String()
}

// Fprint writes the rendered report to w.
func Fprint(w io.Writer, a *common.FaultAnalysis) {
	io.WriteString(w, FormatAnalysis(a))
}

// formatRegValue prints 32-bit values with 8 hex digits and wider values
// with 16, so RV64 CSRs keep their upper halves visible.
func formatRegValue(v uint64) string {
	if v > 0xFFFFFFFF {
		return fmt.Sprintf("0x%016X", v)
	}
	return fmt.Sprintf("0x%08X", v)
}

func formatFrame(f common.StackFrame) string {
	name := f.Function
	if name == "" {
		name = "<unknown>"
	}
	if f.Resolved() {
		return fmt.Sprintf("0x%08X  %s (%s:%d)", f.PC, name, f.File, f.Line)
	}
	return fmt.Sprintf("0x%08X  %s", f.PC, name)
}
