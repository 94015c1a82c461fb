package common

// StackFrame is one frame of the reconstructed call stack.
// Frame 0 is the innermost frame, where the fault occurred.
type StackFrame struct {
	PC       uint64 // Program counter for this frame
	LR       uint64 // Link register value, if the channel reported one
	LRValid  bool   // True if LR holds a reported value
	Function string // Function name, empty if unresolved
	File     string // Source file path, empty if unresolved
	Line     int    // 1-based source line, 0 if unresolved
}

// Resolved reports whether the frame carries source attribution.
func (f StackFrame) Resolved() bool {
	return f.File != "" && f.Line > 0
}

// FaultAnalysis is the aggregate result of one analysis run. It is
// constructed exactly once per Analyze call and never mutated afterward;
// it is handed to the presentation layer and discarded.
type FaultAnalysis struct {
	FaultType      FaultType
	Causes         []string // Human-readable cause lines, decoder-defined order
	Address        uint64   // Faulting memory address, when the architecture reports one
	AddressValid   bool     // True if Address holds a reported value
	Registers      RegisterSnapshot
	CallStack      []StackFrame // Innermost frame first
	Recommendation string
	Architecture   Architecture
}
