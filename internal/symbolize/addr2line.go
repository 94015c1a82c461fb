// Package symbolize resolves raw instruction addresses to function names
// and source locations by invoking the toolchain's addr2line binary.
package symbolize

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	"fortio.org/safecast"
)

// Result is one resolved address. Zero-value fields mean "unresolved":
// addr2line prints "??" for unknown functions and "??:0" (or "??:?") for
// unknown locations, and both are normalized to empty/zero here.
type Result struct {
	Function string
	File     string
	Line     int // 1-based, 0 if unresolved
}

// fileLineRe captures the "path:line" form of addr2line's second output
// line. The path may itself contain colons, so the match is anchored on
// the final colon.
var fileLineRe = regexp.MustCompile(`^(.*):(\d+)$`)

// Addr2Line invokes <toolchainPrefix>addr2line against a fixed executable.
type Addr2Line struct {
	ToolchainPrefix string
	ExecutablePath  string
}

// New creates an addr2line symbolizer for the given toolchain prefix and
// ELF executable.
func New(toolchainPrefix, executablePath string) *Addr2Line {
	return &Addr2Line{ToolchainPrefix: toolchainPrefix, ExecutablePath: executablePath}
}

// Symbolize runs addr2line for one address. The -f flag requests the
// function name, -C demangles it; output is two lines, function name then
// file:line.
func (a *Addr2Line) Symbolize(ctx context.Context, pc uint64) (Result, error) {
	cmd := exec.CommandContext(ctx, a.ToolchainPrefix+"addr2line",
		"-e", a.ExecutablePath, "-f", "-C", fmt.Sprintf("0x%x", pc))
	out, err := cmd.Output()
	if err != nil {
		return Result{}, fmt.Errorf("%saddr2line 0x%x: %w", a.ToolchainPrefix, pc, err)
	}
	return ParseOutput(string(out))
}

// ParseOutput parses addr2line's two-line stdout form. Split out from the
// process invocation so it is testable without a toolchain installed.
func ParseOutput(out string) (Result, error) {
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) < 2 {
		return Result{}, fmt.Errorf("unexpected addr2line output %q", out)
	}

	var res Result
	if fn := strings.TrimSpace(lines[0]); fn != "" && fn != "??" {
		res.Function = fn
	}

	m := fileLineRe.FindStringSubmatch(strings.TrimSpace(lines[1]))
	if m == nil || m[1] == "??" {
		return res, nil
	}
	n, err := strconv.ParseUint(m[2], 10, 64)
	if err != nil {
		return res, nil
	}
	line, err := safecast.Conv[int](n)
	if err != nil || line == 0 {
		return res, nil
	}
	res.File = m[1]
	res.Line = line
	return res, nil
}
