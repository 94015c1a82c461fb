package analyzer

import (
	"strings"

	"faultscope/common"
)

// Config holds the session settings the analyzer works from. The channel
// aside, everything the analyzer needs is captured here once per session.
type Config struct {
	// Architecture is the explicit architecture override from settings
	// ("cortex-m", "riscv32"/"rv32", "riscv64"/"rv64"). It beats every
	// form of inference.
	Architecture string

	// ToolchainPrefix is the session-level toolchain prefix override;
	// ToolchainPrefixSetting is the user-level setting. Override beats
	// setting beats the architecture default.
	ToolchainPrefix        string
	ToolchainPrefixSetting string

	// Device is the configured device/chip name (e.g. "STM32F407VG").
	Device string

	// ServerType is the configured debug server ("jlink", "openocd",
	// "stlink", ...).
	ServerType string

	// Executable is the path to the ELF image, used for symbolization.
	// When empty, frames the channel cannot attribute stay unresolved.
	Executable string

	// ThreadID selects the thread for the stack trace request.
	ThreadID int
}

// configuredPrefix returns the toolchain prefix available for inference,
// preferring the session override.
func (c Config) configuredPrefix() string {
	if c.ToolchainPrefix != "" {
		return c.ToolchainPrefix
	}
	return c.ToolchainPrefixSetting
}

// DetectArchitecture infers the decoder variant from configuration hints.
// Resolution precedence, first match wins:
//
//	(a) explicit architecture override,
//	(b) toolchain-prefix substring,
//	(c) device-name substring,
//	(d) server-type heuristic,
//	(e) Cortex-M default.
//
// The ordering is a compatibility guarantee: explicit configuration always
// wins over inference, and deployments configured before RISC-V support
// existed keep resolving to Cortex-M.
func DetectArchitecture(cfg Config) common.Architecture {
	if arch := parseArchOverride(cfg.Architecture); arch != common.ArchUnknown {
		return arch
	}
	if arch := archFromToolchain(cfg.configuredPrefix()); arch != common.ArchUnknown {
		return arch
	}
	if arch := archFromDevice(cfg.Device); arch != common.ArchUnknown {
		return arch
	}
	if arch := archFromServer(cfg.ServerType); arch != common.ArchUnknown {
		return arch
	}
	return common.ArchCortexM
}

func parseArchOverride(s string) common.Architecture {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cortex-m", "cortexm", "arm":
		return common.ArchCortexM
	case "riscv64", "rv64":
		return common.ArchRiscV64
	case "riscv32", "rv32", "riscv":
		return common.ArchRiscV32
	default:
		return common.ArchUnknown
	}
}

func archFromToolchain(prefix string) common.Architecture {
	p := strings.ToLower(prefix)
	switch {
	case p == "":
		return common.ArchUnknown
	case strings.Contains(p, "riscv64"):
		return common.ArchRiscV64
	case strings.Contains(p, "riscv"), strings.Contains(p, "rv32"):
		return common.ArchRiscV32
	case strings.Contains(p, "arm-none-eabi"):
		return common.ArchCortexM
	default:
		return common.ArchUnknown
	}
}

func archFromDevice(device string) common.Architecture {
	d := strings.ToLower(device)
	switch {
	case d == "":
		return common.ArchUnknown
	case strings.Contains(d, "cortex-m"), strings.Contains(d, "stm32"), strings.Contains(d, "nrf"):
		return common.ArchCortexM
	case strings.Contains(d, "rv64"), strings.Contains(d, "riscv64"):
		return common.ArchRiscV64
	case strings.Contains(d, "riscv"), strings.Contains(d, "rv32"):
		return common.ArchRiscV32
	default:
		return common.ArchUnknown
	}
}

func archFromServer(server string) common.Architecture {
	switch strings.ToLower(server) {
	case "jlink", "openocd", "stlink":
		return common.ArchCortexM
	default:
		return common.ArchUnknown
	}
}
