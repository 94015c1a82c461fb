package analyzer

import (
	"testing"

	"faultscope/common"
)

func TestDetectArchitecture(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want common.Architecture
	}{
		// (e) no hints at all: legacy deployments keep resolving Cortex-M.
		{"empty config defaults to cortex-m", Config{}, common.ArchCortexM},

		// (a) explicit override wins over every inference.
		{"explicit cortex-m", Config{Architecture: "cortex-m"}, common.ArchCortexM},
		{"explicit riscv32", Config{Architecture: "riscv32"}, common.ArchRiscV32},
		{"explicit rv64", Config{Architecture: "rv64"}, common.ArchRiscV64},
		{"explicit riscv defaults to 32-bit", Config{Architecture: "riscv"}, common.ArchRiscV32},
		{
			"override beats contradicting toolchain and device",
			Config{Architecture: "cortex-m", ToolchainPrefix: "riscv64-unknown-elf-", Device: "riscv64"},
			common.ArchCortexM,
		},

		// (b) toolchain prefix substring.
		{"arm toolchain", Config{ToolchainPrefix: "arm-none-eabi-"}, common.ArchCortexM},
		{"riscv64 toolchain", Config{ToolchainPrefix: "riscv64-unknown-elf-"}, common.ArchRiscV64},
		{"riscv32 toolchain", Config{ToolchainPrefix: "riscv32-unknown-elf-"}, common.ArchRiscV32},
		{"rv32 toolchain", Config{ToolchainPrefix: "rv32imac-custom-"}, common.ArchRiscV32},
		{"user-setting prefix also counts", Config{ToolchainPrefixSetting: "riscv64-linux-gnu-"}, common.ArchRiscV64},
		{
			"toolchain beats contradicting device",
			Config{ToolchainPrefix: "riscv64-unknown-elf-", Device: "stm32f4"},
			common.ArchRiscV64,
		},

		// (c) device-name substring; width decided by the rv64 substring.
		{"cortex-m device", Config{Device: "Cortex-M4"}, common.ArchCortexM},
		{"stm32 device", Config{Device: "STM32F407VG"}, common.ArchCortexM},
		{"nrf device", Config{Device: "nRF52840_xxAA"}, common.ArchCortexM},
		{"riscv device", Config{Device: "fe310-riscv"}, common.ArchRiscV32},
		{"rv64 device", Config{Device: "sifive-rv64gc"}, common.ArchRiscV64},
		{
			"device beats contradicting server",
			Config{Device: "rv32imc-soc", ServerType: "jlink"},
			common.ArchRiscV32,
		},

		// (d) server-type heuristic.
		{"jlink server", Config{ServerType: "jlink"}, common.ArchCortexM},
		{"openocd server", Config{ServerType: "openocd"}, common.ArchCortexM},
		{"stlink server", Config{ServerType: "stlink"}, common.ArchCortexM},
		{"unknown server falls to default", Config{ServerType: "qemu"}, common.ArchCortexM},

		// Unrecognized override falls through to inference.
		{
			"bad override falls through to toolchain",
			Config{Architecture: "mips", ToolchainPrefix: "riscv32-unknown-elf-"},
			common.ArchRiscV32,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectArchitecture(tt.cfg); got != tt.want {
				t.Errorf("DetectArchitecture() = %v, want %v", got, tt.want)
			}
		})
	}
}
