package dump

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

const sampleDump = `
description: hard fault after firmware update
device: STM32F407VG
server: openocd
toolchainPrefix: arm-none-eabi-
registers:
  xpsr: 0x61000003
memory:
  "0xE000ED28": 0x00000082
  "0xE000ED2C": 1073741824
stack:
  - pc: "0x08000496"
    function: MemManage_Handler
    file: src/startup.c
    line: 90
  - pc: "0x08001a30"
`

func TestParse(t *testing.T) {
	f, err := Parse([]byte(sampleDump))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if f.Device != "STM32F407VG" || f.Server != "openocd" {
		t.Errorf("hints = (%q, %q), want (STM32F407VG, openocd)", f.Device, f.Server)
	}

	// Hex strings and plain integers both parse.
	if got := uint64(f.Memory["0xE000ED28"]); got != 0x82 {
		t.Errorf("memory word = 0x%X, want 0x82", got)
	}
	if got := uint64(f.Memory["0xE000ED2C"]); got != 0x40000000 {
		t.Errorf("memory word = 0x%X, want 0x40000000", got)
	}
	if got := uint64(f.Registers["xpsr"]); got != 0x61000003 {
		t.Errorf("register = 0x%X, want 0x61000003", got)
	}

	wantStack := []Frame{
		{PC: "0x08000496", Function: "MemManage_Handler", File: "src/startup.c", Line: 90},
		{PC: "0x08001a30"},
	}
	if diff := cmp.Diff(wantStack, f.Stack); diff != "" {
		t.Errorf("stack mismatch (-want +got):\n%s", diff)
	}
}

func TestParseRejectsEmptyDump(t *testing.T) {
	if _, err := Parse([]byte("description: nothing captured\n")); err == nil {
		t.Fatal("expected error for a dump with no registers and no memory")
	}
}

func TestParseRejectsBadValue(t *testing.T) {
	if _, err := Parse([]byte("registers:\n  mcause: not-a-number\n")); err == nil {
		t.Fatal("expected error for an unparseable value")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("testdata/does-not-exist.yaml"); err == nil {
		t.Fatal("expected error for a missing file")
	}
}
