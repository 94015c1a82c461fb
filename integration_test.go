package faultscope_test

import (
	"context"
	"strings"
	"testing"

	"github.com/fatih/color"

	"faultscope/analyzer"
	"faultscope/common"
	"faultscope/printer"
	"faultscope/tests/helpers"
)

// End-to-end runs over dump fixtures: load the dump, detect the
// architecture from its hints, analyze, and render the report.
func TestAnalyzeDumpFixtures(t *testing.T) {
	color.NoColor = true

	t.Run("cortex-m bus fault", func(t *testing.T) {
		f, ch := helpers.LoadDumpFixture(t, "tests/testdata/cortexm-busfault.yaml")
		a := analyzer.New(ch, helpers.SessionConfig(f))

		if a.Architecture() != common.ArchCortexM {
			t.Fatalf("detected %v, want Cortex-M from the openocd/stm32 hints", a.Architecture())
		}

		analysis, err := a.Analyze(context.Background())
		if err != nil {
			t.Fatalf("Analyze failed: %v", err)
		}
		if analysis == nil {
			t.Fatal("Analyze() = nil, want a bus fault")
		}
		// FORCED escalation with a non-zero BFSR attributes the bus fault.
		if analysis.FaultType != common.FaultBus {
			t.Errorf("FaultType = %v, want %v", analysis.FaultType, common.FaultBus)
		}
		if !analysis.AddressValid || analysis.Address != 0x60000000 {
			t.Errorf("Address = (0x%X, %v), want (0x60000000, true)", analysis.Address, analysis.AddressValid)
		}

		report := printer.FormatAnalysis(analysis)
		for _, fragment := range []string{
			"FAULT DETECTED: Bus Fault",
			"Faulting address: 0x60000000",
			"Precise data bus error",
			"sram_probe (src/board/sram.c:77)",
			"main (src/main.c:19)",
			"Recommendation:",
		} {
			if !strings.Contains(report, fragment) {
				t.Errorf("report missing %q:\n%s", fragment, report)
			}
		}
	})

	t.Run("riscv64 store page fault", func(t *testing.T) {
		f, ch := helpers.LoadDumpFixture(t, "tests/testdata/riscv64-store-pagefault.yaml")
		a := analyzer.New(ch, helpers.SessionConfig(f))

		if a.Architecture() != common.ArchRiscV64 {
			t.Fatalf("detected %v, want RV64 from the explicit override", a.Architecture())
		}

		analysis, err := a.Analyze(context.Background())
		if err != nil {
			t.Fatalf("Analyze failed: %v", err)
		}
		if analysis == nil {
			t.Fatal("Analyze() = nil, want a store fault")
		}
		if analysis.FaultType != common.FaultStoreAccess {
			t.Errorf("FaultType = %v, want %v", analysis.FaultType, common.FaultStoreAccess)
		}
		if !analysis.AddressValid || analysis.Address != 0x2000 {
			t.Errorf("Address = (0x%X, %v), want (0x2000, true)", analysis.Address, analysis.AddressValid)
		}

		report := printer.FormatAnalysis(analysis)
		for _, fragment := range []string{
			"FAULT DETECTED: Store Access Fault",
			"[RISC-V (RV64)]",
			"page fault",
			"write_config (src/config.c:33)",
		} {
			if !strings.Contains(report, fragment) {
				t.Errorf("report missing %q:\n%s", fragment, report)
			}
		}
	})

	t.Run("clean target yields nil", func(t *testing.T) {
		f, ch := helpers.LoadDumpFixture(t, "tests/testdata/cortexm-clean.yaml")
		a := analyzer.New(ch, helpers.SessionConfig(f))

		analysis, err := a.Analyze(context.Background())
		if err != nil {
			t.Fatalf("Analyze failed: %v", err)
		}
		if analysis != nil {
			t.Errorf("Analyze() = %+v, want nil for a clean target", analysis)
		}
		if got := printer.FormatAnalysis(analysis); !strings.Contains(got, printer.NoFaultMessage) {
			t.Errorf("report = %q, want the no-fault message", got)
		}
	})
}
