// Command faultscope analyzes why an embedded target entered an exception
// state, from a post-mortem fault dump file.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"faultscope/analyzer"
	"faultscope/common"
	"faultscope/dump"
	"faultscope/printer"
)

var (
	dumpPath   string
	elfPath    string
	archName   string
	deviceName string
	serverType string
	toolPrefix string
	threadID   int
	noColor    bool
	verbose    bool
)

func main() {
	root := &cobra.Command{
		Use:           "faultscope",
		Short:         "Diagnose embedded CPU fault states",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&archName, "arch", "", "Architecture override (cortex-m, riscv32, riscv64)")
	root.PersistentFlags().StringVar(&deviceName, "device", "", "Device name hint (e.g. STM32F407VG)")
	root.PersistentFlags().StringVar(&serverType, "server", "", "Debug server type hint (jlink, openocd, stlink)")
	root.PersistentFlags().StringVar(&toolPrefix, "toolchain-prefix", "", "Toolchain prefix override (e.g. arm-none-eabi-)")
	root.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")

	root.AddCommand(newAnalyzeCmd(), newDetectCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze a fault from a post-mortem dump file",
		Long: `Read a fault dump, classify the exception, and print probable causes,
the faulting address, the call stack, and remediation advice.

Examples:
  # Analyze a Cortex-M hard fault dump
  faultscope analyze --dump fault.yaml --elf firmware.elf

  # Analyze a RISC-V dump, forcing the architecture
  faultscope analyze --dump fault.yaml --arch riscv64 --elf app.elf`,
		RunE: runAnalyze,
	}
	cmd.Flags().StringVar(&dumpPath, "dump", "", "Path to the fault dump file (required)")
	cmd.Flags().StringVar(&elfPath, "elf", "", "Path to the ELF image, for symbolizing stack frames")
	cmd.Flags().IntVar(&threadID, "thread", 0, "Thread to take the stack trace from")
	cmd.MarkFlagRequired("dump")
	return cmd
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	if noColor {
		color.NoColor = true
	}

	f, err := dump.Load(dumpPath)
	if err != nil {
		return err
	}
	ch, err := dump.NewChannel(f)
	if err != nil {
		return err
	}

	a := analyzer.New(ch, sessionConfig(f))
	if verbose {
		a.SetLogger(common.NewStdLogger(common.SeverityDebug))
	}

	spin := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	spin.Suffix = fmt.Sprintf(" Analyzing fault state (%s)...", a.Architecture())
	if !noColor {
		spin.Start()
	}
	analysis, err := a.Analyze(context.Background())
	spin.Stop()
	if err != nil {
		return err
	}

	printer.Fprint(os.Stdout, analysis)
	return nil
}

func newDetectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "detect",
		Short: "Show which architecture the detector resolves for the given hints",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := analyzer.Config{
				Architecture:    archName,
				ToolchainPrefix: toolPrefix,
				Device:          deviceName,
				ServerType:      serverType,
			}
			if dumpPath != "" {
				f, err := dump.Load(dumpPath)
				if err != nil {
					return err
				}
				cfg = mergeHints(cfg, f)
			}
			fmt.Println(analyzer.DetectArchitecture(cfg))
			return nil
		},
	}
	cmd.Flags().StringVar(&dumpPath, "dump", "", "Read hints from a fault dump file")
	return cmd
}

// sessionConfig merges command-line hints over the hints carried in the
// dump file; explicit flags win.
func sessionConfig(f *dump.File) analyzer.Config {
	return mergeHints(analyzer.Config{
		Architecture:    archName,
		ToolchainPrefix: toolPrefix,
		Device:          deviceName,
		ServerType:      serverType,
		Executable:      elfPath,
		ThreadID:        threadID,
	}, f)
}

func mergeHints(cfg analyzer.Config, f *dump.File) analyzer.Config {
	if cfg.Architecture == "" {
		cfg.Architecture = f.Architecture
	}
	if cfg.ToolchainPrefix == "" {
		cfg.ToolchainPrefix = f.ToolchainPrefix
	}
	if cfg.Device == "" {
		cfg.Device = f.Device
	}
	if cfg.ServerType == "" {
		cfg.ServerType = f.Server
	}
	return cfg
}
