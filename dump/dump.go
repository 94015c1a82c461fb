// Package dump loads post-mortem fault dumps: a YAML capture of register
// values, memory words, and optionally the stack trace, taken from a
// crashed target. A loaded dump is served back through the DebugChannel
// interface so the analyzer runs unchanged against it.
package dump

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Value is an unsigned integer that unmarshals from either a YAML integer
// or a hex string ("0xE000ED28").
type Value uint64

// UnmarshalYAML implements yaml.Unmarshaler.
func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	var n uint64
	if err := node.Decode(&n); err == nil {
		*v = Value(n)
		return nil
	}
	var s string
	if err := node.Decode(&s); err != nil {
		return fmt.Errorf("value must be an integer or hex string: %w", err)
	}
	n, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return fmt.Errorf("parse value %q: %w", s, err)
	}
	*v = Value(n)
	return nil
}

// Frame is one captured stack frame.
type Frame struct {
	PC       string `yaml:"pc"`
	Function string `yaml:"function"`
	File     string `yaml:"file"`
	Line     int    `yaml:"line"`
}

// File is the parsed dump file. The configuration hints (device, server,
// toolchain prefix, architecture) travel with the dump so an offline
// analysis detects the same architecture the live session would have.
type File struct {
	Description     string `yaml:"description"`
	Device          string `yaml:"device"`
	Architecture    string `yaml:"architecture"`
	Server          string `yaml:"server"`
	ToolchainPrefix string `yaml:"toolchainPrefix"`

	// Registers maps register names (CSRs, or named captures) to values.
	Registers map[string]Value `yaml:"registers"`

	// Memory maps hex addresses to captured 32-bit words, covering at
	// least the memory-mapped fault registers on Cortex-M targets.
	Memory map[string]Value `yaml:"memory"`

	// Stack is the captured stack trace, innermost frame first.
	Stack []Frame `yaml:"stack"`
}

// Load reads and parses a dump file from disk.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dump: %w", err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse dump %s: %w", path, err)
	}
	return f, nil
}

// Parse parses dump file contents.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	if len(f.Registers) == 0 && len(f.Memory) == 0 {
		return nil, fmt.Errorf("dump contains no registers and no memory")
	}
	return &f, nil
}
