package dump

import (
	"context"
	"encoding/binary"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"fortio.org/safecast"

	"faultscope/common"
)

// region is one contiguous span of captured memory. Adjacent captured
// words are merged into regions when the channel is built.
type region struct {
	base uint64
	data []byte
}

func (r *region) contains(addr uint64) bool {
	return addr >= r.base && addr < r.base+uint64(len(r.data))
}

func (r *region) read(addr uint64, count int) []byte {
	offset := addr - r.base
	available := uint64(len(r.data)) - offset
	toRead := uint64(count)
	if toRead > available {
		toRead = available
	}
	return r.data[offset : offset+toRead]
}

// Channel serves a loaded dump through the DebugChannel interface.
type Channel struct {
	registers map[string]uint64
	regions   []*region
	frames    []common.RawStackFrame
}

// NewChannel builds a channel over the parsed dump file.
func NewChannel(f *File) (*Channel, error) {
	ch := &Channel{registers: make(map[string]uint64, len(f.Registers))}
	for name, v := range f.Registers {
		ch.registers[name] = uint64(v)
	}

	regions, err := buildRegions(f.Memory)
	if err != nil {
		return nil, err
	}
	ch.regions = regions

	ch.frames = make([]common.RawStackFrame, len(f.Stack))
	for i, fr := range f.Stack {
		ch.frames[i] = common.RawStackFrame{
			InstructionPointer: fr.PC,
			Name:               fr.Function,
			SourcePath:         fr.File,
			Line:               fr.Line,
		}
	}
	return ch, nil
}

// buildRegions converts the address->word map into sorted contiguous
// regions, little-endian, so byte-granular reads across word boundaries
// work the same as against a live target.
func buildRegions(memory map[string]Value) ([]*region, error) {
	type word struct {
		addr  uint64
		value uint32
	}
	words := make([]word, 0, len(memory))
	for addrStr, v := range memory {
		addr, err := strconv.ParseUint(addrStr, 0, 64)
		if err != nil {
			return nil, fmt.Errorf("parse memory address %q: %w", addrStr, err)
		}
		value, err := safecast.Conv[uint32](uint64(v))
		if err != nil {
			return nil, fmt.Errorf("memory word at %s: value 0x%X exceeds 32 bits", addrStr, uint64(v))
		}
		words = append(words, word{addr: addr, value: value})
	}
	sort.Slice(words, func(i, j int) bool { return words[i].addr < words[j].addr })

	var regions []*region
	var current *region
	for _, w := range words {
		if current == nil || w.addr != current.base+uint64(len(current.data)) {
			current = &region{base: w.addr}
			regions = append(regions, current)
		}
		current.data = binary.LittleEndian.AppendUint32(current.data, w.value)
	}
	return regions, nil
}

// Evaluate serves register reads from the captured register map. Both the
// watch form ("$mcause") and the console form ("-exec info registers
// mcause") are answered, mirroring what a live session would return.
func (c *Channel) Evaluate(ctx context.Context, expression, evalContext string) (string, error) {
	switch {
	case strings.HasPrefix(expression, "$"):
		name := expression[1:]
		v, ok := c.registers[name]
		if !ok {
			return "", fmt.Errorf("register %s not captured in dump", name)
		}
		return fmt.Sprintf("0x%x", v), nil
	case strings.HasPrefix(expression, "-exec info registers "):
		name := strings.TrimPrefix(expression, "-exec info registers ")
		v, ok := c.registers[name]
		if !ok {
			return "", fmt.Errorf("register %s not captured in dump", name)
		}
		return fmt.Sprintf("%-15s0x%-18x%d", name, v, v), nil
	default:
		return "", fmt.Errorf("unsupported expression %q", expression)
	}
}

// ReadMemory serves captured memory words. Reads may span adjacent words;
// a read into an uncaptured address fails, and a read running off the end
// of a captured region is returned short, as a live target would.
func (c *Channel) ReadMemory(ctx context.Context, addr uint64, count int) ([]byte, error) {
	for _, r := range c.regions {
		if r.contains(addr) {
			return r.read(addr, count), nil
		}
	}
	return nil, fmt.Errorf("address 0x%X not captured in dump", addr)
}

// StackTrace serves the captured stack trace.
func (c *Channel) StackTrace(ctx context.Context, threadID, startFrame, levels int) ([]common.RawStackFrame, error) {
	if startFrame >= len(c.frames) {
		return nil, nil
	}
	end := startFrame + levels
	if levels <= 0 || end > len(c.frames) {
		end = len(c.frames)
	}
	return c.frames[startFrame:end], nil
}
