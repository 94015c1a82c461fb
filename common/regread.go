package common

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var hexValueRe = regexp.MustCompile(`0x[0-9a-fA-F]+`)

// readStrategy is one way of obtaining a register value from the channel.
// Strategies are tried in order and the first success wins; the ordering is
// significant because earlier strategies are cheaper.
type readStrategy func(ctx context.Context, ch DebugChannel, name string) (uint64, error)

// registerReadStrategies is the ordered fallback chain for named register
// reads. Direct expression evaluation first, then the console fallback that
// scrapes the value out of "info registers" output.
var registerReadStrategies = []readStrategy{
	readRegisterWatch,
	readRegisterConsole,
}

// ReadRegister reads a named register through the debug channel, trying
// each acquisition strategy in order. It returns an error only when every
// strategy has failed.
func ReadRegister(ctx context.Context, ch DebugChannel, name string) (uint64, error) {
	var lastErr error
	for _, strategy := range registerReadStrategies {
		v, err := strategy(ctx, ch, name)
		if err == nil {
			return v, nil
		}
		lastErr = err
	}
	return 0, fmt.Errorf("read register %s: %w", name, lastErr)
}

// readRegisterWatch evaluates "$<name>" as a watch expression.
func readRegisterWatch(ctx context.Context, ch DebugChannel, name string) (uint64, error) {
	result, err := ch.Evaluate(ctx, "$"+name, "watch")
	if err != nil {
		return 0, err
	}
	return parseRegisterValue(result)
}

// readRegisterConsole falls back to the console form "info registers <name>"
// and extracts the value from the first hex literal in the output.
func readRegisterConsole(ctx context.Context, ch DebugChannel, name string) (uint64, error) {
	result, err := ch.Evaluate(ctx, "-exec info registers "+name, "repl")
	if err != nil {
		return 0, err
	}
	match := hexValueRe.FindString(result)
	if match == "" {
		return 0, fmt.Errorf("no hex value in register output %q", result)
	}
	return strconv.ParseUint(match[2:], 16, 64)
}

// parseRegisterValue parses an evaluate result. Debug adapters return
// either a hex literal, a plain decimal, or a longer string containing a
// hex literal (e.g. "0x20000000 <stack_top>").
func parseRegisterValue(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty register value")
	}
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		if v, err := strconv.ParseUint(s[2:], 16, 64); err == nil {
			return v, nil
		}
	}
	if v, err := strconv.ParseUint(s, 10, 64); err == nil {
		return v, nil
	}
	if match := hexValueRe.FindString(s); match != "" {
		return strconv.ParseUint(match[2:], 16, 64)
	}
	return 0, fmt.Errorf("unparseable register value %q", s)
}
