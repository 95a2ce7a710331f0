package main

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/tamzrod/modbus-sync/internal/frame"
)

// parseUint16 accepts decimal, 0x hex, 0o octal and 0b binary.
func parseUint16(s string) (uint16, error) {
	v, err := strconv.ParseUint(s, 0, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid value %q: %w", s, err)
	}
	return uint16(v), nil
}

func parseRange(addr, cnt string) (uint16, uint16, error) {
	a, err := parseUint16(addr)
	if err != nil {
		return 0, 0, err
	}
	c, err := parseUint16(cnt)
	if err != nil {
		return 0, 0, err
	}
	return a, c, nil
}

func parseWords(args []string) ([]uint16, error) {
	out := make([]uint16, len(args))
	for i, a := range args {
		v, err := parseUint16(a)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func parseCoil(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "1", "on", "true":
		return true, nil
	case "0", "off", "false":
		return false, nil
	}
	return false, fmt.Errorf("invalid coil value %q", s)
}

func parseCoils(args []string) ([]bool, error) {
	out := make([]bool, len(args))
	for i, a := range args {
		v, err := parseCoil(a)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func parseFunctionCode(s string) (frame.FunctionCode, error) {
	v, err := strconv.ParseUint(s, 0, 8)
	if err != nil || v == 0 || frame.FunctionCode(v).IsException() {
		return 0, fmt.Errorf("invalid function code %q", s)
	}
	return frame.FunctionCode(v), nil
}

// parseHex accepts "0a0b", "0a 0b" and "0a:0b".
func parseHex(s string) ([]byte, error) {
	s = strings.NewReplacer(" ", "", ":", "").Replace(s)
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex data: %w", err)
	}
	return b, nil
}
