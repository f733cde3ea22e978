/*
 * nucleus - Machine configuration file parser.
 *
 * Copyright 2026, nucleus contributors
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

// Package config loads the small key-value file that describes the
// simulated machine: how many CPUs to bring up, the hardclock rate, how
// much physical memory and swap to simulate, and the working-set limit
// each address space gets.
package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
)

// Machine holds the machine parameters loaded from a configuration file,
// defaulted to a small single-CPU machine.
type Machine struct {
	CPUs       int    // number of simulated CPUs
	HZ         int    // hardclock rate in ticks per second
	Frames     int    // physical page frames in the page-frame database
	DrumSlots  int    // swap slots on the drum
	WSLLimit   int    // per-address-space working-set limit, in pages
	LogFile    string // optional log file path, empty for stderr only
}

// Default returns the baseline single-CPU configuration used when no
// config file is given.
func Default() *Machine {
	return &Machine{
		CPUs:      1,
		HZ:        100,
		Frames:    256,
		DrumSlots: 64,
		WSLLimit:  16,
	}
}

var fields = map[string]func(m *Machine, value string) error{
	"cpus": func(m *Machine, v string) error { return setInt(&m.CPUs, v) },
	"hz":   func(m *Machine, v string) error { return setInt(&m.HZ, v) },
	"frames": func(m *Machine, v string) error { return setInt(&m.Frames, v) },
	"drumslots": func(m *Machine, v string) error { return setInt(&m.DrumSlots, v) },
	"wsllimit": func(m *Machine, v string) error { return setInt(&m.WSLLimit, v) },
	"logfile": func(m *Machine, v string) error { m.LogFile = v; return nil },
}

func setInt(dst *int, v string) error {
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("not a number: %q", v)
	}
	*dst = n
	return nil
}

// LoadFile reads a configuration file into a Machine starting from
// Default(). Each non-comment, non-blank line is "key value"; '#' starts a
// comment that runs to the end of the line. Unknown keys are an error, as
// is a malformed numeric value.
func LoadFile(path string) (*Machine, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m := Default()
	scanner := bufio.NewScanner(f)
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		if err := parseLine(m, scanner.Text()); err != nil {
			return nil, fmt.Errorf("config: line %d: %w", lineNumber, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return m, nil
}

// parseLine handles one line of the config grammar: skip leading space,
// strip a trailing '#' comment, and split the remainder into a key and a
// single value token.
func parseLine(m *Machine, line string) error {
	if i := strings.IndexByte(line, '#'); i >= 0 {
		line = line[:i]
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}

	fieldsOf := strings.FieldsFunc(line, unicode.IsSpace)
	if len(fieldsOf) != 2 {
		return fmt.Errorf("expected \"key value\", got %q", line)
	}

	key := strings.ToLower(fieldsOf[0])
	setter, ok := fields[key]
	if !ok {
		return fmt.Errorf("unknown option %q", fieldsOf[0])
	}
	return setter(m, fieldsOf[1])
}
