/*
 * nucleus - Machine configuration file parser tests.
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
package config

import (
	"os"
	"testing"
)

func writeTempConfig(t *testing.T, body string) string {
	f, err := os.CreateTemp("", "nucleus-config")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString(body); err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })
	return f.Name()
}

// Check that defaults come back untouched when a file overrides nothing.
func TestDefault(t *testing.T) {
	m := Default()
	if m.CPUs != 1 || m.HZ != 100 || m.Frames != 256 || m.DrumSlots != 64 || m.WSLLimit != 16 {
		t.Errorf("unexpected default %+v", m)
	}
}

// Check that a well-formed file overrides the fields it mentions.
func TestLoadFile(t *testing.T) {
	path := writeTempConfig(t, "# a machine config\ncpus 4\nHZ 60\nframes 1024\n\ndrumslots 128\nwsllimit 32\nlogfile /tmp/nucleus.log\n")

	m, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if m.CPUs != 4 {
		t.Errorf("CPUs = %d, want 4", m.CPUs)
	}
	if m.HZ != 60 {
		t.Errorf("HZ = %d, want 60", m.HZ)
	}
	if m.Frames != 1024 {
		t.Errorf("Frames = %d, want 1024", m.Frames)
	}
	if m.DrumSlots != 128 {
		t.Errorf("DrumSlots = %d, want 128", m.DrumSlots)
	}
	if m.WSLLimit != 32 {
		t.Errorf("WSLLimit = %d, want 32", m.WSLLimit)
	}
	if m.LogFile != "/tmp/nucleus.log" {
		t.Errorf("LogFile = %q, want /tmp/nucleus.log", m.LogFile)
	}
}

// Check that an unknown key is rejected.
func TestLoadFileUnknownKey(t *testing.T) {
	path := writeTempConfig(t, "bogus 1\n")
	if _, err := LoadFile(path); err == nil {
		t.Error("expected an error for an unknown key")
	}
}

// Check that a malformed numeric value is rejected.
func TestLoadFileBadNumber(t *testing.T) {
	path := writeTempConfig(t, "cpus four\n")
	if _, err := LoadFile(path); err == nil {
		t.Error("expected an error for a non-numeric cpus value")
	}
}

// Check that a missing file surfaces its open error.
func TestLoadFileMissing(t *testing.T) {
	if _, err := LoadFile("/nonexistent/path/to/nucleus.cfg"); err == nil {
		t.Error("expected an error opening a missing file")
	}
}
