/*
 * nucleus - Inspection console dispatch table tests.
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
package command

import (
	"strings"
	"testing"
)

// Check that a registered command runs and returns its output.
func TestRegisterAndRun(t *testing.T) {
	reg := NewRegistry()
	reg.Register("echo", "echo the arguments", func(args []string) (string, error) {
		return strings.Join(args, " "), nil
	})

	out, err := reg.Run("echo hello world")
	if err != nil {
		t.Fatal(err)
	}
	if out != "hello world" {
		t.Errorf("Run = %q, want %q", out, "hello world")
	}
}

// Check that an unregistered command is an error, and an empty line a no-op.
func TestRunUnknownAndEmpty(t *testing.T) {
	reg := NewRegistry()

	if _, err := reg.Run("nosuch"); err == nil {
		t.Error("expected an error for an unregistered command")
	}
	out, err := reg.Run("   ")
	if err != nil {
		t.Fatal(err)
	}
	if out != "" {
		t.Errorf("Run(empty) = %q, want empty", out)
	}
}

// Check that re-registering a name replaces its handler without duplicating
// it in iteration order.
func TestRegisterReplaces(t *testing.T) {
	reg := NewRegistry()
	reg.Register("status", "first", func(args []string) (string, error) { return "first", nil })
	reg.Register("status", "second", func(args []string) (string, error) { return "second", nil })

	out, err := reg.Run("status")
	if err != nil {
		t.Fatal(err)
	}
	if out != "second" {
		t.Errorf("Run = %q, want %q", out, "second")
	}
	if len(reg.order) != 1 {
		t.Errorf("order has %d entries, want 1", len(reg.order))
	}
}

// Check prefix completion, including sorted ordering.
func TestComplete(t *testing.T) {
	reg := NewRegistry()
	reg.Register("status", "", func(args []string) (string, error) { return "", nil })
	reg.Register("stop", "", func(args []string) (string, error) { return "", nil })
	reg.Register("help", "", func(args []string) (string, error) { return "", nil })

	got := reg.Complete("st")
	want := []string{"status", "stop"}
	if len(got) != len(want) {
		t.Fatalf("Complete(\"st\") = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Complete(\"st\")[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

// Check that Help lists every registered command.
func TestHelp(t *testing.T) {
	reg := NewRegistry()
	reg.Register("status", "show occupancy", func(args []string) (string, error) { return "", nil })

	help := reg.Help()
	if !strings.Contains(help, "status") || !strings.Contains(help, "show occupancy") {
		t.Errorf("Help() = %q, missing expected content", help)
	}
}
