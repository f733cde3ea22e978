/*
 * nucleus - Wrapper for slog
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

package logger

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestHandleFormatsKeyValueAttrs(t *testing.T) {
	var buf bytes.Buffer
	debug := false
	h := NewHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}, &debug)

	log := slog.New(h)
	log.Debug("cleaner wrote back page", "pfn", 7, "err", "nil")

	got := buf.String()
	if !strings.Contains(got, "pfn=7") {
		t.Errorf("output missing pfn=7 attr: %q", got)
	}
	if !strings.Contains(got, "err=nil") {
		t.Errorf("output missing err=nil attr: %q", got)
	}
	if !strings.Contains(got, "cleaner wrote back page") {
		t.Errorf("output missing message: %q", got)
	}
}

func TestWithAttrsPreservesOutputAndAppendsAttrs(t *testing.T) {
	var buf bytes.Buffer
	debug := false
	h := NewHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}, &debug)

	log := slog.New(h).With("cpu", 3)
	log.Info("machine booted")

	got := buf.String()
	if !strings.Contains(got, "cpu=3") {
		t.Errorf("output missing attr carried by With: %q", got)
	}
	if !strings.Contains(got, "machine booted") {
		t.Errorf("output missing message: %q", got)
	}
}

func TestWithGroupQualifiesAttrKeys(t *testing.T) {
	var buf bytes.Buffer
	debug := false
	h := NewHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}, &debug)

	log := slog.New(h).WithGroup("disk").With("slot", 2)
	log.Info("drum write")

	got := buf.String()
	if !strings.Contains(got, "disk.slot=2") {
		t.Errorf("output missing qualified attr: %q", got)
	}
}

func TestEnabledRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	debug := false
	h := NewHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}, &debug)

	log := slog.New(h)
	log.Debug("should not appear")
	log.Warn("should appear")

	got := buf.String()
	if strings.Contains(got, "should not appear") {
		t.Errorf("debug record logged despite LevelWarn threshold: %q", got)
	}
	if !strings.Contains(got, "should appear") {
		t.Errorf("warn record missing: %q", got)
	}
}
