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

// Package logger implements a custom slog.Handler that the rest of the
// tree uses in place of slog's stdlib handlers: timestamped, level-prefixed
// text lines, written to a log file and optionally echoed to stderr.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// LogHandler is a slog.Handler writing timestamped, level-prefixed text
// lines to out, with an independent debug echo to stderr. Call sites
// across the tree (machine.Boot, CPU.log, the cleaner, the pagedaemon)
// lean on key/value attrs rather than pre-formatted messages, so unlike a
// bare slog.TextHandler stand-in, Handle renders each attr as key=value
// instead of discarding the key.
type LogHandler struct {
	out    io.Writer
	level  slog.Leveler
	mu     *sync.Mutex
	debug  bool
	prefix []string // group names, innermost last
	attrs  []slog.Attr
}

func (h *LogHandler) Enabled(_ context.Context, level slog.Level) bool {
	min := slog.LevelInfo
	if h.level != nil {
		min = h.level.Level()
	}
	return level >= min
}

// WithAttrs returns a handler that prepends attrs to every record it
// formats, preserving the parent's output target and debug setting.
func (h *LogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)
	return &next
}

// WithGroup qualifies subsequent attrs with name, e.g. "name.key=value".
func (h *LogHandler) WithGroup(name string) slog.Handler {
	next := *h
	next.prefix = append(append([]string(nil), h.prefix...), name)
	return &next
}

func (h *LogHandler) qualify(key string) string {
	if len(h.prefix) == 0 {
		return key
	}
	return strings.Join(h.prefix, ".") + "." + key
}

func (h *LogHandler) Handle(_ context.Context, r slog.Record) error {
	strs := []string{
		r.Time.Format("2006/01/02 15:04:05"),
		r.Level.String() + ":",
		r.Message,
	}

	for _, a := range h.attrs {
		strs = append(strs, h.qualify(a.Key)+"="+a.Value.String())
	}
	r.Attrs(func(a slog.Attr) bool {
		strs = append(strs, h.qualify(a.Key)+"="+a.Value.String())
		return true
	})
	result := strings.Join(strs, " ") + "\n"
	b := []byte(result)

	h.mu.Lock()
	defer h.mu.Unlock()

	var err error
	if h.out != nil {
		_, err = h.out.Write(b)
	}
	if h.debug || r.Level > slog.LevelDebug {
		_, err = os.Stderr.Write(b)
	}
	return err
}

// SetDebug toggles the stderr echo for records at or below LevelDebug.
func (h *LogHandler) SetDebug(debug *bool) {
	h.debug = *debug
}

// NewHandler builds a LogHandler writing to file, echoing to stderr the
// records above level Debug unconditionally, and Debug records too when
// *debug is true.
func NewHandler(file io.Writer, opts *slog.HandlerOptions, debug *bool) *LogHandler {
	var level slog.Leveler
	if opts != nil {
		level = opts.Level
	}
	return &LogHandler{
		out:   file,
		level: level,
		mu:    &sync.Mutex{},
		debug: *debug,
	}
}
