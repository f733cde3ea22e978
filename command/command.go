/*
 * nucleus - Inspection console dispatch table.
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

// Package command implements a small interactive console for inspecting a
// running machine: CPU count, frame count and free-frame count of the
// page-frame database. It is diagnostic scaffolding around the kernel core, not part
// of its semantics.
package command

import (
	"fmt"
	"sort"
	"strings"
)

// Handler runs one named command against whatever state it was registered
// with, returning the text to print or an error.
type Handler func(args []string) (string, error)

// Registry is an ordered table of named console commands.
type Registry struct {
	handlers map[string]Handler
	help     map[string]string
	order    []string
}

// NewRegistry creates an empty command registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[string]Handler),
		help:     make(map[string]string),
	}
}

// Register adds a named command. Registering the same name twice replaces
// the earlier handler.
func (r *Registry) Register(name, help string, fn Handler) {
	if _, exists := r.handlers[name]; !exists {
		r.order = append(r.order, name)
	}
	r.handlers[name] = fn
	r.help[name] = help
}

// Run splits line into a command word and arguments and dispatches it.
// An empty line is a no-op.
func (r *Registry) Run(line string) (string, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil
	}
	name, args := fields[0], fields[1:]
	fn, ok := r.handlers[name]
	if !ok {
		return "", fmt.Errorf("unknown command %q (try \"help\")", name)
	}
	return fn(args)
}

// Complete returns every registered command name with the given prefix, for
// the console's tab completer.
func (r *Registry) Complete(prefix string) []string {
	var out []string
	for _, name := range r.order {
		if strings.HasPrefix(name, prefix) {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// Help formats the registered commands and their one-line descriptions.
func (r *Registry) Help() string {
	var b strings.Builder
	for _, name := range r.order {
		fmt.Fprintf(&b, "%-10s %s\n", name, r.help[name])
	}
	return b.String()
}
