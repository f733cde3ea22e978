/*
 * nucleus - Process entry point.
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

package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	getopt "github.com/pborman/getopt/v2"

	"github.com/rcornwell/nucleus/command"
	"github.com/rcornwell/nucleus/config"
	"github.com/rcornwell/nucleus/machine"
	"github.com/rcornwell/nucleus/util/logger"
)

func main() {
	optConfig := getopt.StringLong("config", 'c', "", "Configuration file")
	optLogFile := getopt.StringLong("log", 'l', "", "Log file")
	optConsole := getopt.BoolLong("console", 'i', "Start the interactive inspection console")
	optHelp := getopt.BoolLong("help", 'h', "Help")
	getopt.Parse()

	if *optHelp {
		getopt.Usage()
		os.Exit(0)
	}

	var cfg *config.Machine
	if *optConfig != "" {
		var err error
		cfg, err = config.LoadFile(*optConfig)
		if err != nil {
			fmt.Fprintln(os.Stderr, "nucleus: ", err)
			os.Exit(1)
		}
	} else {
		cfg = config.Default()
	}
	if *optLogFile != "" {
		cfg.LogFile = *optLogFile
	}

	var out io.Writer
	if cfg.LogFile != "" {
		f, err := os.Create(cfg.LogFile)
		if err != nil {
			fmt.Fprintln(os.Stderr, "nucleus: ", err)
			os.Exit(1)
		}
		out = f
	}
	programLevel := new(slog.LevelVar)
	programLevel.Set(slog.LevelDebug)
	slog.SetDefault(slog.New(logger.NewHandler(out, &slog.HandlerOptions{Level: programLevel}, new(bool))))

	slog.Info("nucleus starting", "cpus", cfg.CPUs, "hz", cfg.HZ, "frames", cfg.Frames)

	m, err := machine.Boot(cfg)
	if err != nil {
		slog.Error("boot failed", "err", err)
		os.Exit(1)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	if *optConsole {
		reg := buildRegistry(m)
		go command.Run(reg)
	}

	<-sigChan
	slog.Info("nucleus shutting down")
	m.Shutdown()
}

// buildRegistry wires the inspection console's commands to the booted
// machine's state.
func buildRegistry(m *machine.Machine) *command.Registry {
	reg := command.NewRegistry()
	reg.Register("status", "show machine occupancy", func(args []string) (string, error) {
		return m.Status(), nil
	})
	reg.Register("help", "list commands", func(args []string) (string, error) {
		return reg.Help(), nil
	})
	return reg
}
