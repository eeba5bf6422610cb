/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/lipgloss"

	"godiagram/internal/backend"
	"godiagram/internal/config"
	"godiagram/internal/crash"
	applog "godiagram/internal/log"
	"godiagram/internal/ui"
	"godiagram/internal/version"
)

var (
	titleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#7C3AED")).Bold(true)
	keyStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"}).Width(12)
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#6B7280"})
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#D97706"))
)

// errUsage makes main print usage and exit with 2.
var errUsage = errors.New("usage")

func usage(w io.Writer) {
	fmt.Fprintln(w, titleStyle.Render("GoDiagram")+" "+dimStyle.Render(version.String()))
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  godiagram version|-v|--version                 Show version")
	fmt.Fprintln(w, "  godiagram new <file>                           Create an empty diagram")
	fmt.Fprintln(w, "  godiagram info <file>                          Print a document summary")
	fmt.Fprintln(w, "  godiagram export <file> [-format f] [-out p]   Export to png, jpeg, svg or pdf")
	fmt.Fprintln(w, "  godiagram batch <file> <web|print>             Export with a preset")
	fmt.Fprintln(w, "  godiagram history <file> [checkpoint [label]|restore <id>]")
	fmt.Fprintln(w, "                                                 List, record or restore revisions")
	fmt.Fprintln(w, "  godiagram library register|login|logout|list|publish|fetch|delete|revisions ...")
	fmt.Fprintln(w, "                                                 Shared diagram library")
	fmt.Fprintln(w, "  godiagram serve                                Run the library server (GDG_* env)")
	fmt.Fprintln(w, "  godiagram ui [<file>]                          Launch desktop UI (build with -tags fyne)")
}

// cli carries what the subcommands share.
type cli struct {
	out    io.Writer
	in     io.Reader
	cfg    config.AppConfig
	token  string
	target *crash.Target
	log    *slog.Logger
}

func main() {
	// initialize structured logging using environment defaults
	applog.Init(applog.FromEnv())
	target := &crash.Target{}
	defer crash.Recover(target)

	cfg, token, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, warnStyle.Render("config: "+err.Error()))
	}
	applog.Init(applog.Options{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: cfg.Logging.Source,
		File:      cfg.Logging.File,
	})

	c := &cli{out: os.Stdout, in: os.Stdin, cfg: cfg, token: token, target: target, log: applog.WithComponent("cli")}
	if err := c.run(os.Args[1:]); err != nil {
		if errors.Is(err, errUsage) {
			usage(os.Stderr)
			os.Exit(2)
		}
		c.log.Error("command failed", slog.Any("err", err))
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func (c *cli) run(args []string) error {
	if len(args) == 0 {
		usage(c.out)
		return nil
	}
	c.log.Debug("start", slog.String("cmd", args[0]), slog.Int("args", len(args)))
	rest := args[1:]
	switch args[0] {
	case "version", "--version", "-v":
		fmt.Fprintln(c.out, version.String())
		return nil
	case "help", "-h", "--help":
		usage(c.out)
		return nil
	case "new":
		return c.cmdNew(rest)
	case "info":
		return c.cmdInfo(rest)
	case "export":
		return c.cmdExport(rest)
	case "batch":
		return c.cmdBatch(rest)
	case "history":
		return c.cmdHistory(rest)
	case "library":
		return c.cmdLibrary(rest)
	case "serve":
		return c.cmdServe()
	case "ui":
		var file string
		if len(rest) > 0 {
			file = rest[0]
		}
		return ui.Run(file)
	}
	return fmt.Errorf("unknown command %q: %w", args[0], errUsage)
}

func (c *cli) cmdServe() error {
	cfg, err := backend.LoadServerConfig()
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return backend.Serve(ctx, cfg)
}
