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
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/analog-alex/script-parser/internal/config"
	"github.com/analog-alex/script-parser/internal/crash"
	applog "github.com/analog-alex/script-parser/internal/log"
	"github.com/analog-alex/script-parser/internal/render"
	"github.com/analog-alex/script-parser/internal/screenplay"
	"github.com/analog-alex/script-parser/internal/storage"
	"github.com/analog-alex/script-parser/internal/validate"
	"github.com/analog-alex/script-parser/internal/version"
)

func usage() {
	fmt.Println("Script Parser — screenplay markdown to structured document")
	fmt.Printf("Version: %s\n", version.String())
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  scriptparser version|-v|--version           Show version")
	fmt.Println("  scriptparser parse <input.md> [--strict]    Parse and print a summary")
	fmt.Println("  scriptparser validate <input.md> [--strict] Parse and run validation")
	fmt.Println("  scriptparser render <input.md> [-o <out.pdf>]")
	fmt.Println("                                              Validate and render a PDF (default output.pdf)")
	fmt.Println("  scriptparser init <dir> <input.md>          Create a project at <dir> from a screenplay file")
	fmt.Println("  scriptparser index <dir>                    Rebuild the project search index")
	fmt.Println("  scriptparser search <dir> <query> [--speaker CODE] [--kind KIND] [--limit N]")
	fmt.Println("                                              Full-text search over the project index")
}

func main() {
	cfg, cfgErr := config.Load()
	applog.Init(applog.Options{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: cfg.Logging.Source,
		File:      cfg.Logging.File,
	})
	l := applog.WithComponent("cli")
	if cfgErr != nil {
		l.Warn("config load failed, using defaults", slog.Any("err", cfgErr))
	}
	var ph *storage.ProjectHandle
	defer func() {
		if r := recover(); r != nil {
			crash.Handle(ph, r)
		}
	}()

	args := os.Args
	if len(args) < 2 {
		usage()
		os.Exit(2)
	}
	switch args[1] {
	case "version", "--version", "-v":
		fmt.Println(version.String())
	case "parse":
		rest, strict := boolFlag(args[2:], "--strict")
		strict = strict || cfg.Parser.Strict
		if len(rest) < 1 {
			fmt.Println("parse requires <input.md>")
			usage()
			os.Exit(2)
		}
		cmdParse(l, rest[0], strict)
	case "validate":
		rest, strict := boolFlag(args[2:], "--strict")
		strict = strict || cfg.Parser.Strict
		if len(rest) < 1 {
			fmt.Println("validate requires <input.md>")
			usage()
			os.Exit(2)
		}
		cmdValidate(l, rest[0], strict)
	case "render":
		rest, out := stringFlag(args[2:], "-o", "output.pdf")
		if len(rest) < 1 {
			fmt.Println("render requires <input.md>")
			usage()
			os.Exit(2)
		}
		cmdRender(l, rest[0], out, cfg)
	case "init":
		if len(args) < 4 {
			fmt.Println("init requires <dir> and <input.md>")
			usage()
			os.Exit(2)
		}
		ph = cmdInit(l, args[2], args[3])
	case "index":
		if len(args) < 3 {
			fmt.Println("index requires <dir>")
			usage()
			os.Exit(2)
		}
		ph = cmdIndex(l, args[2])
	case "search":
		if len(args) < 4 {
			fmt.Println("search requires <dir> and <query>")
			usage()
			os.Exit(2)
		}
		cmdSearch(l, args[2], args[3:])
	default:
		fmt.Println("Unknown command:", args[1])
		usage()
		os.Exit(2)
	}
}

// parseInput runs the pipeline over a file and prints strict diagnostics.
func parseInput(l *slog.Logger, path string, strict bool) (*screenplay.Document, []screenplay.Token) {
	content, err := os.ReadFile(path)
	if err != nil {
		l.Error("read input failed", slog.Any("err", err))
		fmt.Println("Error:", err)
		os.Exit(1)
	}
	tokens, diags := screenplay.TokenizeWithDiagnostics(string(content))
	if strict {
		for _, d := range diags {
			fmt.Fprintf(os.Stderr, "line %d: dropped %q: %s\n", d.Line, d.Text, d.Reason)
		}
	}
	doc, err := screenplay.NewParser(tokens).Parse()
	if err != nil {
		l.Error("parse failed", slog.Any("err", err))
		fmt.Println("Error:", err)
		os.Exit(1)
	}
	l.Debug("parsed", slog.Int("tokens", len(tokens)), slog.Int("dropped", len(diags)))
	return doc, tokens
}

func cmdParse(l *slog.Logger, path string, strict bool) {
	fmt.Println("Reading input file:", path)
	doc, tokens := parseInput(l, path, strict)
	fmt.Printf("Generated %d tokens\n", len(tokens))
	fmt.Println("Script parsed successfully!")
	title := "empty"
	if doc.Title != "" {
		title = "present"
	}
	fmt.Printf("  - Title section: %s\n", title)
	fmt.Printf("  - Characters: %d\n", len(doc.Characters))
	fmt.Printf("  - Scenes: %d\n", len(doc.Scenes))
}

// runValidation prints warnings and returns the folded error, if any.
func runValidation(doc *screenplay.Document, tokens []screenplay.Token) error {
	res := validate.Run(doc, tokens)
	for _, w := range res.Warnings {
		fmt.Fprintln(os.Stderr, w.String())
	}
	return res.Err()
}

func cmdValidate(l *slog.Logger, path string, strict bool) {
	doc, tokens := parseInput(l, path, strict)
	if err := runValidation(doc, tokens); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	fmt.Println("Validation passed.")
}

func cmdRender(l *slog.Logger, path, out string, cfg config.AppConfig) {
	doc, tokens := parseInput(l, path, cfg.Parser.Strict)
	if err := runValidation(doc, tokens); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	fmt.Println("Generating PDF:", out)
	opt := render.Options{FontSize: cfg.Render.FontSize, LineHeight: cfg.Render.LineHeight}
	if err := render.PDF(doc, out, opt); err != nil {
		l.Error("render failed", slog.Any("err", err))
		fmt.Println("Error:", err)
		os.Exit(1)
	}
	fmt.Println("PDF generated successfully!")
}

func cmdInit(l *slog.Logger, dir, input string) *storage.ProjectHandle {
	doc, _ := parseInput(l, input, false)
	abs, _ := filepath.Abs(dir)
	name := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	l.Info("init project", slog.String("root", abs), slog.String("name", name))

	m := storage.Manifest{Name: name, Source: input, Document: *doc}
	ph, err := storage.InitProject(abs, m)
	if err != nil {
		l.Error("init failed", slog.Any("err", err))
		fmt.Println("Error:", err)
		os.Exit(1)
	}
	if err := storage.RebuildIndex(context.Background(), abs, doc); err != nil {
		l.Error("index build failed", slog.Any("err", err))
		fmt.Println("Error:", err)
		os.Exit(1)
	}
	fmt.Println("Created project at", abs)
	return ph
}

func cmdIndex(l *slog.Logger, dir string) *storage.ProjectHandle {
	abs, _ := filepath.Abs(dir)
	ph, err := storage.Open(abs)
	if err != nil {
		l.Error("open failed", slog.Any("err", err))
		fmt.Println("Error:", err)
		os.Exit(1)
	}
	if err := storage.RebuildIndex(context.Background(), abs, &ph.Manifest.Document); err != nil {
		l.Error("index rebuild failed", slog.Any("err", err))
		fmt.Println("Error:", err)
		os.Exit(1)
	}
	fmt.Println("Index rebuilt for", abs)
	return ph
}

func cmdSearch(l *slog.Logger, dir string, args []string) {
	abs, _ := filepath.Abs(dir)
	rest, speaker := stringFlag(args, "--speaker", "")
	rest, kind := stringFlag(rest, "--kind", "")
	rest, limitStr := stringFlag(rest, "--limit", "")
	q := storage.Query{Text: strings.Join(rest, " "), Speaker: speaker}
	if kind != "" {
		q.Kinds = []string{kind}
	}
	if limitStr != "" {
		if n, err := strconv.Atoi(limitStr); err == nil {
			q.Limit = n
		}
	}
	results, err := storage.Search(context.Background(), abs, q)
	if err != nil {
		l.Error("search failed", slog.Any("err", err))
		fmt.Println("Error:", err)
		os.Exit(1)
	}
	if len(results) == 0 {
		fmt.Println("No matches.")
		return
	}
	for _, r := range results {
		line := fmt.Sprintf("%-10s %s", r.Kind, r.Path)
		if r.Snippet != "" {
			line += "  " + r.Snippet
		}
		fmt.Println(line)
	}
	fmt.Printf("%d match(es)\n", len(results))
}

// boolFlag removes the named flag from args and reports whether it was set.
func boolFlag(args []string, name string) ([]string, bool) {
	out := args[:0:0]
	found := false
	for _, a := range args {
		if a == name {
			found = true
			continue
		}
		out = append(out, a)
	}
	return out, found
}

// stringFlag removes "name value" from args, returning the value or def.
func stringFlag(args []string, name, def string) ([]string, string) {
	out := args[:0:0]
	val := def
	for i := 0; i < len(args); i++ {
		if args[i] == name && i+1 < len(args) {
			val = args[i+1]
			i++
			continue
		}
		out = append(out, args[i])
	}
	return out, val
}
