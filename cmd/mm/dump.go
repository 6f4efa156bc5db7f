package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/colorprofile"
	"github.com/muesli/termenv"

	"github.com/squirreljetpack/matchmaker"
	"github.com/squirreljetpack/matchmaker/config"
)

// runDumpConfig renders the default configuration. Piped: raw TOML on
// stdout. On a terminal: the default on-disk config is (re)written and a
// highlighted copy is shown.
func runDumpConfig() int {
	out, err := config.DumpDefault()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return matchmaker.ExitQuit
	}

	if !stdoutIsTTY() {
		fmt.Print(out)
		return matchmaker.ExitAccept
	}

	path := defaultConfigPath()
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err == nil {
			if err := os.WriteFile(path, []byte(out), 0o644); err != nil {
				fmt.Fprintf(os.Stderr, "error: writing %s: %v\n", path, err)
				return matchmaker.ExitQuit
			}
			fmt.Fprintf(os.Stderr, "wrote %s\n", path)
		}
	}

	fmt.Print(highlightTOML(out))
	return matchmaker.ExitAccept
}

// tomlHL syntax-highlights TOML for terminal display. Chroma objects are
// constructed once and safe for reuse.
type tomlHL struct {
	lexer     chroma.Lexer
	formatter chroma.Formatter
	style     *chroma.Style
}

func newTOMLHL() *tomlHL {
	lexer := chroma.Coalesce(lexers.Get("toml"))

	styleName := "github"
	if termenv.HasDarkBackground() {
		styleName = "dracula"
	}
	style := styles.Get(styleName)

	profile := colorprofile.Detect(os.Stderr, os.Environ())
	formatter := formatters.Get(chromaFormatter(profile))

	return &tomlHL{lexer: lexer, formatter: formatter, style: style}
}

// highlight returns the highlighted text, or the input on any failure.
func (h *tomlHL) highlight(s string) string {
	iterator, err := h.lexer.Tokenise(nil, s)
	if err != nil {
		return s
	}
	var out bytes.Buffer
	if err := h.formatter.Format(&out, h.style, iterator); err != nil {
		return s
	}
	return out.String()
}

func highlightTOML(s string) string {
	return newTOMLHL().highlight(s)
}

// chromaFormatter maps colorprofile profiles to chroma terminal formatter
// names.
func chromaFormatter(profile colorprofile.Profile) string {
	switch profile {
	case colorprofile.TrueColor:
		return "terminal16m"
	case colorprofile.ANSI256:
		return "terminal256"
	case colorprofile.ANSI:
		return "terminal16"
	default:
		return "terminal"
	}
}
