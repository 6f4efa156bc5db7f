// Command mm is the thin CLI over the matchmaker engine: it loads the TOML
// configuration, wires the input source, runs the picker, and maps the
// session result to an exit code.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	flag "github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/squirreljetpack/matchmaker"
	"github.com/squirreljetpack/matchmaker/config"
	"github.com/squirreljetpack/matchmaker/matcher"
	"github.com/squirreljetpack/matchmaker/previewer"
)

// matcherSelection is the selection value of the standard string pipeline.
type matcherSelection = matcher.Segmented[matcher.Chunk]

func main() {
	var (
		configPath = flag.String("config", "", "path to a TOML config file")
		configTOML = flag.String("toml", "", "inline TOML configuration")
		dumpConfig = flag.Bool("dump-config", false, "print (or install) the default config")
		fullscreen = flag.Bool("fullscreen", false, "use the alternate screen")
		filter     = flag.String("filter", "", "non-interactive: print items matching the query")
		keysTest   = flag.Bool("keys", false, "key test mode: print normalized triggers")
		command    = flag.String("command", "", "item source command when stdin is a terminal")
	)
	flag.Parse()

	// Detect the terminal background once, before the program takes over;
	// OSC queries are unreliable under the alt screen.
	lipgloss.SetHasDarkBackground(termenv.HasDarkBackground())

	if *dumpConfig {
		os.Exit(runDumpConfig())
	}
	if *keysTest {
		os.Exit(runKeysTest())
	}

	cfg, err := loadConfig(*configPath, *configTOML)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(matchmaker.ExitQuit)
	}

	// CLI overrides merge last.
	if *fullscreen {
		cfg.Terminal.Fullscreen = true
	}
	if *command != "" {
		cfg.Command = *command
	}

	matchmaker.SetupLogging(cfg)

	mm, chain, err := matchmaker.NewFromConfig(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(matchmaker.ExitQuit)
	}

	// Input policy: piped stdin wins, then the configured command.
	var readDone <-chan error
	switch {
	case !matchmaker.StdinIsTTY():
		readDone = matchmaker.ReadFrom(os.Stdin, chain, nil)
	case cfg.Command != "":
		errc, err := matchmaker.ReadCommand(cfg.Command, nil, chain, nil)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(matchmaker.ExitQuit)
		}
		readDone = errc
	default:
		fmt.Fprintln(os.Stderr, "error: no input detected.")
		os.Exit(matchmaker.ExitNoInput)
	}

	if *filter != "" {
		// Non-interactive: the whole stream is the corpus.
		if err := <-readDone; err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(matchmaker.ExitQuit)
		}
		os.Exit(runFilter(mm, *filter))
	}

	// Always attach a previewer: Preview(cmd) binds can open a pane even
	// with no configured layouts.
	mm.ConnectPreview(previewer.New(cfg.Preview.TryLossy, nil))
	if cfg.WatchConfig && *configPath != "" {
		mm.WatchConfig(*configPath)
	}

	result, err := mm.Pick()
	if err != nil {
		var abort matchmaker.AbortError
		if !errors.As(err, &abort) && !errors.Is(err, matchmaker.ErrNoMatch) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(matchmaker.ExitCode(err))
	}

	if result.Become != "" {
		become(result.Become)
		// become only returns on failure
		os.Exit(matchmaker.ExitQuit)
	}

	if err := mm.WriteOutput(os.Stdout, result); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(matchmaker.ExitQuit)
	}
	os.Exit(matchmaker.ExitAccept)
}

// loadConfig resolves the configuration: file, inline TOML, or defaults.
func loadConfig(path, inline string) (config.Config, error) {
	if path != "" && inline != "" {
		return config.Config{}, fmt.Errorf("--config and --toml are mutually exclusive")
	}
	if path != "" {
		return config.Load(path)
	}
	if inline != "" {
		return config.LoadString(inline)
	}
	if def := defaultConfigPath(); def != "" {
		if _, err := os.Stat(def); err == nil {
			return config.Load(def)
		}
	}
	return config.Default(), nil
}

// defaultConfigPath is ~/.config/matchmaker/config.toml.
func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "matchmaker", "config.toml")
}

// runFilter applies the query once and prints every match.
func runFilter(mm *matchmaker.StdMatchmaker, query string) int {
	selected, err := mm.Filter(query)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return matchmaker.ExitQuit
	}
	if len(selected) == 0 {
		return matchmaker.ExitNoMatch
	}
	if err := mm.WriteOutput(os.Stdout, matchmaker.Result[matcherSelection]{Selected: selected}); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return matchmaker.ExitQuit
	}
	return matchmaker.ExitAccept
}

// become replaces the process image with `$SHELL -c command`, falling back
// to /bin/sh when SHELL is unset.
func become(command string) {
	shell := "/bin/sh"
	if s := os.Getenv("SHELL"); s != "" {
		shell = s
	}
	argv := []string{shell, "-c", command}
	if err := syscall.Exec(shell, argv, os.Environ()); err != nil {
		fmt.Fprintf(os.Stderr, "error: become: %v\n", err)
	}
}

// stdoutIsTTY reports whether stdout is a terminal.
func stdoutIsTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}
