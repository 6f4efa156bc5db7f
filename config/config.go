// Package config loads and merges the picker's TOML configuration. Unknown
// keys are rejected; a partial config deep-merges over the loaded one, and
// CLI overrides merge last.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"dario.cat/mergo"
	"github.com/BurntSushi/toml"

	"github.com/squirreljetpack/matchmaker/matcher"
)

// BindValue accepts either a single action string or a list of them.
type BindValue []string

// UnmarshalTOML implements toml.Unmarshaler.
func (b *BindValue) UnmarshalTOML(v any) error {
	switch val := v.(type) {
	case string:
		*b = BindValue{val}
		return nil
	case []any:
		out := make(BindValue, 0, len(val))
		for _, e := range val {
			s, ok := e.(string)
			if !ok {
				return fmt.Errorf("bind action must be a string, got %T", e)
			}
			out = append(out, s)
		}
		*b = out
		return nil
	}
	return fmt.Errorf("bind value must be a string or list of strings, got %T", v)
}

// InputConfig styles the prompt line and static surround text.
type InputConfig struct {
	Prompt string `toml:"prompt"`
	Header string `toml:"header"`
	Footer string `toml:"footer"`
}

// ResultsConfig shapes the results table.
type ResultsConfig struct {
	Reverse            bool   `toml:"reverse"`
	ScrollPadding      int    `toml:"scroll_padding"`
	Wrap               bool   `toml:"wrap"`
	WrapScroll         bool   `toml:"wrap_scroll"`
	MinWrapWidth       int    `toml:"min_wrap_width"`
	Stacked            bool   `toml:"stacked"`
	Marker             string `toml:"marker"`
	RowConnectionStyle string `toml:"row_connection_style"` // "none" | "full"
}

// FooterFullWidth is derived from the connection style rather than being an
// independent flag.
func (r ResultsConfig) FooterFullWidth() bool {
	return strings.EqualFold(r.RowConnectionStyle, "full")
}

// PreviewLayoutConfig is one preview arrangement.
type PreviewLayoutConfig struct {
	Command  string `toml:"command"`
	Position string `toml:"position"` // left | right | top | bottom
	Size     int    `toml:"size"`     // percent
	Wrap     bool   `toml:"wrap"`
}

// PreviewConfig configures the previewer.
type PreviewConfig struct {
	Layouts  []PreviewLayoutConfig `toml:"layouts"`
	TryLossy bool                  `toml:"try_lossy"`
}

// ColumnsConfig selects the splitting policy.
type ColumnsConfig struct {
	Split      string   `toml:"split"` // "none" | "delimiter" | "regexes"
	Delimiter  string   `toml:"delimiter"`
	Regexes    []string `toml:"regexes"`
	Names      []string `toml:"names"`
	MaxColumns int      `toml:"max_columns"`
	Primary    int      `toml:"primary"`
	ParseANSI  bool     `toml:"parse_ansi"`
}

// Splitter builds the configured splitter and the effective column names.
func (c ColumnsConfig) Splitter() (matcher.SplitterFunc, []string, error) {
	names := c.Names
	maxCols := c.MaxColumns
	if maxCols <= 0 {
		maxCols = max(len(names), 1)
	}
	if len(names) == 0 && maxCols > 1 {
		names = make([]string, maxCols)
		for i := range names {
			names[i] = fmt.Sprint(i)
		}
	}

	switch strings.ToLower(c.Split) {
	case "", "none":
		return matcher.SingleSplitter(), nil, nil
	case "delimiter":
		if c.Delimiter == "" {
			return nil, nil, fmt.Errorf("columns.split = %q requires columns.delimiter", c.Split)
		}
		re, err := regexp.Compile(c.Delimiter)
		if err != nil {
			return nil, nil, fmt.Errorf("columns.delimiter: %w", err)
		}
		return matcher.DelimiterSplitter(re, max(len(names), maxCols)), names, nil
	case "regexes":
		if len(c.Regexes) == 0 {
			return nil, nil, fmt.Errorf("columns.split = %q requires columns.regexes", c.Split)
		}
		res := make([]*regexp.Regexp, len(c.Regexes))
		for i, s := range c.Regexes {
			re, err := regexp.Compile(s)
			if err != nil {
				return nil, nil, fmt.Errorf("columns.regexes[%d]: %w", i, err)
			}
			res[i] = re
		}
		return matcher.RegexesSplitter(res), names, nil
	}
	return nil, nil, fmt.Errorf("unknown columns.split %q", c.Split)
}

// ExitConfig controls exit conditions.
type ExitConfig struct {
	Select1     bool `toml:"select_1"`
	AcceptEmpty bool `toml:"accept_empty"`
	PrintQuery  bool `toml:"print_query"`
	QuitCode    int  `toml:"quit_code"`
}

// TerminalConfig controls the terminal region.
type TerminalConfig struct {
	Fullscreen bool `toml:"fullscreen"`
	Height     int  `toml:"height"`    // percent of the terminal, inline mode
	TickRate   int  `toml:"tick_rate"` // milliseconds
}

// StyleConfig carries color strings (ANSI indexes or hex).
type StyleConfig struct {
	MatchFg   string `toml:"match_fg"`
	MatchBold bool   `toml:"match_bold"`
	CursorBg  string `toml:"cursor_bg"`
	MarkerFg  string `toml:"marker_fg"`
	PromptFg  string `toml:"prompt_fg"`
	HeaderFg  string `toml:"header_fg"`
	BorderFg  string `toml:"border_fg"`
	StatusFg  string `toml:"status_fg"`
}

// Config is the full TOML surface.
type Config struct {
	OutputSeparator string `toml:"output_separator"`
	OutputTemplate  string `toml:"output_template"`
	Command         string `toml:"command"`
	LastTriggerPath string `toml:"last_trigger_path"`
	LogFile         string `toml:"log_file"`
	WatchConfig     bool   `toml:"watch_config"`

	Input    InputConfig          `toml:"input"`
	Results  ResultsConfig        `toml:"results"`
	Preview  PreviewConfig        `toml:"preview"`
	Columns  ColumnsConfig        `toml:"columns"`
	Binds    map[string]BindValue `toml:"binds"`
	Exit     ExitConfig           `toml:"exit"`
	Terminal TerminalConfig       `toml:"terminal"`
	Style    StyleConfig          `toml:"style"`
}

// Default returns the baseline configuration.
func Default() Config {
	return Config{
		OutputSeparator: "\n",
		Input: InputConfig{
			Prompt: "> ",
		},
		Results: ResultsConfig{
			ScrollPadding: 2,
			MinWrapWidth:  4,
			Marker:        "▌",
		},
		Columns: ColumnsConfig{
			Split: "none",
		},
		Exit: ExitConfig{
			QuitCode: 1,
		},
		Terminal: TerminalConfig{
			TickRate: 50,
		},
		Style: StyleConfig{
			MatchFg:   "5",
			MatchBold: true,
			CursorBg:  "236",
			MarkerFg:  "4",
			PromptFg:  "6",
			BorderFg:  "60",
			StatusFg:  "243",
		},
	}
}

// LoadString decodes TOML from memory, rejecting unknown keys.
func LoadString(data string) (Config, error) {
	cfg := Default()
	md, err := toml.Decode(data, &cfg)
	if err != nil {
		return Config{}, err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
	}
	return cfg, nil
}

// Load reads and decodes a config file.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg, err := LoadString(string(data))
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Merge deep-merges override onto base: set fields in override win. Slices
// and maps replace wholesale; zero-valued fields in override leave base
// untouched (the partial-struct derivation layer upstream is responsible
// for representing deliberate zeroes).
func Merge(base *Config, override Config) error {
	return mergo.Merge(base, override, mergo.WithOverride)
}

// DumpDefault renders the default config as TOML.
func DumpDefault() (string, error) {
	var b strings.Builder
	enc := toml.NewEncoder(&b)
	if err := enc.Encode(Default()); err != nil {
		return "", err
	}
	return b.String(), nil
}
