package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/buildkite/shellwords"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/elysia/vaultenv/internal/secrets"
)

// Color codes
var (
	colorEnabled = true

	resetCode  = "\033[0m"
	boldCode   = "\033[1m"
	redCode    = "\033[31m"
	yellowCode = "\033[33m"
)

// InitColor initializes color output based on environment
func InitColor(enabled bool) {
	colorEnabled = enabled

	// Errors and hints go to stderr
	if !isTerminal(os.Stderr) {
		colorEnabled = false
	}

	// Check NO_COLOR environment variable
	if os.Getenv("NO_COLOR") != "" {
		colorEnabled = false
	}
}

func isTerminal(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}

func colorize(s, code string) string {
	if !colorEnabled {
		return s
	}
	return code + s + resetCode
}

// Bold returns bold text
func Bold(s string) string {
	return colorize(s, boldCode)
}

// Red returns red text
func Red(s string) string {
	return colorize(s, redCode)
}

// Yellow returns yellow text
func Yellow(s string) string {
	return colorize(s, yellowCode)
}

// Output formats accepted by show.
const (
	formatEnv  = "env"
	formatYAML = "yaml"
	formatJSON = "json"
)

const maskedValue = "********"

// JSONFormatter formats output as JSON
type JSONFormatter struct {
	Indent bool
}

// Format formats data as JSON
func (f *JSONFormatter) Format(data interface{}) (string, error) {
	var out []byte
	var err error
	if f.Indent {
		out, err = json.MarshalIndent(data, "", "  ")
	} else {
		out, err = json.Marshal(data)
	}
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func printJSON(w io.Writer, data interface{}) error {
	formatter := &JSONFormatter{Indent: true}
	output, err := formatter.Format(data)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, output)
	return err
}

func printYAML(w io.Writer, data interface{}) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(data); err != nil {
		return err
	}
	return enc.Close()
}

// renderMapping writes the secrets in the requested format. Values are
// masked unless reveal is set.
func renderMapping(w io.Writer, mapping secrets.Mapping, format string, reveal bool) error {
	switch format {
	case formatEnv, "":
		for _, v := range secrets.ToEnv(mapping) {
			value := v.Value
			if !reveal {
				value = maskedValue
			}
			if _, err := fmt.Fprintf(w, "%s=%s\n", v.Name, value); err != nil {
				return err
			}
		}
		return nil
	case formatYAML:
		return printYAML(w, maskMapping(mapping, reveal))
	case formatJSON:
		return printJSON(w, maskMapping(mapping, reveal))
	default:
		return fmt.Errorf("unknown output format %q (want env, yaml or json)", format)
	}
}

func maskMapping(mapping secrets.Mapping, reveal bool) map[string]any {
	out := make(map[string]any, len(mapping))
	for k, v := range mapping {
		if reveal {
			out[k] = v
		} else {
			out[k] = maskedValue
		}
	}
	return out
}

// shellQuote renders value for a POSIX shell. Whitespace-free values use
// backslash escaping and stay readable; anything else is single-quoted.
func shellQuote(value string) string {
	if value == "" {
		return "''"
	}
	if strings.IndexFunc(value, unicode.IsSpace) < 0 {
		return shellwords.QuotePosix(value)
	}
	return "'" + strings.ReplaceAll(value, "'", `'\''`) + "'"
}

// validShellName reports whether name can be used in `export NAME=...`.
func validShellName(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_', r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

// marshalDotenv renders env as a .env file. godotenv writes anything
// strconv.Atoi accepts as a bare integer, which would turn "007" into 7, so
// those values are quoted here instead.
func marshalDotenv(env map[string]string) (string, error) {
	plain := make(map[string]string, len(env))
	var quoted []string
	for name, value := range env {
		if n, err := strconv.Atoi(value); err == nil && strconv.Itoa(n) != value {
			quoted = append(quoted, fmt.Sprintf("%s=%q", name, value))
			continue
		}
		plain[name] = value
	}

	content, err := godotenv.Marshal(plain)
	if err != nil {
		return "", err
	}
	if len(quoted) == 0 {
		return content, nil
	}

	lines := quoted
	if content != "" {
		lines = append(lines, strings.Split(content, "\n")...)
	}
	sort.Strings(lines)
	return strings.Join(lines, "\n"), nil
}
