package config

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/mattn/go-shellwords"
)

// Statement is one primitive invocation read from a project file.
type Statement struct {
	Name string
	Args []string
	Line int
}

// String renders the statement roughly as it appeared in the file.
func (s Statement) String() string {
	if len(s.Args) == 0 {
		return s.Name
	}
	return s.Name + " " + strings.Join(s.Args, " ")
}

// Parse reads a project file into statements without evaluating them.
// Lines starting with # are comments and a trailing backslash joins the
// next line. Arguments follow shell quoting rules: $VAR and ${VAR} are
// expanded from env except inside single quotes or after a backslash.
func Parse(r io.Reader, env Environ) ([]Statement, error) {
	if env == nil {
		env = OSEnviron
	}
	parser := shellwords.NewParser()
	parser.ParseEnv = false
	parser.ParseBacktick = false

	var (
		statements []Statement
		pending    strings.Builder
		startLine  int
		lineNo     int
	)

	flush := func() error {
		text := strings.TrimSpace(pending.String())
		pending.Reset()
		if text == "" || strings.HasPrefix(text, "#") {
			return nil
		}

		tokens, err := parser.Parse(expandEnv(text, env))
		if err != nil {
			return fmt.Errorf("line %d: %w", startLine, err)
		}
		if parser.Position >= 0 {
			return fmt.Errorf("line %d: unquoted shell operator in %q", startLine, text)
		}
		if len(tokens) == 0 {
			return nil
		}
		statements = append(statements, Statement{
			Name: tokens[0],
			Args: tokens[1:],
			Line: startLine,
		})
		return nil
	}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if pending.Len() == 0 {
			startLine = lineNo
		}

		if strings.HasSuffix(line, `\`) {
			pending.WriteString(strings.TrimSuffix(line, `\`))
			pending.WriteString(" ")
			continue
		}

		pending.WriteString(line)
		if err := flush(); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := flush(); err != nil {
		return nil, err
	}

	return statements, nil
}

// expandEnv substitutes variables in a raw line before it is tokenized, so
// quoting decides what is expanded. Values are escaped and never split into
// several words.
func expandEnv(line string, env Environ) string {
	var (
		b              strings.Builder
		single, double bool
	)
	rs := []rune(line)
	for i := 0; i < len(rs); i++ {
		r := rs[i]
		switch {
		case r == '\\' && !single:
			b.WriteRune(r)
			if i+1 < len(rs) {
				i++
				b.WriteRune(rs[i])
			}
			continue
		case r == '\'' && !double:
			single = !single
		case r == '"' && !single:
			double = !double
		case r == '$' && !single:
			if name, width := envName(rs[i+1:]); name != "" {
				value, _ := env(name)
				b.WriteString(escapeWord(value))
				i += width
				continue
			}
		}
		b.WriteRune(r)
	}
	return b.String()
}

// envName reads NAME or {NAME} at the start of rs and returns it with the
// number of runes consumed. $( is left alone for primitive substitution.
func envName(rs []rune) (string, int) {
	if len(rs) > 0 && rs[0] == '{' {
		for j := 1; j < len(rs); j++ {
			if rs[j] == '}' {
				name := string(rs[1:j])
				if !validEnvName(name) {
					return "", 0
				}
				return name, j + 1
			}
		}
		return "", 0
	}
	j := 0
	for j < len(rs) && isEnvRune(rs[j], j == 0) {
		j++
	}
	return string(rs[:j]), j
}

func validEnvName(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range []rune(name) {
		if !isEnvRune(r, i == 0) {
			return false
		}
	}
	return true
}

func isEnvRune(r rune, first bool) bool {
	if r == '_' || unicode.IsLetter(r) {
		return true
	}
	return !first && unicode.IsDigit(r)
}

func escapeWord(value string) string {
	var b strings.Builder
	for _, r := range value {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
