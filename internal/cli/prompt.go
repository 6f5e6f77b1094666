package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/skorokithakis/dock/internal/lifecycle"
)

// terminalConfirm asks yes/no questions on out and reads answers from in.
// Only "y" and "yes" are affirmative; an empty answer takes the default.
func terminalConfirm(in io.Reader, out io.Writer) lifecycle.ConfirmFunc {
	reader := bufio.NewReader(in)
	return func(prompt string, def bool) bool {
		hint := "[y/N]"
		if def {
			hint = "[Y/n]"
		}
		fmt.Fprintf(out, "%s %s ", prompt, hint)

		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			fmt.Fprintln(out)
			return false
		}

		switch strings.ToLower(strings.TrimSpace(line)) {
		case "":
			return def
		case "y", "yes":
			return true
		default:
			return false
		}
	}
}
