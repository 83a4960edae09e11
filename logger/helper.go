package logger

import (
	"fmt"
	"strings"
)

// format joins msg with its key/value args into a single printable line.
func format(msg string, args ...any) string {
	if len(args) == 0 {
		return msg
	}
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, msg)
	for _, arg := range args {
		parts = append(parts, fmt.Sprintf("%v", arg))
	}
	return strings.Join(parts, " ")
}
