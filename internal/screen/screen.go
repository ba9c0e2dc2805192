// Package screen validates resolved field values before a shell, process, or
// filesystem consumer trusts them.
package screen

import (
	"fmt"
	"strings"
)

// illegalChars are rejected anywhere in a general input value.
var illegalChars = []string{
	";", "{", "}", "(", ")", "<", ">", "&", "*", "|", "=", "?",
	"[", "]", "$", "%", "+", "`", "\n", "\r",
}

// GeneralInputStrict trims the value and rejects characters that would let it
// escape into shell syntax.
func GeneralInputStrict(value string) (string, error) {
	trimmed := strings.TrimSpace(value)
	for _, c := range illegalChars {
		if strings.Contains(trimmed, c) {
			return "", fmt.Errorf("illegal characters found: %s (%q)", trimmed, c)
		}
	}
	return trimmed, nil
}

// Path screens a path fragment: general input rules plus no NUL bytes and no
// ".." segments.
func Path(value string) (string, error) {
	if strings.ContainsRune(value, 0) {
		return "", fmt.Errorf("path contains NUL byte")
	}
	trimmed, err := GeneralInputStrict(value)
	if err != nil {
		return "", err
	}
	for _, segment := range strings.FieldsFunc(trimmed, isSeparator) {
		if segment == ".." {
			return "", fmt.Errorf("path contains traversal: %s", trimmed)
		}
	}
	return trimmed, nil
}

func isSeparator(r rune) bool {
	return r == '/' || r == '\\'
}
