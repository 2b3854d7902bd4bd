// assets/embed.go
//
// Embedded data files shipped with the binary.
//   - roster.txt: default species roster, "<id> <name>" per line.
package assets

import (
	"bufio"
	"embed"
	"io"
	"strings"
)

//go:embed roster.txt
var FS embed.FS

// ReadLines returns the non-empty, non-comment lines of r, trimmed and lowercased.
func ReadLines(r io.Reader) ([]string, error) {
	var out []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		s := strings.TrimSpace(sc.Text())
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		out = append(out, strings.ToLower(s))
	}
	return out, sc.Err()
}

// RosterLines returns the embedded default roster.
func RosterLines() ([]string, error) {
	f, err := FS.Open("roster.txt")
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadLines(f)
}
