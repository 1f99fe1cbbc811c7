package pathway

import (
	"bufio"
	"io"
	"strings"

	"github.com/turtacn/OmicsPath-Intelligence/pkg/errors"
)

// ParseGMT reads a catalog in the standard GMT format: one pathway per line,
// tab-separated, with the pathway identifier in the first field, the display
// name (or description URL) in the second, and molecule identifiers in the
// remaining fields.  Blank lines and lines starting with '#' are skipped.
func ParseGMT(r io.Reader) (*Catalog, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var entries []Entry
	line := 0
	for sc.Scan() {
		line++
		raw := strings.TrimRight(sc.Text(), "\r\n")
		if raw == "" || strings.HasPrefix(raw, "#") {
			continue
		}
		fields := strings.Split(raw, "\t")
		if len(fields) < 3 {
			return nil, errors.Newf(errors.ErrCodeGMTParse,
				"line %d: expected at least 3 tab-separated fields, got %d", line, len(fields))
		}
		mols := make([]string, 0, len(fields)-2)
		for _, f := range fields[2:] {
			if f = strings.TrimSpace(f); f != "" {
				mols = append(mols, f)
			}
		}
		entries = append(entries, Entry{
			ID:        strings.TrimSpace(fields[0]),
			Name:      strings.TrimSpace(fields[1]),
			Molecules: mols,
		})
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeGMTParse, "failed to read pathway file")
	}
	if len(entries) == 0 {
		return nil, errors.New(errors.ErrCodeGMTParse, "pathway file contains no entries")
	}
	return FromEntries(entries)
}
