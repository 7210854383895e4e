package framebuffer

import (
	"fmt"
	"strconv"
	"strings"
)

// Mapping is one parsed line of /proc/PID/maps.
type Mapping struct {
	Start  uint64
	End    uint64
	Perms  string
	Offset uint64
	Path   string // empty for anonymous mappings
}

// ParseMaps parses the full text of a /proc/PID/maps file. Blank lines are
// skipped; a line whose address fields cannot be parsed fails the whole parse
// with ErrAddressParse.
func ParseMaps(data []byte) ([]Mapping, error) {
	var mappings []Mapping
	for i, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		m, err := parseMapsLine(line)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %q", ErrAddressParse, i+1, line)
		}
		mappings = append(mappings, m)
	}
	return mappings, nil
}

// parseMapsLine parses "start-end perms offset dev inode [path]".
func parseMapsLine(line string) (Mapping, error) {
	fields := strings.Fields(line)
	if len(fields) < 5 {
		return Mapping{}, fmt.Errorf("want at least 5 fields, got %d", len(fields))
	}

	start, end, ok := strings.Cut(fields[0], "-")
	if !ok {
		return Mapping{}, fmt.Errorf("malformed address range %q", fields[0])
	}
	var m Mapping
	var err error
	if m.Start, err = strconv.ParseUint(start, 16, 64); err != nil {
		return Mapping{}, err
	}
	if m.End, err = strconv.ParseUint(end, 16, 64); err != nil {
		return Mapping{}, err
	}
	if m.End <= m.Start {
		return Mapping{}, fmt.Errorf("range %q ends before it starts", fields[0])
	}
	m.Perms = fields[1]
	if m.Offset, err = strconv.ParseUint(fields[2], 16, 64); err != nil {
		return Mapping{}, err
	}
	if len(fields) > 5 {
		m.Path = strings.Join(fields[5:], " ")
	}
	return m, nil
}

// BaseAddress returns the start of the last mapping of path. The device can
// be mapped more than once; the live frame sits behind the last entry.
func BaseAddress(mappings []Mapping, path string) (uint64, bool) {
	for i := len(mappings) - 1; i >= 0; i-- {
		if mappings[i].Path == path {
			return mappings[i].Start, true
		}
	}
	return 0, false
}
