package util

import (
	"strconv"
	"strings"
)

// MustParseUint returns 0 when s is not an unsigned integer.
func MustParseUint(s string) uint {
	id, _ := strconv.ParseUint(s, 10, 32)
	return uint(id)
}

// ParseIDList parses a comma separated id list such as "1,2,3". Empty items
// are ignored.
func ParseIDList(s string) ([]uint, error) {
	var ids []uint
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseUint(part, 10, 32)
		if err != nil || id == 0 {
			return nil, Invalid("ids", "invalid id %q", part)
		}
		ids = append(ids, uint(id))
	}
	return ids, nil
}
