package utils

import (
	"strconv"
	"strings"
)

// ParseID parses a frame identifier. It accepts Go integer literals
// (0x, 0o and 0b prefixes, underscore separators); a literal with leading
// zeros and no prefix is read as decimal, not octal.
func ParseID(s string) (uint32, error) {
	ss := strings.TrimSpace(s)
	base := 0
	if len(ss) > 1 && ss[0] == '0' && ss[1] >= '0' && ss[1] <= '9' {
		base = 10
	}
	u, err := strconv.ParseUint(ss, base, 32)
	if err != nil {
		return 0, err
	}
	return uint32(u), nil
}
