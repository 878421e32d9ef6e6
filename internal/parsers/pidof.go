package parsers

import (
	"fmt"
	"strconv"
	"strings"
)

// ParsePIDOf returns the first pid printed by pidof. Multi-process apps print
// several; the first is the main process.
func ParsePIDOf(output string) (int, error) {
	fields := strings.Fields(Sanitize(output))
	if len(fields) == 0 {
		return 0, ErrProcessNotFound
	}
	pid, err := strconv.Atoi(fields[0])
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("%w: pidof printed %q", ErrMalformed, fields[0])
	}
	return pid, nil
}
