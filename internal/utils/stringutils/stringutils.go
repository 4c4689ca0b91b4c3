package stringutils

import (
	"fmt"
	"strings"
)

// INCluse builds the placeholder list and arguments for an `IN (...)` clause.
// Placeholders are numbered from start, so the clause can follow other arguments.
func INCluse[T any](list []T, start int) (placeholders []string, args []any) {
	placeholders = make([]string, len(list))
	args = make([]any, len(list))
	for i, item := range list {
		placeholders[i] = fmt.Sprintf("$%d", start+i)
		args[i] = item
	}

	return placeholders, args
}

// JoinINCluse is INCluse with the placeholders already joined, e.g. "$1, $2, $3".
func JoinINCluse[T any](list []T, start int) (string, []any) {
	placeholders, args := INCluse(list, start)
	return strings.Join(placeholders, ", "), args
}
