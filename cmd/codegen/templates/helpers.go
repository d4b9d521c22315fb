package templates

import (
	"fmt"
	"strconv"
	"strings"
)

// prefixedStrings renders "p0, p1, ..." for count entries.
func prefixedStrings(prefix string, count int) string {
	var sb strings.Builder
	for i := 0; i < count; i++ {
		sb.WriteString(prefix)
		sb.WriteString(strconv.Itoa(i))
		if i < count-1 {
			sb.WriteString(", ")
		}
	}
	return sb.String()
}

func readableParams(count int) string {
	params := make([]string, count)
	for i := range params {
		params[i] = fmt.Sprintf("s%d Readable[T%d]", i, i)
	}
	return strings.Join(params, ", ")
}
