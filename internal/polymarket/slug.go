package polymarket

import (
	"fmt"
	"strings"

	"github.com/rickgao/seoulhigh/internal/kst"
)

// Slug builds the event slug for a KST day, e.g.
// "highest-temperature-in-seoul-on-january-15".
func Slug(prefix string, day kst.Date) string {
	return fmt.Sprintf("%s-%s-%d", prefix, strings.ToLower(day.Month.String()), day.Day)
}
