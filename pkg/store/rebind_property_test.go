//go:build property
// +build property

package store

import (
	"fmt"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestRebindReplacesEveryPlaceholder verifies that for any number of $N
// placeholders, the SQLite rewrite produces exactly that many ? markers and
// leaves no $ behind.
func TestRebindReplacesEveryPlaceholder(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	s := &Store{dialect: DialectSQLite}

	properties.Property("every $N becomes one ?", prop.ForAll(
		func(n int) bool {
			var b strings.Builder
			b.WriteString("INSERT INTO t VALUES (")
			for i := 1; i <= n; i++ {
				if i > 1 {
					b.WriteString(", ")
				}
				fmt.Fprintf(&b, "$%d", i)
			}
			b.WriteString(")")

			out := s.q(b.String())
			return strings.Count(out, "?") == n && !strings.Contains(out, "$")
		},
		gen.IntRange(0, 64),
	))

	properties.Property("text without placeholders is untouched", prop.ForAll(
		func(ident string) bool {
			q := "SELECT " + ident + " FROM t"
			return s.q(q) == q
		},
		gen.Identifier(),
	))

	properties.TestingRun(t)
}
