package report

import (
	"regexp"
	"sort"
	"strings"

	"github.com/alessio/shellescape"
)

type commandBuilder []string

func (b *commandBuilder) add(args ...string) {
	for _, a := range args {
		*b = append(*b, shellescape.Quote(a))
	}
}

func (b commandBuilder) String() string {
	return strings.Join(b, " ")
}

// RerunCommand returns a "go test" command line that runs only the top-level tests of the
// given entries. It returns "" if there are none.
func RerunCommand(entries []Entry, packages ...string) string {
	names := map[string]bool{}
	for _, e := range entries {
		if top := e.TestID().TopLevel(); top != "" {
			names[top] = true
		}
	}
	if len(names) == 0 {
		return ""
	}
	sorted := make([]string, 0, len(names))
	for n := range names {
		sorted = append(sorted, regexp.QuoteMeta(n))
	}
	sort.Strings(sorted)
	if len(packages) == 0 {
		packages = []string{"./..."}
	}
	var b commandBuilder
	b.add("go", "test", "-run", "^("+strings.Join(sorted, "|")+")$")
	b.add(packages...)
	return b.String()
}
