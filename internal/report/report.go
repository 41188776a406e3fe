// Package report renders the end-of-run per-file outcome summary spec.md
// §4.9/§7 describes: one line per file with its outcome message and — on
// failure — the ErrorKind that stopped it, then a file/failure count line.
// The stage at which a file stopped is not recorded.
package report

import (
	"fmt"
	"strings"
)

// Record is one file's terminal outcome.
type Record struct {
	Name      string
	Succeeded bool
	ErrorKind string // empty when Succeeded
	Message   string
}

// Report is the full end-of-run summary.
type Report struct {
	Records []Record
}

// Add appends rec to the report.
func (r *Report) Add(rec Record) {
	r.Records = append(r.Records, rec)
}

// OK reports whether every file succeeded.
func (r Report) OK() bool {
	for _, rec := range r.Records {
		if !rec.Succeeded {
			return false
		}
	}
	return true
}

// FailureCount returns how many files did not succeed.
func (r Report) FailureCount() int {
	n := 0
	for _, rec := range r.Records {
		if !rec.Succeeded {
			n++
		}
	}
	return n
}

// String renders the report as user-facing text output, one aligned line
// per file, in the same "[STATUS] name: message" shape doctor.Report uses.
func (r Report) String() string {
	var b strings.Builder
	for _, rec := range r.Records {
		if rec.Succeeded {
			b.WriteString(fmt.Sprintf("[OK] %s: %s\n", rec.Name, rec.Message))
			continue
		}
		b.WriteString(fmt.Sprintf("[FAIL] %s: %s: %s\n", rec.Name, rec.ErrorKind, rec.Message))
	}
	fmt.Fprintf(&b, "%d file(s), %d failed", len(r.Records), r.FailureCount())
	return b.String()
}
