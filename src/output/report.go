package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sofmeright/workman/src/report"
)

// Report renders the outcomes of a command grouped by project, followed by
// a summary section with per-status counts.
func Report(w io.Writer, rep *report.Report, elapsed time.Duration, color bool) {
	outcomes := rep.Outcomes()
	if len(outcomes) == 0 {
		sec := NewSection(w, rep.Command, elapsed, color)
		sec.Row("nothing to do")
		sec.Close()
		return
	}

	var sec *Section
	project, id := "", ""
	for _, o := range outcomes {
		if sec == nil || o.Project != project {
			if sec != nil {
				sec.Close()
				SectionEnd(w, id)
			}
			project = o.Project
			id = sectionID(rep.Command, project)
			SectionStart(w, id, project)
			sec = NewSection(w, project, 0, color)
		}
		RowStatus(sec, label(o), detail(o), o.Status, color)
	}
	sec.Close()
	SectionEnd(w, id)

	id = sectionID(rep.Command, "summary")
	SectionStart(w, id, "Summary")
	summary := NewSection(w, "Summary", elapsed, color)
	for _, s := range []report.Status{report.Success, report.Warning, report.Skipped, report.Failed} {
		if n := rep.Count(s); n > 0 {
			SummaryRow(summary, string(s), n, s, color)
		}
	}
	summary.Close()
	SectionEnd(w, id)
}

// sectionID builds a GitLab section id: lowercase letters, digits and
// underscores only.
func sectionID(parts ...string) string {
	var b strings.Builder
	b.WriteString("workman")
	for _, p := range parts {
		b.WriteByte('_')
		for _, r := range strings.ToLower(p) {
			if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
				b.WriteRune(r)
			} else {
				b.WriteByte('_')
			}
		}
	}
	return b.String()
}

// SummaryRow writes a summary line with status icon.
func SummaryRow(sec *Section, name string, count int, status report.Status, color bool) {
	sec.Row("%-12s%s  %d", name, StatusIcon(status, color), count)
}

func label(o report.Outcome) string {
	target := o.Ref
	if target == "" {
		target = o.Image
	}
	return fmt.Sprintf("%-7s %s", o.Op, target)
}

func detail(o report.Outcome) string {
	switch {
	case o.Err != nil && o.Detail != "":
		return o.Detail + ": " + o.Err.Error()
	case o.Err != nil:
		return o.Err.Error()
	}
	return o.Detail
}
