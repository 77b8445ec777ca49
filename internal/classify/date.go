package classify

import (
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/nrgdoc/edo-repacker/internal/codes"
)

var dottedDate = regexp.MustCompile(`^\d{2}\.\d{2}\.\d{4}$`)

// ParseDate parses a numeric day/month/year string in any of the upstream
// spellings. Day-first: upstream dates are never month-first.
func ParseDate(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if dottedDate.MatchString(s) {
		return time.ParseInLocation("02.01.2006", s, time.UTC)
	}
	return dateparse.ParseAny(s, dateparse.PreferMonthFirst(false))
}

// numeralizeDate turns a textual "dd МЕСЯЦА yyyy" date into its numeric form.
// The first month-name table entry found as a substring is substituted; a
// string that is already numeric passes through unchanged.
func numeralizeDate(raw string, months []codes.MonthName) string {
	for _, m := range months {
		if strings.Contains(raw, m.Name) {
			raw = strings.Replace(raw, m.Name, m.Num, 1)
			break
		}
	}
	return strings.Join(strings.Fields(raw), ".")
}

// reconDate computes the convention date of a reconciliation act relative to
// the processing date: the last calendar day of the month 30 days back.
func reconDate(now time.Time) time.Time {
	t := now.AddDate(0, 0, -30)
	firstOfMonth := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return firstOfMonth.AddDate(0, 1, -1)
}
