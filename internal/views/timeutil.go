package views

import "time"

// Asia/Kolkata for all display formatting
var tzKolkata *time.Location

func init() {
	loc, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		// no tzdata on the host
		tzKolkata = time.FixedZone("IST", 5*3600+1800)
		return
	}
	tzKolkata = loc
}

// Date-only friendly string, e.g. "Wed, 04 Feb 2026"
func fmtDate(d time.Time) string {
	if d.IsZero() {
		return ""
	}
	return d.In(tzKolkata).Format("Mon, 02 Jan 2006")
}

// fmtDateTime formats an API timestamp. Unparseable values are shown as given.
func fmtDateTime(s string) string {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05", "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.In(tzKolkata).Format("Mon, 02 Jan 2006 15:04")
		}
	}
	return s
}
