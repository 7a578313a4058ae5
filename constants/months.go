package constants

import "time"

// SpanishMonths maps lowercase Spanish month names to calendar months.
var SpanishMonths = map[string]time.Month{
	"enero":      time.January,
	"febrero":    time.February,
	"marzo":      time.March,
	"abril":      time.April,
	"mayo":       time.May,
	"junio":      time.June,
	"julio":      time.July,
	"agosto":     time.August,
	"septiembre": time.September,
	"octubre":    time.October,
	"noviembre":  time.November,
	"diciembre":  time.December,
}

var spanishMonthNames = [13]string{
	"", "enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

// SpanishMonthName returns the lowercase Spanish name for a month.
func SpanishMonthName(m time.Month) string {
	if m < time.January || m > time.December {
		return ""
	}
	return spanishMonthNames[m]
}
