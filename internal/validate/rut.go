package validate

import (
	"regexp"
	"strings"
)

var reRUTNormalized = regexp.MustCompile(`^\d{1,8}[0-9K]$`)

// ValidateRUT checks a Chilean RUT against its modulo-11 check digit.
// Accepts dotted ("76.869.695-0") and plain ("76869695-0") forms.
func ValidateRUT(rut string) bool {
	rut = strings.ToUpper(strings.NewReplacer(".", "", "-", "", " ", "").Replace(rut))
	if !reRUTNormalized.MatchString(rut) {
		return false
	}

	body, dv := rut[:len(rut)-1], rut[len(rut)-1:]
	sum := 0
	mul := 2
	for i := len(body) - 1; i >= 0; i-- {
		sum += int(body[i]-'0') * mul
		if mul < 7 {
			mul++
		} else {
			mul = 2
		}
	}

	mod := sum % 11
	var calc string
	switch {
	case mod == 0:
		calc = "0"
	case 11-mod == 10:
		calc = "K"
	default:
		calc = string(rune('0' + 11 - mod))
	}
	return calc == dv
}
