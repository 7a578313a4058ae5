package ocr

import (
	"math"
	"strings"
	"unicode"

	"github.com/facturascl/extractor/constants"
)

// Letters that legitimately appear in Spanish invoice text beyond plain
// ASCII. Anything else outside ASCII counts as OCR noise.
const spanishExtras = "áéíóúüñÁÉÍÓÚÜÑ°ºª¿¡"

const minTrustworthyChars = 50

// EstimateQuality scores an OCR result in [0,1]. It is a proxy signal used to
// pick between the two preprocessing tiers, not a correctness guarantee:
// keyword presence raises the score, non-Spanish noise characters and
// symbol-dominated lines lower it. Texts under 50 characters score 0.
func EstimateQuality(text string) float64 {
	if len(strings.TrimSpace(text)) < minTrustworthyChars {
		return 0
	}

	lower := strings.ToLower(text)
	found := 0
	for _, kw := range constants.InvoiceKeywords {
		if strings.Contains(lower, kw) {
			found++
		}
	}
	score := float64(found) / float64(len(constants.InvoiceKeywords)) * 0.5

	score -= math.Min(0.25, noiseFraction(text))
	score -= math.Min(0.25, symbolLineFraction(text)*0.5)

	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// noiseFraction is the fraction of characters outside ASCII and the accented
// Spanish set.
func noiseFraction(text string) float64 {
	var weird, total int
	for _, r := range text {
		if r == '\n' || r == '\r' || r == '\t' {
			continue
		}
		total++
		if r > unicode.MaxASCII && !strings.ContainsRune(spanishExtras, r) {
			weird++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(weird) / float64(total)
}

// symbolLineFraction is the fraction of non-empty lines whose characters are
// mostly neither letters nor digits.
func symbolLineFraction(text string) float64 {
	var symbolLines, lines int
	for _, ln := range strings.Split(text, "\n") {
		ln = strings.TrimSpace(ln)
		if ln == "" {
			continue
		}
		lines++
		alnum, total := 0, 0
		for _, r := range ln {
			total++
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				alnum++
			}
		}
		if alnum*2 < total {
			symbolLines++
		}
	}
	if lines == 0 {
		return 0
	}
	return float64(symbolLines) / float64(lines)
}
