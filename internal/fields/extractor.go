// Package fields turns raw invoice text into a structured Factura. Every
// extractor is total: a field that cannot be found yields its documented
// sentinel or empty value, never an error.
package fields

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/facturascl/extractor/constants"
	"github.com/facturascl/extractor/internal/entity"
	"github.com/facturascl/extractor/internal/validate"
)

var (
	// Chilean RUT: XX.XXX.XXX-V or XXXXXXXX-V, V a digit or K, tolerant of
	// stray whitespace around the hyphen.
	reRUT       = regexp.MustCompile(`(?i)(\d{1,2}\.\d{3}\.\d{3}-\s*[\dkK]|\d{8}-\s*[\dkK])`)
	reRUTHyphen = regexp.MustCompile(`\s*-\s*`)

	// Invoice number patterns, most specific first.
	reNumero = []*regexp.Regexp{
		regexp.MustCompile(`(?im)FACTURA\s+N°\s*(\d+)`),
		regexp.MustCompile(`(?im)(?:^|\s)N°\s*(\d+)`),
		regexp.MustCompile(`(?im)Número\s+(?:de\s+)?Factura[:\s]*(\d+)`),
	}

	// Emission date: "<day> de <month> del/de <year>" or DD/MM/YYYY.
	reFechaEmisionTextual = regexp.MustCompile(`(?i)fecha\s+emisi[oó]n[:\s]+(\d{1,2})\s+de\s+([a-záéíóúñ]+)\s+del?\s+(\d{4})`)
	reFechaNumerica       = regexp.MustCompile(`(?i)fecha[:\s]+(\d{1,2})/(\d{1,2})/(\d{4})`)
	reEmisionTextual      = regexp.MustCompile(`(?i)emisi[oó]n[:\s]+(\d{1,2})\s+de\s+([a-záéíóúñ]+)\s+del?\s+(\d{4})`)

	// Issuer name: the line following the R.U.T. header.
	reEmpresaEmisora = regexp.MustCompile(`(?ms)^R\.?U\.?T.*?\n+\s*([A-ZÁÉÍÓÚÑ][A-ZÁÉÍÓÚÑ\s\.]+?)\n`)

	// Recipient name markers.
	reEmpresaDestinataria = []*regexp.Regexp{
		regexp.MustCompile(`(?im)SEÑOR\s*\(?\s*ES\s*\)?\s*[:\s]+([A-Z][A-Z\s\.]+?)(?:\n|R\.U\.T)`),
		regexp.MustCompile(`(?im)SENOR\s*\(?\s*ES\s*\)?\s*[:\s]+([A-Z][A-Z\s\.]+?)(?:\n|R\.U\.T)`),
		regexp.MustCompile(`(?im)CLIENTE[:\s]+([A-Z][A-Z\s\.]+?)(?:\n|R\.U\.T)`),
	}

	// Section split: everything before the SEÑOR(ES) marker belongs to the
	// issuer, the rest to the recipient.
	reSenorMarker = regexp.MustCompile(`(?i)SE[ÑN]OR\s*\(?\s*ES\s*\)?`)

	// Issuer address candidates: uppercase line containing a digit.
	reDomicilioEmisor       = regexp.MustCompile(`(?m)^([A-Z][A-Z0-9\s]+\d[A-Z0-9\s\-,]*?)(?:\s+N°\d+)?(?:\n|$)`)
	reDomicilioDestinatario = regexp.MustCompile(`(?i)DIRECCI[OÓ]N\s*:\s*([^\n]+)`)

	reMontoNeto         = regexp.MustCompile(`(?i)MONTO\s+NETO[:\s]*\$\s*=?\s*([\d.,]+)`)
	reIVA               = regexp.MustCompile(`(?i)I\.?V\.?A\.?[:\s]*\d+%?\s*\$\s*=?\s*([\d.,]+)`)
	reTotal             = regexp.MustCompile(`(?i)TOTAL[:\s]*\$\s*=?\s*([\d.,]+)`)
	reImpuestoAdicional = regexp.MustCompile(`(?i)IMPUESTO\s+ADICIONAL[:\s]*\$\s*=?\s*([\d.,]+)`)

	reSpaces   = regexp.MustCompile(`\s+`)
	reNonDigit = regexp.MustCompile(`[^\d]`)
)

// Lines matching any of these markers are never issuer addresses.
var domicilioStoplist = []string{"SEÑOR", "GIRO:", "EMAIL", "TELEFONO", "TIPO", "FACTURA"}

// Extractor applies the pattern rules in a fixed order. It holds no state
// beyond a logger; Extract is a pure function of its input.
type Extractor struct {
	logger *slog.Logger
}

func NewExtractor(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{logger: logger}
}

// Extract pulls every supported field out of the text. Missing fields keep
// their sentinel values.
func (e *Extractor) Extract(text string) entity.Factura {
	f := entity.NewFactura()

	ruts := extractRUTs(text)
	if len(ruts) > 0 {
		f.RutEmisor = ruts[0]
	}
	if len(ruts) > 1 {
		f.RutDestinatario = ruts[1]
	}

	f.NumeroFactura = extractNumeroFactura(text)
	f.FechaEmision = extractFechaEmision(text)
	f.EmpresaEmisora = extractEmpresaEmisora(text)
	f.EmpresaDestinataria = extractEmpresaDestinataria(text)
	f.DomicilioEmisor, f.DomicilioDestinatario = extractDomicilios(text)

	f.MontoNeto = firstMonto(reMontoNeto, text)
	f.IVA = lastMonto(reIVA, text)
	f.Total = lastMonto(reTotal, text)
	if f.Total == 0 && f.MontoNeto > 0 {
		// invoices sometimes omit the TOTAL line; derive it
		f.Total = f.MontoNeto + f.IVA
	}
	f.ImpuestoAdicional = lastMonto(reImpuestoAdicional, text)

	e.logger.Debug("fields.extract.done",
		"numero", f.NumeroFactura,
		"ruts", len(ruts),
		"neto", f.MontoNeto,
		"total", f.Total,
	)
	return f
}

// extractRUTs returns all RUTs in document order, normalized and
// de-duplicated preserving first occurrence. The first is the issuer, the
// second the recipient.
func extractRUTs(text string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, m := range reRUT.FindAllString(text, -1) {
		rut := strings.ToUpper(reRUTHyphen.ReplaceAllString(m, "-"))
		if _, ok := seen[rut]; ok {
			continue
		}
		seen[rut] = struct{}{}
		out = append(out, rut)
	}
	return out
}

// extractNumeroFactura tries the patterns in decreasing specificity; the
// first match wins, absence yields 0.
func extractNumeroFactura(text string) int {
	for _, re := range reNumero {
		if m := re.FindStringSubmatch(text); m != nil {
			n, err := strconv.Atoi(m[1])
			if err == nil {
				return n
			}
		}
	}
	return 0
}

func extractFechaEmision(text string) time.Time {
	if m := reFechaEmisionTextual.FindStringSubmatch(text); m != nil {
		if d, ok := textualDate(m[1], m[2], m[3]); ok {
			return d
		}
	}
	if m := reFechaNumerica.FindStringSubmatch(text); m != nil {
		if d, ok := numericDate(m[1], m[2], m[3]); ok {
			return d
		}
	}
	if m := reEmisionTextual.FindStringSubmatch(text); m != nil {
		if d, ok := textualDate(m[1], m[2], m[3]); ok {
			return d
		}
	}
	return entity.DefaultFechaEmision
}

// Date well-formedness is delegated to validate.ValidateDate so extraction
// and validation agree on what counts as a real calendar date.
func textualDate(dayStr, monthName, yearStr string) (time.Time, bool) {
	if !validate.ValidateDate(fmt.Sprintf("%s de %s de %s", dayStr, monthName, yearStr)) {
		return time.Time{}, false
	}
	day, _ := strconv.Atoi(dayStr)
	year, _ := strconv.Atoi(yearStr)
	month := constants.SpanishMonths[strings.ToLower(monthName)]
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC), true
}

func numericDate(dayStr, monthStr, yearStr string) (time.Time, bool) {
	if !validate.ValidateDate(fmt.Sprintf("%s-%s-%s", dayStr, monthStr, yearStr)) {
		return time.Time{}, false
	}
	day, _ := strconv.Atoi(dayStr)
	month, _ := strconv.Atoi(monthStr)
	year, _ := strconv.Atoi(yearStr)
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), true
}

// extractEmpresaEmisora takes the legal name from the line beneath the
// R.U.T. header block.
func extractEmpresaEmisora(text string) string {
	m := reEmpresaEmisora.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	empresa := normalizeSpaces(m[1])
	if len(empresa) <= 2 {
		return ""
	}
	return empresa
}

func extractEmpresaDestinataria(text string) string {
	for _, re := range reEmpresaDestinataria {
		if m := re.FindStringSubmatch(text); m != nil {
			empresa := normalizeSpaces(m[1])
			if len(empresa) > 2 {
				return empresa
			}
		}
	}
	return ""
}

// extractDomicilios splits the document at the SEÑOR(ES) marker and applies
// positional heuristics to each section. This is a best-effort layout
// assumption about Chilean invoices, not a guaranteed extraction.
func extractDomicilios(text string) (emisor, destinatario string) {
	seccionEmisor, seccionDestinatario := text, text
	if loc := reSenorMarker.FindStringIndex(text); loc != nil {
		seccionEmisor = text[:loc[0]]
		seccionDestinatario = text[loc[0]:]
	}

	// last street-looking candidate not excluded by the stoplist
	for _, m := range reDomicilioEmisor.FindAllStringSubmatch(seccionEmisor, -1) {
		candidate := m[1]
		if len(candidate) <= 10 || stoplisted(candidate) {
			continue
		}
		emisor = normalizeSpaces(candidate)
	}

	if m := reDomicilioDestinatario.FindStringSubmatch(seccionDestinatario); m != nil {
		destinatario = normalizeSpaces(m[1])
	}
	return emisor, destinatario
}

func stoplisted(line string) bool {
	upper := strings.ToUpper(line)
	for _, marker := range domicilioStoplist {
		if strings.Contains(upper, marker) {
			return true
		}
	}
	return false
}

// firstMonto returns the first amount matched by re, as an integer. MONTO
// NETO is stated once near the amount block; the first mention is the
// authoritative one.
func firstMonto(re *regexp.Regexp, text string) int {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	return parseMonto(m[1])
}

// lastMonto returns the last amount matched by re, as an integer. Summary
// lines near the bottom restate IVA and TOTAL; the final mention wins.
func lastMonto(re *regexp.Regexp, text string) int {
	matches := re.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return 0
	}
	return parseMonto(matches[len(matches)-1][1])
}

// parseMonto strips every non-digit (thousands dots, commas, currency
// symbols) before converting.
func parseMonto(s string) int {
	digits := reNonDigit.ReplaceAllString(s, "")
	if digits == "" {
		return 0
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0
	}
	return n
}

func normalizeSpaces(s string) string {
	return strings.TrimSpace(reSpaces.ReplaceAllString(s, " "))
}
