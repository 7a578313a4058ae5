// Package validate checks extracted invoice records for completeness and
// internal consistency. All findings are collected into a field-keyed error
// map so a caller sees every problem in one pass.
package validate

import (
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/facturascl/extractor/constants"
	"github.com/facturascl/extractor/internal/entity"
)

// Options carries the cross-invocation facts a caller may supply. The zero
// value validates a standalone invoice at the standard Chilean IVA rate.
type Options struct {
	// PreviousInvoiceNum, when set, enforces strict correlative numbering:
	// the invoice number must equal the previous one plus one.
	PreviousInvoiceNum *int
	// IVARate is the standard rate to compare against; 0 means 0.19.
	IVARate float64
}

// Outcome is the result of one validation pass. Errors maps field names to
// human-readable reasons; Valid is true only when the map is empty.
type Outcome struct {
	Valid  bool              `json:"valid"`
	Errors map[string]string `json:"errors"`
}

type Validator struct {
	logger *slog.Logger
}

func NewValidator(logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Validator{logger: logger}
}

// requiredFields maps the field name under which completeness errors are
// reported to a predicate telling whether the field is still a sentinel.
var requiredFields = []struct {
	name    string
	missing func(f entity.Factura) bool
}{
	{"numero_factura", func(f entity.Factura) bool { return f.NumeroFactura == 0 }},
	{"fecha_emision", func(f entity.Factura) bool { return !f.HasFechaEmision() }},
	{"empresa_emisora", func(f entity.Factura) bool { return f.EmpresaEmisora == "" }},
	{"empresa_destinataria", func(f entity.Factura) bool { return f.EmpresaDestinataria == "" }},
	{"rut_emisor", func(f entity.Factura) bool { return f.RutEmisor == "" }},
	{"domicilio_emisor", func(f entity.Factura) bool { return f.DomicilioEmisor == "" }},
	{"domicilio_destinatario", func(f entity.Factura) bool { return f.DomicilioDestinatario == "" }},
	{"monto_neto", func(f entity.Factura) bool { return f.MontoNeto == 0 }},
	{"total", func(f entity.Factura) bool { return f.Total == 0 }},
}

// Validate runs every check against the record. Missing required fields
// short-circuit the pass: the remaining checks assume presence.
func (v *Validator) Validate(f entity.Factura, opts Options) Outcome {
	errors := make(map[string]string)

	for _, rf := range requiredFields {
		if rf.missing(f) {
			errors[rf.name] = fmt.Sprintf("Campo requerido '%s' faltante o vacío.", rf.name)
		}
	}
	if len(errors) > 0 {
		v.logger.Warn("validate.incomplete", "missing", len(errors))
		return Outcome{Valid: false, Errors: errors}
	}

	if f.NumeroFactura <= 0 {
		errors["numero_factura"] = "Debe ser un número positivo."
	}
	if opts.PreviousInvoiceNum != nil && f.NumeroFactura != *opts.PreviousInvoiceNum+1 {
		errors["numero_factura"] = fmt.Sprintf("No es correlativo (esperado: %d).", *opts.PreviousInvoiceNum+1)
	}

	for _, sf := range []struct{ name, value string }{
		{"empresa_emisora", f.EmpresaEmisora},
		{"empresa_destinataria", f.EmpresaDestinataria},
		{"domicilio_emisor", f.DomicilioEmisor},
		{"domicilio_destinatario", f.DomicilioDestinatario},
	} {
		if len(sf.value) < 3 {
			errors[sf.name] = "Debe ser un string válido con al menos 3 caracteres."
		}
	}

	if !ValidateRUT(f.RutEmisor) {
		errors["rut_emisor"] = "RUT inválido."
	}
	// the recipient RUT is not always printed; validate only when captured
	if f.RutDestinatario != "" && !ValidateRUT(f.RutDestinatario) {
		errors["rut_destinatario"] = "RUT inválido."
	}

	if f.MontoNeto <= 0 {
		errors["monto_neto"] = "Debe ser un número positivo."
	} else {
		stdRate := opts.IVARate
		if stdRate == 0 {
			stdRate = 0.19
		}
		rate := float64(f.IVA) / float64(f.MontoNeto)
		if rate < 0 || rate > 1 {
			errors["iva"] = "Debe ser entre 0 y 1 (ej. 0.19)."
		} else if math.Abs(rate-stdRate) > 0.005 {
			// non-standard rates are legal for exempt or special operations
			v.logger.Warn("validate.iva_rate.nonstandard", "rate", rate, "standard", stdRate)
		}

		expected := float64(f.MontoNeto) * (1 + rate)
		if math.Abs(float64(f.Total)-expected) > 0.01 {
			errors["total"] = fmt.Sprintf("No coincide con cálculo (esperado: %.2f).", expected)
		}
	}

	if len(errors) > 0 {
		v.logger.Warn("validate.failed", "errors", len(errors))
		return Outcome{Valid: false, Errors: errors}
	}
	v.logger.Info("validate.ok", "numero", f.NumeroFactura)
	return Outcome{Valid: true, Errors: errors}
}

var reFechaNumerica = regexp.MustCompile(`^(\d{1,2})-(\d{1,2})-(\d{4})$`)
var reFechaTextual = regexp.MustCompile(`^(\d{1,2})\s+(?:de\s+)?([a-záéíóúñ]+)\s+(?:del?\s+)?(\d{4})$`)

// ValidateDate accepts DD-MM-YYYY or the Spanish textual form
// "<day> de <month> de <year>", rejecting impossible calendar dates.
func ValidateDate(s string) bool {
	s = strings.TrimSpace(strings.ToLower(s))

	if m := reFechaNumerica.FindStringSubmatch(s); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		return month >= 1 && month <= 12 && realDate(year, time.Month(month), day)
	}

	if m := reFechaTextual.FindStringSubmatch(s); m != nil {
		month, ok := constants.SpanishMonths[m[2]]
		if !ok {
			return false
		}
		day, _ := strconv.Atoi(m[1])
		year, _ := strconv.Atoi(m[3])
		return realDate(year, month, day)
	}
	return false
}

func realDate(year int, month time.Month, day int) bool {
	d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return d.Year() == year && d.Month() == month && d.Day() == day
}
