package validate

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facturascl/extractor/internal/entity"
)

// checkDigit mirrors the modulo-11 rule so tests can build valid fixtures.
func checkDigit(body string) string {
	sum, mul := 0, 2
	for i := len(body) - 1; i >= 0; i-- {
		sum += int(body[i]-'0') * mul
		if mul < 7 {
			mul++
		} else {
			mul = 2
		}
	}
	mod := sum % 11
	switch {
	case mod == 0:
		return "0"
	case 11-mod == 10:
		return "K"
	default:
		return strconv.Itoa(11 - mod)
	}
}

func TestValidateRUTGeneratedCheckDigits(t *testing.T) {
	bodies := []string{"1", "999", "5126663", "12345678", "76869695", "77123456", "9007920"}
	for _, body := range bodies {
		dv := checkDigit(body)
		assert.True(t, ValidateRUT(body+"-"+dv), "body %s dv %s", body, dv)

		wrong := "0"
		if dv == "0" {
			wrong = "1"
		}
		assert.False(t, ValidateRUT(body+"-"+wrong), "body %s wrong dv", body)
	}
}

func TestValidateRUT(t *testing.T) {
	tests := []struct {
		rut  string
		want bool
	}{
		{"12.345.678-5", true},
		{"12345678-5", true},
		{"12.345.678-4", false},
		{"76.869.695-0", true},
		{"76869695-k", false},
		{"", false},
		{"sin-rut", false},
		{"123456789-0", false}, // body too long
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ValidateRUT(tt.rut), tt.rut)
	}
}

func validFactura() entity.Factura {
	f := entity.NewFactura()
	f.NumeroFactura = 338
	f.FechaEmision = time.Date(2023, time.July, 6, 0, 0, 0, 0, time.UTC)
	f.EmpresaEmisora = "DEPROX SPA"
	f.EmpresaDestinataria = "COMERCIAL TRAUKO LTDA"
	f.RutEmisor = "76.869.695-0"
	f.RutDestinatario = "12.345.678-5"
	f.DomicilioEmisor = "AVENIDA EJERCITO 421, SANTIAGO"
	f.DomicilioDestinatario = "GRAN BRETAÑA 1725, TALCAHUANO"
	f.MontoNeto = 100000
	f.IVA = 19000
	f.Total = 119000
	return f
}

func TestValidateCompleteInvoice(t *testing.T) {
	out := NewValidator(nil).Validate(validFactura(), Options{})
	assert.True(t, out.Valid)
	assert.Empty(t, out.Errors)
}

func TestValidateMissingFieldsShortCircuit(t *testing.T) {
	out := NewValidator(nil).Validate(entity.NewFactura(), Options{})
	require.False(t, out.Valid)
	assert.Contains(t, out.Errors, "numero_factura")
	assert.Contains(t, out.Errors, "fecha_emision")
	assert.Contains(t, out.Errors, "rut_emisor")
	assert.Contains(t, out.Errors, "monto_neto")
	// content checks must not run against missing fields
	assert.NotEqual(t, "RUT inválido.", out.Errors["rut_emisor"])
}

func TestValidateCorrelativeNumbering(t *testing.T) {
	prev := 122
	f := validFactura()
	f.NumeroFactura = 124

	out := NewValidator(nil).Validate(f, Options{PreviousInvoiceNum: &prev})
	require.False(t, out.Valid)
	assert.Contains(t, out.Errors["numero_factura"], "123")

	f.NumeroFactura = 123
	out = NewValidator(nil).Validate(f, Options{PreviousInvoiceNum: &prev})
	assert.True(t, out.Valid)
}

func TestValidateInvalidRUT(t *testing.T) {
	f := validFactura()
	f.RutEmisor = "76.869.695-1"
	out := NewValidator(nil).Validate(f, Options{})
	require.False(t, out.Valid)
	assert.Equal(t, "RUT inválido.", out.Errors["rut_emisor"])
}

func TestValidateTotalReconciliation(t *testing.T) {
	f := validFactura()
	f.Total = 120000
	out := NewValidator(nil).Validate(f, Options{})
	require.False(t, out.Valid)
	assert.Contains(t, out.Errors["total"], "119000.00")
}

func TestValidateNonStandardRateIsAllowed(t *testing.T) {
	// exempt operation: zero IVA still reconciles
	f := validFactura()
	f.IVA = 0
	f.Total = 100000
	out := NewValidator(nil).Validate(f, Options{})
	assert.True(t, out.Valid, "zero-rate invoices are legal, not errors: %v", out.Errors)
}

func TestValidateShortStrings(t *testing.T) {
	f := validFactura()
	f.EmpresaEmisora = "AB"
	out := NewValidator(nil).Validate(f, Options{})
	require.False(t, out.Valid)
	assert.Equal(t, "Debe ser un string válido con al menos 3 caracteres.", out.Errors["empresa_emisora"])
}

func TestValidateDate(t *testing.T) {
	tests := []struct {
		date string
		want bool
	}{
		{"06-07-2023", true},
		{"6-7-2023", true},
		{"26 de julio de 2020", true},
		{"06 de Julio del 2023", true},
		{"6 julio 2023", true},
		{"32-01-2023", false},
		{"30-02-2024", false},
		{"06 de brumario de 2023", false},
		{"2023-07-06", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ValidateDate(tt.date), tt.date)
	}
}
