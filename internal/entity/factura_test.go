package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewFacturaDefaults(t *testing.T) {
	f := NewFactura()
	assert.Equal(t, 0, f.NumeroFactura)
	assert.Equal(t, DefaultFechaEmision, f.FechaEmision)
	assert.False(t, f.HasFechaEmision())
}

func TestHasFechaEmisionOnlySentinelIsMissing(t *testing.T) {
	f := NewFactura()
	assert.False(t, f.HasFechaEmision())

	f.FechaEmision = time.Time{}
	assert.False(t, f.HasFechaEmision())

	// any other 1900 date is a real (if implausible) extracted value
	f.FechaEmision = time.Date(1900, time.January, 2, 0, 0, 0, 0, time.UTC)
	assert.True(t, f.HasFechaEmision())
}

func TestFacturaString(t *testing.T) {
	f := NewFactura()
	f.NumeroFactura = 338
	f.FechaEmision = time.Date(2023, time.July, 6, 0, 0, 0, 0, time.UTC)
	f.EmpresaEmisora = "DEPROX SPA"
	f.MontoNeto = 100000
	f.IVA = 19000
	f.Total = 119000

	out := f.String()
	assert.Contains(t, out, "N°338")
	assert.Contains(t, out, "6 de julio del 2023")
	assert.Contains(t, out, "DEPROX SPA")
	assert.Contains(t, out, "$100.000")
	assert.Contains(t, out, "$119.000")
	// Recipient was never extracted.
	assert.Contains(t, out, "[No detectado]")
	// Impuesto adicional is omitted when zero.
	assert.NotContains(t, out, "Impuesto Adicional")
}
