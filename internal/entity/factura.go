package entity

import (
	"fmt"
	"strings"
	"time"

	"github.com/facturascl/extractor/constants"
)

// DefaultFechaEmision is the sentinel for an emission date that could not be
// extracted. Chilean invoices never legitimately carry this date.
var DefaultFechaEmision = time.Date(1900, time.January, 1, 0, 0, 0, 0, time.UTC)

// Factura is the structured record extracted from one invoice document.
// Amounts are integers (Chilean pesos carry no cents); absent fields keep
// their zero/sentinel value rather than using pointers.
type Factura struct {
	NumeroFactura         int       `json:"numero_factura"`
	FechaEmision          time.Time `json:"fecha_emision"`
	EmpresaEmisora        string    `json:"empresa_emisora"`
	RutEmisor             string    `json:"rut_emisor"`
	DomicilioEmisor       string    `json:"domicilio_emisor"`
	EmpresaDestinataria   string    `json:"empresa_destinataria"`
	RutDestinatario       string    `json:"rut_destinatario"`
	DomicilioDestinatario string    `json:"domicilio_destinatario"`
	MontoNeto             int       `json:"monto_neto"`
	IVA                   int       `json:"iva"`
	Total                 int       `json:"total"`
	ImpuestoAdicional     int       `json:"impuesto_adicional"`
}

// NewFactura returns a Factura with the documented sentinel defaults.
func NewFactura() Factura {
	return Factura{FechaEmision: DefaultFechaEmision}
}

// HasFechaEmision reports whether the emission date was actually extracted.
// Only the exact sentinel (and the zero value) count as missing.
func (f Factura) HasFechaEmision() bool {
	return !f.FechaEmision.IsZero() && !f.FechaEmision.Equal(DefaultFechaEmision)
}

const noDetectado = "[No detectado]"

// String renders the invoice for console output.
func (f Factura) String() string {
	var b strings.Builder
	rule := strings.Repeat("=", 80)
	sub := strings.Repeat("-", 80)

	b.WriteString(rule + "\n")
	b.WriteString("DATOS EXTRAÍDOS DE LA FACTURA\n")
	b.WriteString(rule + "\n")

	numero := noDetectado
	if f.NumeroFactura > 0 {
		numero = fmt.Sprintf("N°%d", f.NumeroFactura)
	}
	fecha := noDetectado
	if f.HasFechaEmision() {
		fecha = fmt.Sprintf("%d de %s del %d",
			f.FechaEmision.Day(),
			constants.SpanishMonthName(f.FechaEmision.Month()),
			f.FechaEmision.Year())
	}
	fmt.Fprintf(&b, "\nNúmero de Factura: %s\n", numero)
	fmt.Fprintf(&b, "Fecha de Emisión: %s\n", fecha)

	b.WriteString("\n" + sub + "\n")
	b.WriteString("EMPRESA EMISORA\n")
	b.WriteString(sub + "\n")
	fmt.Fprintf(&b, "  Nombre: %s\n", orNoDetectado(f.EmpresaEmisora))
	fmt.Fprintf(&b, "  RUT: %s\n", orNoDetectado(f.RutEmisor))
	fmt.Fprintf(&b, "  Domicilio: %s\n", orNoDetectado(f.DomicilioEmisor))

	b.WriteString("\n" + sub + "\n")
	b.WriteString("EMPRESA DESTINATARIA\n")
	b.WriteString(sub + "\n")
	fmt.Fprintf(&b, "  Nombre: %s\n", orNoDetectado(f.EmpresaDestinataria))
	fmt.Fprintf(&b, "  RUT: %s\n", orNoDetectado(f.RutDestinatario))
	fmt.Fprintf(&b, "  Domicilio: %s\n", orNoDetectado(f.DomicilioDestinatario))

	b.WriteString("\n" + sub + "\n")
	b.WriteString("MONTOS\n")
	b.WriteString(sub + "\n")
	fmt.Fprintf(&b, "  Monto Neto: %s\n", formatMonto(f.MontoNeto))
	fmt.Fprintf(&b, "  IVA (19%%): %s\n", formatMonto(f.IVA))
	if f.ImpuestoAdicional > 0 {
		fmt.Fprintf(&b, "  Impuesto Adicional: %s\n", formatMonto(f.ImpuestoAdicional))
	}
	fmt.Fprintf(&b, "  TOTAL: %s\n", formatMonto(f.Total))

	b.WriteString("\n" + rule)
	return b.String()
}

func orNoDetectado(s string) string {
	if s == "" {
		return noDetectado
	}
	return s
}

// formatMonto renders an amount as $1.234.567 (dot as thousands separator).
func formatMonto(v int) string {
	if v <= 0 {
		return noDetectado
	}
	digits := fmt.Sprintf("%d", v)
	var parts []string
	for len(digits) > 3 {
		parts = append([]string{digits[len(digits)-3:]}, parts...)
		digits = digits[:len(digits)-3]
	}
	parts = append([]string{digits}, parts...)
	return "$" + strings.Join(parts, ".")
}
