package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/facturascl/extractor/internal/entity"
)

const systemPrompt = `Eres un analista de facturas chilenas. Recibes el texto crudo de una factura ` +
	`(posiblemente con errores de OCR) y devuelves SOLO un objeto JSON que cumpla el JSON Schema entregado. ` +
	`Los montos son pesos chilenos enteros sin separadores. Las fechas usan formato YYYY-MM-DD. ` +
	`Los RUT conservan puntos y guión (ej. 76.869.695-0). Si un campo no aparece en el texto, omítelo. Nunca devuelvas null.`

// Extractor asks the provider to re-read the invoice text and returns the
// structured record it produces, schema-validated.
type Extractor struct {
	provider Provider
	logger   *slog.Logger
}

func NewExtractor(provider Provider, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{provider: provider, logger: logger}
}

// facturaPayload is the wire shape the provider must return. Amounts are
// integers; the date is ISO so the schema can pin its format.
type facturaPayload struct {
	NumeroFactura         int    `json:"numero_factura"`
	FechaEmision          string `json:"fecha_emision"`
	EmpresaEmisora        string `json:"empresa_emisora"`
	RutEmisor             string `json:"rut_emisor"`
	DomicilioEmisor       string `json:"domicilio_emisor"`
	EmpresaDestinataria   string `json:"empresa_destinataria"`
	RutDestinatario       string `json:"rut_destinatario"`
	DomicilioDestinatario string `json:"domicilio_destinatario"`
	MontoNeto             int    `json:"monto_neto"`
	IVA                   int    `json:"iva"`
	Total                 int    `json:"total"`
	ImpuestoAdicional     int    `json:"impuesto_adicional"`
}

func (e *Extractor) Extract(ctx context.Context, text string) (entity.Factura, error) {
	schema := BuildFacturaJSONSchema()
	user := buildUserPrompt(text, schema)

	content, err := e.provider.Complete(ctx, systemPrompt, user)
	if err != nil {
		return entity.Factura{}, fmt.Errorf("completion: %w", err)
	}

	raw := []byte(stripCodeFences(content))
	if err := ValidateJSONAgainstSchema(schema, raw); err != nil {
		e.logger.Error("ai.extract.schema_validation_failed", "error", err, "content", string(raw))
		return entity.Factura{}, fmt.Errorf("schema validation failed: %w", err)
	}

	var p facturaPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return entity.Factura{}, fmt.Errorf("unmarshal fields: %w", err)
	}

	f := payloadToFactura(p)
	e.logger.Info("ai.extract.ok", "numero", f.NumeroFactura, "total", f.Total)
	return f, nil
}

func buildUserPrompt(text string, schema map[string]any) string {
	var b strings.Builder
	b.WriteString("Texto de la factura:\n")
	if len(text) > 6000 {
		b.WriteString(text[:6000])
	} else {
		b.WriteString(text)
	}
	b.WriteString("\n\nJSON Schema:\n")
	b.WriteString(mustJSON(schema))
	b.WriteString("\n\nDevuelve SOLO el JSON.")
	return b.String()
}

func payloadToFactura(p facturaPayload) entity.Factura {
	f := entity.NewFactura()
	f.NumeroFactura = p.NumeroFactura
	if d, err := time.Parse("2006-01-02", p.FechaEmision); err == nil {
		f.FechaEmision = d
	}
	f.EmpresaEmisora = p.EmpresaEmisora
	f.RutEmisor = p.RutEmisor
	f.DomicilioEmisor = p.DomicilioEmisor
	f.EmpresaDestinataria = p.EmpresaDestinataria
	f.RutDestinatario = p.RutDestinatario
	f.DomicilioDestinatario = p.DomicilioDestinatario
	f.MontoNeto = p.MontoNeto
	f.IVA = p.IVA
	f.Total = p.Total
	f.ImpuestoAdicional = p.ImpuestoAdicional
	return f
}

// Merge fills the sentinel fields of base with values the provider found.
// Deterministic pattern extraction wins wherever it produced a value.
func Merge(base, refined entity.Factura) entity.Factura {
	out := base
	if out.NumeroFactura == 0 {
		out.NumeroFactura = refined.NumeroFactura
	}
	if !out.HasFechaEmision() && refined.HasFechaEmision() {
		out.FechaEmision = refined.FechaEmision
	}
	if out.EmpresaEmisora == "" {
		out.EmpresaEmisora = refined.EmpresaEmisora
	}
	if out.RutEmisor == "" {
		out.RutEmisor = refined.RutEmisor
	}
	if out.DomicilioEmisor == "" {
		out.DomicilioEmisor = refined.DomicilioEmisor
	}
	if out.EmpresaDestinataria == "" {
		out.EmpresaDestinataria = refined.EmpresaDestinataria
	}
	if out.RutDestinatario == "" {
		out.RutDestinatario = refined.RutDestinatario
	}
	if out.DomicilioDestinatario == "" {
		out.DomicilioDestinatario = refined.DomicilioDestinatario
	}
	if out.MontoNeto == 0 {
		out.MontoNeto = refined.MontoNeto
	}
	if out.IVA == 0 {
		out.IVA = refined.IVA
	}
	if out.Total == 0 {
		out.Total = refined.Total
	}
	if out.ImpuestoAdicional == 0 {
		out.ImpuestoAdicional = refined.ImpuestoAdicional
	}
	return out
}

// stripCodeFences removes a leading ```json / trailing ``` wrapper some
// providers add despite json_object response format.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}

func mustJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}
