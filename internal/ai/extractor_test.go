package ai

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facturascl/extractor/internal/entity"
)

type fakeProvider struct {
	content string
	err     error
	system  string
	user    string
}

func (f *fakeProvider) Complete(_ context.Context, system, user string) (string, error) {
	f.system, f.user = system, user
	return f.content, f.err
}

const fencedResponse = "```json\n" + `{
  "numero_factura": 338,
  "fecha_emision": "2023-07-06",
  "empresa_emisora": "DEPROX SPA",
  "rut_emisor": "76.869.695-0",
  "empresa_destinataria": "COMERCIAL TRAUKO LTDA",
  "monto_neto": 100000,
  "iva": 19000,
  "total": 119000
}` + "\n```"

func TestExtractParsesFencedJSON(t *testing.T) {
	p := &fakeProvider{content: fencedResponse}
	f, err := NewExtractor(p, nil).Extract(context.Background(), "texto de factura")
	require.NoError(t, err)

	assert.Equal(t, 338, f.NumeroFactura)
	assert.Equal(t, time.Date(2023, time.July, 6, 0, 0, 0, 0, time.UTC), f.FechaEmision)
	assert.Equal(t, "DEPROX SPA", f.EmpresaEmisora)
	assert.Equal(t, 119000, f.Total)
	assert.Contains(t, p.user, "texto de factura")
	assert.Contains(t, p.user, "JSON Schema")
}

func TestExtractRejectsSchemaViolations(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing required field", `{"fecha_emision": "2023-07-06", "empresa_emisora": "X SPA", "monto_neto": 1, "total": 1}`},
		{"bad date format", `{"numero_factura": 1, "fecha_emision": "06-07-2023", "empresa_emisora": "X SPA", "monto_neto": 1, "total": 1}`},
		{"bad rut format", `{"numero_factura": 1, "fecha_emision": "2023-07-06", "empresa_emisora": "X SPA", "rut_emisor": "no-rut", "monto_neto": 1, "total": 1}`},
		{"unknown key", `{"numero_factura": 1, "fecha_emision": "2023-07-06", "empresa_emisora": "X SPA", "monto_neto": 1, "total": 1, "sorpresa": true}`},
		{"not json", `lo siento, no puedo`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &fakeProvider{content: tt.content}
			_, err := NewExtractor(p, nil).Extract(context.Background(), "texto")
			assert.Error(t, err)
		})
	}
}

func TestExtractPropagatesProviderError(t *testing.T) {
	p := &fakeProvider{err: fmt.Errorf("rate limited")}
	_, err := NewExtractor(p, nil).Extract(context.Background(), "texto")
	require.Error(t, err)
	assert.ErrorContains(t, err, "rate limited")
}

func TestMergePrefersBaseValues(t *testing.T) {
	base := entity.NewFactura()
	base.NumeroFactura = 338
	base.RutEmisor = "76.869.695-0"

	refined := entity.NewFactura()
	refined.NumeroFactura = 999
	refined.RutEmisor = "11.111.111-1"
	refined.EmpresaEmisora = "DEPROX SPA"
	refined.FechaEmision = time.Date(2023, time.July, 6, 0, 0, 0, 0, time.UTC)
	refined.Total = 119000

	out := Merge(base, refined)
	assert.Equal(t, 338, out.NumeroFactura, "pattern value wins")
	assert.Equal(t, "76.869.695-0", out.RutEmisor)
	assert.Equal(t, "DEPROX SPA", out.EmpresaEmisora, "gap filled from provider")
	assert.Equal(t, refined.FechaEmision, out.FechaEmision)
	assert.Equal(t, 119000, out.Total)
}

func TestStripCodeFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripCodeFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripCodeFences("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripCodeFences(`{"a":1}`))
}
