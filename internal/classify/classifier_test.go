package classify

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/facturascl/extractor/constants"
)

// buildTextPDF assembles a minimal single-page PDF whose page 1 contains the
// given text in its text layer. The text must not contain parentheses or
// backslashes.
func buildTextPDF(t *testing.T, text string) []byte {
	t.Helper()
	var buf bytes.Buffer
	offsets := make([]int, 6)
	obj := func(n int, body string) {
		offsets[n] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", n, body)
	}

	buf.WriteString("%PDF-1.4\n")
	obj(1, "<< /Type /Catalog /Pages 2 0 R >>")
	obj(2, "<< /Type /Pages /Kids [3 0 R] /Count 1 >>")
	obj(3, "<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 4 0 R >> >> /Contents 5 0 R >>")
	obj(4, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")
	stream := fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", text)
	obj(5, fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream))

	xref := buf.Len()
	buf.WriteString("xref\n0 6\n")
	buf.WriteString("0000000000 65535 f \n")
	for i := 1; i <= 5; i++ {
		fmt.Fprintf(&buf, "%010d 00000 n \n", offsets[i])
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size 6 /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", xref)
	return buf.Bytes()
}

func TestClassifyDigital(t *testing.T) {
	data := buildTextPDF(t, "FACTURA ELECTRONICA N 338 EMPRESA DEMO SPA")
	c := NewClassifier(10, nil)
	assert.Equal(t, constants.DocTypeDigital, c.Classify(data))
}

func TestClassifyShortTextIsScanned(t *testing.T) {
	data := buildTextPDF(t, "N 1")
	c := NewClassifier(10, nil)
	assert.Equal(t, constants.DocTypeScanned, c.Classify(data))
}

func TestClassifyDecodeFailureIsScanned(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty buffer", nil},
		{"not a pdf", []byte("definitely not a pdf")},
		{"truncated pdf", []byte("%PDF-1.4\n1 0 obj\n<<")},
	}
	c := NewClassifier(10, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, constants.DocTypeScanned, c.Classify(tt.data))
		})
	}
}

func TestPageCharsCountsRunesNotBytes(t *testing.T) {
	// five characters, ten bytes: byte counting would clear a threshold of 10
	accented := "áéíóú"
	assert.Equal(t, 10, len(accented))
	assert.Equal(t, 5, pageChars("  "+accented+"  "))
	assert.Less(t, pageChars(accented), NewClassifier(10, nil).minTextChars)
}

func TestClassifyThresholdIsConfigurable(t *testing.T) {
	data := buildTextPDF(t, "CORTA")
	assert.Equal(t, constants.DocTypeDigital, NewClassifier(3, nil).Classify(data))
	assert.Equal(t, constants.DocTypeScanned, NewClassifier(20, nil).Classify(data))
}
