package constants

// InvoiceKeywords are the domain terms used to estimate how plausible an OCR
// result is. Matching is case-insensitive on the lowercased text.
var InvoiceKeywords = []string{
	"factura",
	"rut",
	"fecha",
	"total",
	"neto",
	"iva",
	"monto",
	"señor",
	"giro",
	"emision",
}
