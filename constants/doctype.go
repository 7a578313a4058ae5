package constants

// DocType is the classification of an incoming invoice PDF.
type DocType string

// Stable values (these exact strings appear in logs and CLI output).
const (
	DocTypeDigital DocType = "DIGITAL" // embedded text layer present
	DocTypeScanned DocType = "SCANNED" // raster scan, needs OCR
)
