package domain

// RawDocument is file content read from disk before normalisation.
type RawDocument struct {
	// URI is the file path the content was read from.
	URI string

	// MIMEType selects the normaliser.
	MIMEType string

	// Content is the raw bytes.
	Content []byte
}
