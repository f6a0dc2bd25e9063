// Package normalisers turns files of the supported formats into plain-text
// documents ready for chunking. Each format lives in its own subpackage;
// Registry dispatches by MIME type and priority.
package normalisers
