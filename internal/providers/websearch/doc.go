// Package websearch provides legal commentary and agency guidance from a
// Google Programmable Search Engine restricted to legal sites.
package websearch
