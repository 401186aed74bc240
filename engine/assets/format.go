package assets

import (
	"io"
	"path/filepath"
	"strings"
)

// Format names the on-disk encoding of a source, inferred from its extension.
type Format string

const (
	FormatUnknown Format = ""
	FormatTOML    Format = "toml"
	FormatHCL     Format = "hcl"
	FormatBinary  Format = "binary"
)

// FormatFromKey infers the format from the extension of a source key.
// Extensions without a structured decoder are reported as FormatBinary.
func FormatFromKey(key string) Format {
	switch strings.ToLower(filepath.Ext(key)) {
	case ".toml":
		return FormatTOML
	case ".hcl":
		return FormatHCL
	case "":
		return FormatUnknown
	default:
		return FormatBinary
	}
}

// Source is the byte stream handed to a deserializer.
type Source struct {
	io.Reader
	// Key is the source key the load was requested with.
	Key string
	// Format is inferred from Key.
	Format Format
	// Path is the filesystem path backing the source, empty for archive
	// and embedded sources.
	Path string
}

// Ext returns the lower-case extension of the source key, including the dot.
func (s *Source) Ext() string {
	return strings.ToLower(filepath.Ext(s.Key))
}
