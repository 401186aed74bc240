package assets

import (
	"fmt"
	"io"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/pelletier/go-toml/v2"
)

// SerdeImporter returns a deserializer decoding TOML or HCL sources straight
// into T. Struct fields are matched through their `toml` and `hcl` tags, and
// unknown TOML keys are rejected.
func SerdeImporter[T any]() func(src *Source) (T, error) {
	return func(src *Source) (T, error) {
		var out T
		switch src.Format {
		case FormatTOML:
			if err := toml.NewDecoder(src).DisallowUnknownFields().Decode(&out); err != nil {
				return out, err
			}
		case FormatHCL:
			raw, err := io.ReadAll(src)
			if err != nil {
				return out, err
			}
			file, diags := hclparse.NewParser().ParseHCL(raw, src.Key)
			if diags.HasErrors() {
				return out, fmt.Errorf("failed to parse HCL: %w", diags)
			}
			if diags := gohcl.DecodeBody(file.Body, nil, &out); diags.HasErrors() {
				return out, fmt.Errorf("failed to decode HCL: %w", diags)
			}
		default:
			return out, fmt.Errorf("%w '%s' for serde importer", ErrUnsupportedFormat, src.Format)
		}
		return out, nil
	}
}

// Passthrough is the process step of kinds whose imported data already is the asset.
func Passthrough[T any](data T) (T, error) {
	return data, nil
}
