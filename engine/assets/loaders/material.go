package loaders

import (
	"bufio"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spaghettifunk/anima-assets/engine/assets"
	"github.com/spaghettifunk/anima-assets/engine/core"
)

// Colour is a linear RGBA colour with components in [0, 1].
type Colour [4]float32

// MaterialAsset is a material definition read from an .amt file. Texture maps
// are referenced by source key and loaded separately.
type MaterialAsset struct {
	Name            string
	ShaderName      string
	DiffuseColour   Colour
	Shininess       float32
	DiffuseMapName  string
	SpecularMapName string
	NormalMapName   string
	AutoRelease     bool
}

// importMaterial parses the key=value lines of an .amt source. Unknown keys
// are skipped with an error log.
func importMaterial(src *assets.Source) (*MaterialAsset, error) {
	scanner := bufio.NewScanner(src)
	m := &MaterialAsset{DiffuseColour: Colour{1, 1, 1, 1}}

	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(text, "#") || text == "" {
			continue
		}

		key, value, ok := strings.Cut(text, "=")
		if !ok {
			return nil, fmt.Errorf("line %d: expected key=value, got '%s'", line, text)
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch key {
		case "name":
			m.Name = value
		case "shader":
			m.ShaderName = value
		case "diffuse_colour":
			fields := strings.Fields(value)
			if len(fields) != 4 {
				return nil, fmt.Errorf("line %d: diffuse_colour expects 4 values, got %d", line, len(fields))
			}
			for i, v := range fields {
				f, err := strconv.ParseFloat(v, 32)
				if err != nil {
					return nil, fmt.Errorf("line %d: invalid diffuse_colour value '%s'", line, v)
				}
				m.DiffuseColour[i] = float32(f)
			}
		case "shininess":
			f, err := strconv.ParseFloat(value, 32)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid shininess value '%s'", line, value)
			}
			m.Shininess = float32(f)
		case "diffuse_map_name":
			m.DiffuseMapName = value
		case "specular_map_name":
			m.SpecularMapName = value
		case "normal_map_name":
			m.NormalMapName = value
		case "autorelease":
			b, err := strconv.ParseBool(value)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid autorelease value '%s'", line, value)
			}
			m.AutoRelease = b
		default:
			core.LogError("unknown key '%s' in material '%s', skipping", key, src.Key)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return m, nil
}

func processMaterial(m *MaterialAsset) (*MaterialAsset, error) {
	if m.Name == "" {
		return nil, errors.New("material name is required")
	}
	if m.ShaderName == "" {
		return nil, errors.New("shader name is required")
	}
	for _, c := range m.DiffuseColour {
		if c < 0 || c > 1 {
			return nil, fmt.Errorf("diffuse_colour values must be between 0.0 and 1.0, got %v", m.DiffuseColour)
		}
	}
	if m.Shininess < 0 {
		return nil, fmt.Errorf("shininess must be non-negative, got %v", m.Shininess)
	}
	return m, nil
}
