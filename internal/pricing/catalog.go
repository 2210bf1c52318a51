package pricing

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Format identifica un formato de encarte del catálogo
type Format string

const (
	Format6X4         Format = "6X4"
	Format6X8         Format = "6X8"
	Format12X4        Format = "12X4"
	Format12Parutions Format = "12PARUTIONS"
)

// FormatConfig representa la tarifa de un formato
type FormatConfig struct {
	Label       string `yaml:"label"`
	UnitPrice   int64  `yaml:"unit_price"`
	Bundle      bool   `yaml:"bundle"`
	Description string `yaml:"description"`
	Dimensions  string `yaml:"dimensions"`
}

// Catalog asocia cada formato con su tarifa
type Catalog map[Format]FormatConfig

// DefaultCatalog retorna la tarifa del calendario 2026
func DefaultCatalog() Catalog {
	return Catalog{
		Format6X4: {
			Label:       "6X4 (6cm × 4cm)",
			UnitPrice:   350,
			Description: "Format compact standard",
			Dimensions:  "6cm × 4cm",
		},
		Format6X8: {
			Label:       "6X8 (6cm × 8cm)",
			UnitPrice:   500,
			Description: "Format rectangulaire étendu",
			Dimensions:  "6cm × 8cm",
		},
		Format12X4: {
			Label:       "12X4 (12cm × 4cm)",
			UnitPrice:   500,
			Description: "Format bannière large",
			Dimensions:  "12cm × 4cm",
		},
		Format12Parutions: {
			Label:       "12 Parutions annuelles",
			UnitPrice:   1800,
			Bundle:      true,
			Description: "Présence permanente toute l'année",
			Dimensions:  "6cm × 4cm (×12)",
		},
	}
}

type catalogFile struct {
	Formats map[string]FormatConfig `yaml:"formats"`
}

// LoadCatalog lee un catálogo en YAML:
//
//	formats:
//	  6X4: {label: "6X4", unit_price: 350}
//	  12PARUTIONS: {label: "12 parutions", unit_price: 1800, bundle: true}
func LoadCatalog(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading catalog file: %w", err)
	}
	return ParseCatalog(data)
}

// ParseCatalog decodifica y valida un catálogo en YAML
func ParseCatalog(data []byte) (Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("error decoding catalog: %w", err)
	}
	if len(file.Formats) == 0 {
		return nil, fmt.Errorf("catalog has no formats")
	}

	catalog := make(Catalog, len(file.Formats))
	for key, cfg := range file.Formats {
		if key == "" {
			return nil, fmt.Errorf("catalog contains an empty format key")
		}
		if cfg.UnitPrice < 0 {
			return nil, fmt.Errorf("format %s has a negative unit price", key)
		}
		if cfg.Label == "" {
			cfg.Label = key
		}
		catalog[Format(key)] = cfg
	}
	return catalog, nil
}

// Keys retorna los formatos ordenados
func (c Catalog) Keys() []Format {
	keys := make([]Format, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
