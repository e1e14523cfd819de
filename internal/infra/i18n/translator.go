package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"path"

	"whitelist-vpn-miniapp/internal/domain/model"

	"gopkg.in/yaml.v3"
)

//go:embed locales
var LocalesFS embed.FS

// Translator resolves UI strings for the supported languages.
type Translator interface {
	T(lang model.Language, key string, args ...interface{}) string
	Table(lang model.Language) map[string]string
}

// Catalog holds one string table per language. Lookups fall back to English, then to the key.
type Catalog struct {
	tables map[model.Language]map[string]string
}

// NewCatalog loads locales/<lang>.yaml for every supported language from fsys.
func NewCatalog(fsys fs.FS) (*Catalog, error) {
	raw := make(map[model.Language][]byte, len(model.Languages()))
	for _, lang := range model.Languages() {
		filePath := path.Join("locales", fmt.Sprintf("%s.yaml", lang))
		data, err := fs.ReadFile(fsys, filePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read translation file %s: %w", filePath, err)
		}
		raw[lang] = data
	}
	return newCatalogFromBytes(raw)
}

// MustDefault loads the embedded locales and panics if they are broken.
func MustDefault() *Catalog {
	c, err := NewCatalog(LocalesFS)
	if err != nil {
		panic(err)
	}
	return c
}

func newCatalogFromBytes(raw map[model.Language][]byte) (*Catalog, error) {
	c := &Catalog{tables: make(map[model.Language]map[string]string, len(raw))}
	for lang, data := range raw {
		var table map[string]string
		if err := yaml.Unmarshal(data, &table); err != nil {
			return nil, fmt.Errorf("failed to parse translation file for %s: %w", lang, err)
		}
		c.tables[lang] = table
	}
	return c, nil
}

func (c *Catalog) T(lang model.Language, key string, args ...interface{}) string {
	format, ok := c.tables[lang][key]
	if !ok {
		format, ok = c.tables[model.DefaultLanguage][key]
	}
	if !ok {
		return key
	}
	if len(args) > 0 {
		return fmt.Sprintf(format, args...)
	}
	return format
}

// Table returns a copy of the full table for lang, with English filling gaps.
func (c *Catalog) Table(lang model.Language) map[string]string {
	out := make(map[string]string, len(c.tables[model.DefaultLanguage]))
	for k, v := range c.tables[model.DefaultLanguage] {
		out[k] = v
	}
	for k, v := range c.tables[lang] {
		out[k] = v
	}
	return out
}
