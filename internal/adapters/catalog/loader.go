package catalog

import (
	"fmt"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// LoadFile builds a catalog from a YAML fixture file of the form:
//
//	chapters:
//	  ch-1001:
//	    series_id: one-piece
//	    genres: [action, adventure]
//	    image_count: 18
func LoadFile(path string) (*MemCatalog, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadCatalog, err)
	}

	var chapters map[string]ChapterInfo
	if err := k.UnmarshalWithConf("chapters", &chapters, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadCatalog, err)
	}

	c := NewMemCatalog()
	for id, info := range chapters {
		c.Put(id, info)
	}
	return c, nil
}
