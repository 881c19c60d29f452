package content

import (
	"context"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/jonathan/preflight/internal/types"
)

// documentDef is the YAML shape of a document. Property names and editors
// are resolved from the content type when the site is loaded.
type documentDef struct {
	ID          int    `yaml:"id"`
	Name        string `yaml:"name"`
	ContentType string `yaml:"contentType"`
	Properties  []struct {
		Alias  string          `yaml:"alias"`
		Values []PropertyValue `yaml:"values"`
	} `yaml:"properties"`
}

// siteFile is the YAML root of a site definition.
type siteFile struct {
	Languages    []Language        `yaml:"languages"`
	UserGroups   []types.UserGroup `yaml:"userGroups"`
	ContentTypes []ContentType     `yaml:"contentTypes"`
	GridEditors  []GridEditor      `yaml:"gridEditors"`
	Documents    []documentDef     `yaml:"documents"`
}

// Site is an in-memory CMS definition: languages, user groups, content
// types, grid editors and documents. It is read-only after loading and
// safe for concurrent use.
type Site struct {
	languages    []Language
	userGroups   []types.UserGroup
	contentTypes map[string]*ContentType
	gridEditors  map[string]GridEditor
	documents    map[int]*Document
}

// LoadSite reads a YAML site definition from path.
func LoadSite(path string) (*Site, error) {
	if path == "" {
		return nil, fmt.Errorf("site path is empty")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read site file %s: %w", path, err)
	}
	return ParseSite(data)
}

// ParseSite parses a YAML site definition.
func ParseSite(data []byte) (*Site, error) {
	var file siteFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse site YAML: %w", err)
	}

	site := &Site{
		languages:    file.Languages,
		userGroups:   file.UserGroups,
		contentTypes: make(map[string]*ContentType, len(file.ContentTypes)),
		gridEditors:  make(map[string]GridEditor, len(file.GridEditors)),
		documents:    make(map[int]*Document, len(file.Documents)),
	}

	defaults := 0
	for _, lang := range file.Languages {
		if lang.Culture == "" {
			return nil, fmt.Errorf("site error: language without culture")
		}
		if lang.Default {
			defaults++
		}
	}
	if len(file.Languages) > 0 && defaults != 1 {
		return nil, fmt.Errorf("site error: exactly one default language required, got %d", defaults)
	}

	for i := range file.ContentTypes {
		ct := file.ContentTypes[i]
		if ct.Alias == "" {
			return nil, fmt.Errorf("site error: content type without alias")
		}
		site.contentTypes[ct.Alias] = &ct
	}
	for _, ge := range file.GridEditors {
		site.gridEditors[ge.Alias] = ge
	}

	for _, def := range file.Documents {
		doc, err := site.resolveDocument(def)
		if err != nil {
			return nil, err
		}
		site.documents[doc.ID] = doc
	}

	return site, nil
}

func (s *Site) resolveDocument(def documentDef) (*Document, error) {
	ct, ok := s.contentTypes[def.ContentType]
	if !ok {
		return nil, fmt.Errorf("site error: document %d uses unknown content type %q", def.ID, def.ContentType)
	}

	doc := &Document{ID: def.ID, Name: def.Name, ContentType: def.ContentType}
	// properties follow the content type's declared order
	for _, pt := range ct.Properties {
		prop := Property{Alias: pt.Alias, Name: pt.Name, Editor: pt.Editor}
		for _, p := range def.Properties {
			if p.Alias == pt.Alias {
				prop.Values = p.Values
				break
			}
		}
		doc.Properties = append(doc.Properties, prop)
	}
	for _, p := range def.Properties {
		if _, ok := ct.Property(p.Alias); !ok {
			return nil, fmt.Errorf("site error: document %d sets unknown property %q", def.ID, p.Alias)
		}
	}
	return doc, nil
}

// Document returns the document with id.
func (s *Site) Document(_ context.Context, id int) (*Document, error) {
	doc, ok := s.documents[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrDocumentNotFound, id)
	}
	return doc, nil
}

// Documents returns every document ordered by id.
func (s *Site) Documents() []*Document {
	docs := make([]*Document, 0, len(s.documents))
	for _, doc := range s.documents {
		docs = append(docs, doc)
	}
	slices.SortFunc(docs, func(a, b *Document) int { return a.ID - b.ID })
	return docs
}

// ContentType returns the content type with alias.
func (s *Site) ContentType(_ context.Context, alias string) (*ContentType, error) {
	ct, ok := s.contentTypes[alias]
	if !ok {
		return nil, fmt.Errorf("content type not found: %s", alias)
	}
	return ct, nil
}

// GridEditor looks up a grid editor configuration by alias.
func (s *Site) GridEditor(alias string) (GridEditor, bool) {
	ge, ok := s.gridEditors[alias]
	return ge, ok
}

// UserGroups returns every configured user group.
func (s *Site) UserGroups(_ context.Context) ([]types.UserGroup, error) {
	return s.userGroups, nil
}

// Languages returns the configured languages in definition order.
func (s *Site) Languages() []Language {
	return slices.Clone(s.languages)
}

// DefaultCulture returns the default language's culture, or "" when no
// languages are configured.
func (s *Site) DefaultCulture() string {
	for _, lang := range s.languages {
		if lang.Default {
			return lang.Culture
		}
	}
	return ""
}

// Fallback returns the configured fallback culture for culture.
func (s *Site) Fallback(culture string) (string, bool) {
	for _, lang := range s.languages {
		if lang.Culture == culture && lang.Fallback != "" {
			return lang.Fallback, true
		}
	}
	return "", false
}

// CultureName returns the display name of culture, or the culture itself.
func (s *Site) CultureName(culture string) string {
	for _, lang := range s.languages {
		if lang.Culture == culture && lang.Name != "" {
			return lang.Name
		}
	}
	return culture
}
