package schema

import (
	"fmt"
	"sort"
)

// document is the file shape shared by the CUE and YAML providers:
//
//	entities:
//	  com.foo.EntityY:
//	    table: BAR
//	    columns:
//	      - {name: x, type: int64}
//	      - {name: foo, type: string, required: true, max_length: 64}
type document struct {
	Entities map[string]entityDoc `json:"entities" yaml:"entities"`
}

type entityDoc struct {
	Table   string      `json:"table,omitempty" yaml:"table,omitempty"`
	Columns []columnDoc `json:"columns" yaml:"columns"`
}

type columnDoc struct {
	Name      string `json:"name" yaml:"name"`
	Type      string `json:"type,omitempty" yaml:"type,omitempty"`
	Required  bool   `json:"required,omitempty" yaml:"required,omitempty"`
	Unique    bool   `json:"unique,omitempty" yaml:"unique,omitempty"`
	MaxLength int    `json:"max_length,omitempty" yaml:"max_length,omitempty"`
}

// documentProvider serves entities decoded from documents.
type documentProvider struct {
	source   string
	entities map[string]Entity
}

func newDocumentProvider(source string, docs ...document) (*documentProvider, error) {
	p := &documentProvider{source: source, entities: make(map[string]Entity)}
	for _, doc := range docs {
		// Sorted so that the first reported error does not depend on map order.
		ids := make([]string, 0, len(doc.Entities))
		for id := range doc.Entities {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		for _, id := range ids {
			if _, dup := p.entities[id]; dup {
				return nil, fmt.Errorf("%s: entity %q declared twice", source, id)
			}
			p.entities[id] = doc.Entities[id].entity(id)
		}
	}
	return p, nil
}

func (d entityDoc) entity(id string) Entity {
	e := Entity{
		TypeID:     id,
		SimpleName: SimpleName(id),
		Table:      d.Table,
		Columns:    make([]Column, 0, len(d.Columns)),
	}
	for _, c := range d.Columns {
		e.Columns = append(e.Columns, Column{
			Name:        c.Name,
			Required:    c.Required,
			NonNullType: IsNonNullType(c.Type),
			Unique:      c.Unique,
			MaxLength:   c.MaxLength,
		})
	}
	return e
}

// Describe implements MetadataProvider.
func (p *documentProvider) Describe(typeID string) (Entity, error) {
	e, ok := p.entities[typeID]
	if !ok {
		return Entity{}, fmt.Errorf("%w: %s", ErrTypeNotFound, typeID)
	}
	if err := validateEntity(e); err != nil {
		return Entity{}, err
	}
	out := e
	out.Columns = append([]Column(nil), e.Columns...)
	return out, nil
}

// TypeIDs returns the declared identifiers in sorted order.
func (p *documentProvider) TypeIDs() []string {
	ids := make([]string, 0, len(p.entities))
	for id := range p.entities {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
