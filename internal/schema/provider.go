package schema

import (
	"errors"
	"fmt"
	"strings"
)

// ErrTypeNotFound marks a type identifier no provider can resolve.
var ErrTypeNotFound = errors.New("type not found")

// ErrInvalidMetadata marks metadata that is present but malformed.
var ErrInvalidMetadata = errors.New("invalid metadata")

// Column is one declared column of an entity.
type Column struct {
	Name        string
	Required    bool // explicitly marked not-null or required
	NonNullType bool // declared type is a non-nullable primitive
	Unique      bool
	MaxLength   int
}

// Entity is the declared shape of one entity type.
type Entity struct {
	TypeID     string
	SimpleName string
	Table      string // declared table name, may be empty
	Columns    []Column
}

// TableName returns the declared table name, or the simple name when none
// is declared.
func (e Entity) TableName() string {
	if e.Table != "" {
		return e.Table
	}
	return e.SimpleName
}

// MetadataProvider resolves a fully-qualified type identifier to its
// declared column metadata.
type MetadataProvider interface {
	Describe(typeID string) (Entity, error)
}

// ChainProvider tries providers in order. The first provider that resolves
// an identifier wins; ErrTypeNotFound from one provider moves on to the next,
// any other error stops the search.
type ChainProvider []MetadataProvider

// Describe implements MetadataProvider.
func (c ChainProvider) Describe(typeID string) (Entity, error) {
	for _, p := range c {
		e, err := p.Describe(typeID)
		if err == nil {
			return e, nil
		}
		if !errors.Is(err, ErrTypeNotFound) {
			return Entity{}, err
		}
	}
	return Entity{}, fmt.Errorf("%w: %s", ErrTypeNotFound, typeID)
}

// SimpleName returns the part of a type identifier after the last '.'.
func SimpleName(typeID string) string {
	if i := strings.LastIndex(typeID, "."); i >= 0 {
		return typeID[i+1:]
	}
	return typeID
}

// primitiveTypes are the declared type names treated as non-nullable.
var primitiveTypes = map[string]bool{
	"bool": true, "byte": true, "rune": true,
	"int": true, "int8": true, "int16": true, "int32": true, "int64": true,
	"uint": true, "uint8": true, "uint16": true, "uint32": true, "uint64": true,
	"float32": true, "float64": true,
}

// IsNonNullType reports whether a declared type name is a non-nullable
// primitive. Pointer types ("*int") are nullable.
func IsNonNullType(typeName string) bool {
	return primitiveTypes[strings.TrimSpace(typeName)]
}

// validateEntity checks that column names are present and unique.
func validateEntity(e Entity) error {
	seen := make(map[string]bool, len(e.Columns))
	for i, c := range e.Columns {
		if strings.TrimSpace(c.Name) == "" {
			return fmt.Errorf("%w: %s: column %d has no name", ErrInvalidMetadata, e.TypeID, i)
		}
		if seen[c.Name] {
			return fmt.Errorf("%w: %s: duplicate column %q", ErrInvalidMetadata, e.TypeID, c.Name)
		}
		if c.MaxLength < 0 {
			return fmt.Errorf("%w: %s: column %q has negative max length", ErrInvalidMetadata, e.TypeID, c.Name)
		}
		seen[c.Name] = true
	}
	return nil
}
