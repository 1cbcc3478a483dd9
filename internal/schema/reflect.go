package schema

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"
)

// TableNamer is implemented by entity types that declare a table name.
type TableNamer interface {
	TableName() string
}

var tableNamerType = reflect.TypeOf((*TableNamer)(nil)).Elem()

// TypeID returns the identifier of a Go struct type: "<pkgpath>.<TypeName>".
// Pointers are dereferenced.
func TypeID(sample any) string {
	t := reflect.TypeOf(sample)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return ""
	}
	return typeIDOf(t)
}

func typeIDOf(t reflect.Type) string {
	if t.PkgPath() == "" {
		return t.Name()
	}
	return t.PkgPath() + "." + t.Name()
}

// ReflectProvider describes registered Go struct types from their fields
// and struct tags:
//
//	db:"name"                  column name (default: field name), "-" skips
//	constraint:"notnull,unique,size=64"
//	validate:"required"        same as constraint:"notnull"
//
// Thread-safety: safe for concurrent use.
type ReflectProvider struct {
	mu    sync.RWMutex
	types map[string]reflect.Type
}

// NewReflectProvider creates a provider with samples registered.
// It panics if a sample is not a struct, mirroring regexp.MustCompile.
func NewReflectProvider(samples ...any) *ReflectProvider {
	p := &ReflectProvider{types: make(map[string]reflect.Type)}
	for _, s := range samples {
		if _, err := p.Register(s); err != nil {
			panic(err)
		}
	}
	return p
}

// Register adds the struct type of sample and returns its identifier.
func (p *ReflectProvider) Register(sample any) (string, error) {
	t := reflect.TypeOf(sample)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct || t.Name() == "" {
		return "", fmt.Errorf("register %T: not a named struct type", sample)
	}

	id := typeIDOf(t)
	p.mu.Lock()
	defer p.mu.Unlock()
	p.types[id] = t
	return id, nil
}

// Describe implements MetadataProvider.
func (p *ReflectProvider) Describe(typeID string) (Entity, error) {
	p.mu.RLock()
	t, ok := p.types[typeID]
	p.mu.RUnlock()
	if !ok {
		return Entity{}, fmt.Errorf("%w: %s", ErrTypeNotFound, typeID)
	}

	e := Entity{
		TypeID:     typeID,
		SimpleName: t.Name(),
		Table:      declaredTable(t),
	}
	cols, err := structColumns(t, nil)
	if err != nil {
		return Entity{}, fmt.Errorf("%w: %s: %v", ErrInvalidMetadata, typeID, err)
	}
	e.Columns = cols
	if err := validateEntity(e); err != nil {
		return Entity{}, err
	}
	return e, nil
}

// declaredTable calls TableName on a zero value when the type declares one.
func declaredTable(t reflect.Type) string {
	if t.Implements(tableNamerType) {
		return reflect.Zero(t).Interface().(TableNamer).TableName()
	}
	if reflect.PointerTo(t).Implements(tableNamerType) {
		return reflect.New(t).Interface().(TableNamer).TableName()
	}
	return ""
}

// structColumns flattens the fields of t in declaration order. visiting
// guards against embedding cycles through pointers.
func structColumns(t reflect.Type, visiting map[reflect.Type]bool) ([]Column, error) {
	if visiting == nil {
		visiting = make(map[reflect.Type]bool)
	}
	if visiting[t] {
		return nil, fmt.Errorf("embedding cycle through %s", t)
	}
	visiting[t] = true
	defer delete(visiting, t)

	var cols []Column
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		dbTag, hasDB := f.Tag.Lookup("db")
		name, _, _ := strings.Cut(dbTag, ",")
		if name == "-" {
			continue
		}

		if f.Anonymous && !hasDB {
			et := f.Type
			if et.Kind() == reflect.Pointer {
				et = et.Elem()
			}
			if et.Kind() == reflect.Struct {
				embedded, err := structColumns(et, visiting)
				if err != nil {
					return nil, err
				}
				cols = append(cols, embedded...)
				continue
			}
		}
		if !f.IsExported() {
			continue
		}

		col, err := fieldColumn(f, name)
		if err != nil {
			return nil, err
		}
		cols = append(cols, col)
	}
	return cols, nil
}

func fieldColumn(f reflect.StructField, name string) (Column, error) {
	if name == "" {
		name = f.Name
	}
	col := Column{
		Name:        name,
		NonNullType: nonNullKind(f.Type.Kind()),
	}

	for _, opt := range splitTag(f.Tag.Get("constraint")) {
		key, value, _ := strings.Cut(opt, "=")
		switch key {
		case "notnull":
			col.Required = true
		case "unique":
			col.Unique = true
		case "size":
			n, err := strconv.Atoi(value)
			if err != nil || n < 0 {
				return Column{}, fmt.Errorf("field %s: invalid size %q", f.Name, value)
			}
			col.MaxLength = n
		default:
			return Column{}, fmt.Errorf("field %s: unknown constraint %q", f.Name, opt)
		}
	}
	for _, opt := range splitTag(f.Tag.Get("validate")) {
		if opt == "required" {
			col.Required = true
		}
	}
	return col, nil
}

func splitTag(tag string) []string {
	var out []string
	for _, part := range strings.Split(tag, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func nonNullKind(k reflect.Kind) bool {
	switch k {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
