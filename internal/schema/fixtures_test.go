package schema_test

import "github.com/roach88/sqlprobe/internal/schema"

// EntityX declares two non-nullable columns: y and k.
type EntityX struct {
	ID   *int64 `db:"id"`
	Name string
	Y    int    `db:"y"`
	K    string `db:"k" validate:"required"`
	note string
}

type base struct {
	X int64 `db:"x"`
}

// EntityY declares four non-nullable columns under table BAR: x, foo, hello, k.
type EntityY struct {
	base
	Foo   string  `db:"foo" constraint:"notnull,size=64"`
	Hello bool    `db:"hello"`
	K     float64 `db:"k"`
	Skip  int     `db:"-"`
	Maybe *bool   `db:"maybe"`
}

func (EntityY) TableName() string { return "BAR" }

type badSize struct {
	Name string `constraint:"size=abc"`
}

type tablePrefix struct {
	Prefix string
}

// prefixed derives its table name from a field that is nil on the zero value.
type prefixed struct {
	cfg *tablePrefix
	ID  int64 `db:"id"`
}

func (p prefixed) TableName() string { return p.cfg.Prefix + "items" }

var (
	entityXID = schema.TypeID(EntityX{})
	entityYID = schema.TypeID(EntityY{})
)

func fixtureProvider() *schema.ReflectProvider {
	return schema.NewReflectProvider(EntityX{}, &EntityY{}, badSize{}, prefixed{})
}
