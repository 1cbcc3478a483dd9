package schema_test

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sqlprobe/internal/schema"
)

func TestDocumentProviders_MatchReflect(t *testing.T) {
	reflectProvider := fixtureProvider()

	for _, file := range []string{"entities.cue", "entities.yaml"} {
		t.Run(file, func(t *testing.T) {
			p, err := schema.LoadFile(filepath.Join("testdata", file))
			require.NoError(t, err)

			pairs := map[string]string{
				"com.foo.EntityX": entityXID,
				"com.foo.EntityY": entityYID,
			}
			for docID, goID := range pairs {
				fromDoc, err := p.Describe(docID)
				require.NoError(t, err)
				fromGo, err := reflectProvider.Describe(goID)
				require.NoError(t, err)

				if diff := cmp.Diff(schema.Derive(fromGo), schema.Derive(fromDoc)); diff != "" {
					t.Errorf("%s constraints mismatch (-reflect +%s):\n%s", docID, file, diff)
				}
			}
		})
	}
}

func TestCUEProvider_RejectsUnknownField(t *testing.T) {
	src := `entities: "com.foo.T": columns: [{name: "a", max_len: 3}]`
	_, err := schema.NewCUEProvider("bad.cue", []byte(src))
	require.Error(t, err)

	var se *schema.SchemaError
	assert.True(t, errors.As(err, &se), "got %T", err)
}

func TestCUEProvider_RejectsNegativeLength(t *testing.T) {
	src := `entities: "com.foo.T": columns: [{name: "a", max_length: -1}]`
	_, err := schema.NewCUEProvider("bad.cue", []byte(src))
	assert.Error(t, err)
}

func TestCUEProvider_RejectsEmptyName(t *testing.T) {
	src := `entities: "com.foo.T": columns: [{name: ""}]`
	_, err := schema.NewCUEProvider("bad.cue", []byte(src))
	assert.Error(t, err)
}

func TestCUEProvider_SyntaxError(t *testing.T) {
	_, err := schema.NewCUEProvider("bad.cue", []byte(`entities: {`))
	assert.Error(t, err)
}

func TestYAMLProvider_StrictFields(t *testing.T) {
	src := "entities:\n  com.foo.T:\n    columns:\n      - {name: a, nullable: false}\n"
	_, err := schema.NewYAMLProvider("bad.yaml", []byte(src))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nullable")
}

func TestYAMLProvider_MultiDocument(t *testing.T) {
	p, err := schema.LoadFile(filepath.Join("testdata", "extra.yml"))
	require.NoError(t, err)

	e, err := p.Describe("com.foo.Account")
	require.NoError(t, err)
	assert.Equal(t, "accounts", e.TableName())
	assert.Equal(t, []schema.Column{
		{Name: "email", Unique: true, MaxLength: 255},
		{Name: "nickname"},
	}, e.Columns)

	_, err = p.Describe("com.foo.Broken")
	assert.ErrorIs(t, err, schema.ErrInvalidMetadata, "duplicate column names")
}

func TestYAMLProvider_DuplicateEntityAcrossDocuments(t *testing.T) {
	src := "entities:\n  com.foo.T:\n    columns: []\n---\nentities:\n  com.foo.T:\n    columns: []\n"
	_, err := schema.NewYAMLProvider("dup.yaml", []byte(src))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "declared twice")
}

func TestLoadFile_Errors(t *testing.T) {
	_, err := schema.LoadFile(filepath.Join("testdata", "missing.yaml"))
	assert.Error(t, err)

	_, err = schema.LoadFile(filepath.Join("testdata", "entities.txt"))
	assert.Error(t, err)
}

func TestLoadFiles_Chain(t *testing.T) {
	chain, err := schema.LoadFiles(
		filepath.Join("testdata", "entities.cue"),
		filepath.Join("testdata", "extra.yml"),
	)
	require.NoError(t, err)
	require.Len(t, chain, 2)

	_, err = chain.Describe("com.foo.EntityY")
	assert.NoError(t, err)
	_, err = chain.Describe("com.foo.Account")
	assert.NoError(t, err)
}
