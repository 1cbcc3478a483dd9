// Package schema derives column constraint facts from entity type metadata.
//
// Metadata comes from a MetadataProvider: Go struct tags (ReflectProvider),
// CUE documents (CUEProvider) or YAML documents (YAMLProvider). Providers
// only describe declared columns; the Analyzer applies the derivation rules
// and pushes the resulting facts into a units sink as one batch.
//
// # Derivation Rules
//
// A column is non-nullable when it is declared required or its type is a
// non-nullable primitive. The table name is the declared table name, or the
// type's simple name when none is declared. Columns are visited in
// declaration order, and only columns that carry at least one constraint
// (non-null, unique or a maximum length) produce a fact.
package schema
