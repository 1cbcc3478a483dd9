package schema

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// YAMLProvider describes entities declared in YAML documents.
// Unknown fields are rejected.
type YAMLProvider struct {
	*documentProvider
}

// NewYAMLProvider parses one or more YAML documents from data.
func NewYAMLProvider(source string, data []byte) (*YAMLProvider, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var docs []document
	for {
		var doc document
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", source, err)
		}
		docs = append(docs, doc)
	}

	dp, err := newDocumentProvider(source, docs...)
	if err != nil {
		return nil, err
	}
	return &YAMLProvider{documentProvider: dp}, nil
}
