package compiler

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/roach88/organizer/internal/item"
)

type yamlDocument struct {
	Items map[string]itemDoc `yaml:"items"`
}

// CompileYAML compiles a YAML document. Unknown fields are errors.
func CompileYAML(src []byte, managerURI string) ([]item.Item, error) {
	dec := yaml.NewDecoder(bytes.NewReader(src))
	dec.KnownFields(true)

	var doc yamlDocument
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	return build(doc.Items, managerURI)
}
