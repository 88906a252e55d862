package dataset

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"sync"

	"emperror.dev/errors"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed dataset.schema.json
var datasetSchema string

const datasetSchemaURL = "https://gosaef.ocfl-archive.org/schema/dataset.schema.json"

var compiledSchema struct {
	once   sync.Once
	schema *jsonschema.Schema
	err    error
}

func schema() (*jsonschema.Schema, error) {
	compiledSchema.once.Do(func() {
		compiledSchema.schema, compiledSchema.err = jsonschema.CompileString(datasetSchemaURL, datasetSchema)
	})
	return compiledSchema.schema, errors.Wrap(compiledSchema.err, "cannot compile dataset schema")
}

// Validate checks a create dataset document against the embedded schema.
func Validate(data []byte) error {
	s, err := schema()
	if err != nil {
		return err
	}
	var doc any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return errors.Wrap(err, "cannot decode dataset")
	}
	if err := s.Validate(doc); err != nil {
		return errors.Wrap(err, "cannot validate dataset")
	}
	return nil
}
