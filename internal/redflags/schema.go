package redflags

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/cosminimum/theregistry/internal/models"
	"github.com/qri-io/jsonschema"
)

//go:embed metadata_schema.json
var metadataSchemaJSON []byte

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func metadataSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		rs := &jsonschema.Schema{}
		if err := json.Unmarshal(metadataSchemaJSON, rs); err != nil {
			schemaErr = fmt.Errorf("compile metadata schema: %w", err)
			return
		}
		schema = rs
	})
	return schema, schemaErr
}

// ValidateMetadata checks a metadata record against the embedded JSON schema
// before it is persisted. Catches writer bugs (positive penalties, missing
// evidence) rather than bad input; a failure here is a programming error.
func ValidateMetadata(ctx context.Context, md models.InterviewMetadata) error {
	s, err := metadataSchema()
	if err != nil {
		return err
	}

	blob, err := json.Marshal(md)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	verrs, err := s.ValidateBytes(ctx, blob)
	if err != nil {
		return fmt.Errorf("schema validate error: %w", err)
	}
	if len(verrs) > 0 {
		var sb strings.Builder
		for _, v := range verrs {
			sb.WriteString(v.Message)
			sb.WriteString("; ")
		}
		return fmt.Errorf("metadata does not match schema: %s", sb.String())
	}
	return nil
}
