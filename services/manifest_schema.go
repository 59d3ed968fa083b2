package services

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/paycrest/cardflow/client"
)

//go:embed version_manifest_schema.json
var manifestSchemaJSON []byte

// validateManifest checks the raw manifest payload against the embedded
// schema. A forged or truncated manifest must fail decode-class instead of
// silently gating nothing.
func validateManifest(body []byte) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(manifestSchemaJSON),
		gojsonschema.NewBytesLoader(body),
	)
	if err != nil {
		return client.ErrCannotDecodeRawData{Err: err}
	}
	if !result.Valid() {
		var problems []string
		for _, desc := range result.Errors() {
			problems = append(problems, desc.String())
		}
		return client.ErrCannotDecodeRawData{Err: fmt.Errorf("manifest schema violation: %s", strings.Join(problems, "; "))}
	}
	return nil
}
