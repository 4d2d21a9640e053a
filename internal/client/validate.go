package client

import (
	_ "embed"
	"fmt"
	"slices"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/sngm3741/warranty-services/api/internal/warranty/domain"
)

//go:embed submission.schema.json
var submissionSchemaJSON []byte

var submissionSchema = mustCompileSchema(submissionSchemaJSON)

// rootContext is how gojsonschema names the document root in error fields.
const rootContext = "(root)"

func mustCompileSchema(raw []byte) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		panic(fmt.Sprintf("client: invalid submission schema: %v", err))
	}
	return schema
}

// Validate checks a submission before it may leave the client.
// Terms are checked first, then required fields.
func Validate(sub domain.Submission) error {
	if !sub.AgreeToTerms {
		return ErrTermsNotAccepted
	}

	result, err := submissionSchema.Validate(gojsonschema.NewGoLoader(sub))
	if err != nil {
		return fmt.Errorf("validate submission: %w", err)
	}
	if result.Valid() {
		return nil
	}

	return &ValidationError{Fields: invalidFields(result.Errors())}
}

// invalidFields reduces schema errors to top-level field names, ordered as
// domain.RequiredFields lists them.
func invalidFields(errs []gojsonschema.ResultError) []string {
	seen := make(map[string]bool, len(errs))
	for _, e := range errs {
		field := e.Field()
		if e.Type() == "required" {
			if prop, ok := e.Details()["property"].(string); ok {
				if field == rootContext {
					field = prop
				} else {
					field = field + "." + prop
				}
			}
		}
		if head, _, found := strings.Cut(field, "."); found {
			field = head
		}
		seen[field] = true
	}

	fields := make([]string, 0, len(seen))
	for _, name := range domain.RequiredFields {
		if seen[name] {
			fields = append(fields, name)
			delete(seen, name)
		}
	}
	rest := make([]string, 0, len(seen))
	for name := range seen {
		rest = append(rest, name)
	}
	slices.Sort(rest)
	return append(fields, rest...)
}
