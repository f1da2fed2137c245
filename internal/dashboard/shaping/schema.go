package shaping

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	apperrors "sales-dashboard/internal/common/errors"
)

const definitions = `
	"definitions": {
		"metric": {
			"type": "object",
			"required": ["value"],
			"properties": {"value": {"type": ["number", "null"]}}
		},
		"breakdown": {
			"type": "object",
			"required": ["buckets"],
			"properties": {
				"buckets": {
					"type": "array",
					"items": {
						"type": "object",
						"required": ["key", "total"],
						"properties": {
							"key": {"type": "string"},
							"total": {"$ref": "#/definitions/metric"}
						}
					}
				}
			}
		},
		"record": {
			"type": "object",
			"required": ["product", "region", "sales_amount", "quantity", "timestamp"],
			"properties": {
				"product": {"type": "string"},
				"region": {"type": "string"},
				"sales_amount": {"type": "number", "minimum": 0},
				"quantity": {"type": "integer", "minimum": 0},
				"timestamp": {"type": "string", "minLength": 1}
			}
		},
		"hitList": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["_source"],
				"properties": {"_source": {"$ref": "#/definitions/record"}}
			}
		}
	}`

const summarySchema = `{
	"type": "object",
	"required": ["aggregations"],
	"properties": {
		"aggregations": {
			"type": "object",
			"required": ["total_sales", "total_quantity", "avg_sale", "product_sales", "region_sales"],
			"properties": {
				"total_sales": {"$ref": "#/definitions/metric"},
				"total_quantity": {"$ref": "#/definitions/metric"},
				"avg_sale": {"$ref": "#/definitions/metric"},
				"product_sales": {"$ref": "#/definitions/breakdown"},
				"region_sales": {"$ref": "#/definitions/breakdown"}
			}
		}
	},` + definitions + `
}`

const recordsSchema = `{
	"type": "object",
	"required": ["hits"],
	"properties": {
		"hits": {
			"type": "object",
			"required": ["hits"],
			"properties": {"hits": {"$ref": "#/definitions/hitList"}}
		}
	},` + definitions + `
}`

const searchSchema = `{
	"type": "object",
	"required": ["hits"],
	"properties": {
		"hits": {
			"type": "object",
			"required": ["total", "hits"],
			"properties": {
				"total": {
					"type": "object",
					"required": ["value"],
					"properties": {"value": {"type": "integer", "minimum": 0}}
				},
				"hits": {"$ref": "#/definitions/hitList"}
			}
		}
	},` + definitions + `
}`

var (
	summaryValidator = mustCompile("summary", summarySchema)
	recordsValidator = mustCompile("records", recordsSchema)
	searchValidator  = mustCompile("search", searchSchema)
)

func mustCompile(name, schema string) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schema))
	if err != nil {
		panic(fmt.Sprintf("shaping: invalid %s schema: %v", name, err))
	}
	return s
}

// validate is the single point where engine responses are checked against
// their expected structure.
func validate(shape string, schema *gojsonschema.Schema, raw []byte) error {
	if len(raw) == 0 {
		return apperrors.NewMalformedResponseError(shape, "empty response body")
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return apperrors.NewMalformedResponseError(shape, fmt.Sprintf("unreadable body: %v", err))
	}
	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return apperrors.NewMalformedResponseError(shape, strings.Join(errs, "; "))
	}
	return nil
}
