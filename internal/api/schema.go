package api

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/p-n-ai/tkb/internal/state"
)

var (
	parseSchema = mustSchema(`{
		"type": "object",
		"required": ["text"],
		"properties": {
			"text": {"type": "string"}
		}
	}`)

	gridSchema = mustSchema(`{
		"type": "object",
		"required": ["text"],
		"properties": {
			"text": {"type": "string"},
			"filters": {
				"type": "object",
				"properties": {
					"week_mode": {"type": "boolean"},
					"week": {"type": "integer", "minimum": 1},
					"only_today": {"type": "boolean"},
					"only_occupied": {"type": "boolean"},
					"today": {"type": "integer", "minimum": 2, "maximum": 8}
				},
				"additionalProperties": false
			}
		}
	}`)

	stateSchema = mustSchema(`{
		"type": "object",
		"properties": {
			"data": {"type": "string"},
			"by_week": {"type": "boolean"},
			"week": {"type": "integer", "minimum": 1},
			"show_only_available": {"type": "boolean"},
			"only_today": {"type": "boolean"},
			"auto_fit": {"type": "boolean"},
			"hide_panel": {"type": "boolean"},
			"updated_at": {"type": "string"}
		},
		"additionalProperties": false
	}`)

	// patchSchema is stateSchema without timestamps; absent keys are kept.
	patchSchema = mustSchema(`{
		"type": "object",
		"properties": {
			"data": {"type": "string"},
			"by_week": {"type": "boolean"},
			"week": {"type": "integer", "minimum": 1},
			"show_only_available": {"type": "boolean"},
			"only_today": {"type": "boolean"},
			"auto_fit": {"type": "boolean"},
			"hide_panel": {"type": "boolean"}
		},
		"additionalProperties": false
	}`)

	customLessonSchema = mustSchema(`{
		"type": "object",
		"required": ["name", "day", "start", "end", "week_from", "week_to"],
		"properties": {
			"name": {"type": "string", "minLength": 1},
			"instructor": {"type": "string"},
			"room": {"type": "string"},
			"day": {"type": "integer", "minimum": 2, "maximum": 8},
			"start": {"type": "integer", "minimum": 1, "maximum": 14},
			"end": {"type": "integer", "minimum": 1, "maximum": 14},
			"week_from": {"type": "integer", "minimum": 1},
			"week_to": {"type": "integer", "minimum": 1}
		}
	}`)

	importSchema = mustSchema(`{
		"type": "object",
		"required": ["url"],
		"properties": {
			"url": {"type": "string", "minLength": 1}
		}
	}`)
)

func mustSchema(src string) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(fmt.Sprintf("compiling schema: %v", err))
	}
	return s
}

// validate checks body against schema. Malformed JSON and schema violations
// are both caller errors.
func validate(schema *gojsonschema.Schema, body []byte) error {
	res, err := schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("%w: malformed JSON: %v", state.ErrInvalid, err)
	}
	if res.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("%w: %s", state.ErrInvalid, strings.Join(msgs, "; "))
}
