package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func outputs() map[string]interface{} {
	return map[string]interface{}{
		"http1": map[string]interface{}{
			"status": 200,
			"body": map[string]interface{}{
				"items": []interface{}{
					map[string]interface{}{"name": "first"},
					map[string]interface{}{"name": "second"},
				},
			},
		},
	}
}

func TestResolve_WholeStringPreservesType(t *testing.T) {
	lookup := NodeOutputLookup(outputs())
	got := Resolve("{{http1.status}}", lookup)
	assert.Equal(t, 200, got)
}

func TestResolve_NestedPathAndIndex(t *testing.T) {
	lookup := NodeOutputLookup(outputs())
	got := Resolve("{{http1.body.items.1.name}}", lookup)
	assert.Equal(t, "second", got)
}

func TestResolve_MixedTextConcatenates(t *testing.T) {
	lookup := NodeOutputLookup(outputs())
	got := Resolve("status is {{http1.status}}!", lookup)
	assert.Equal(t, "status is 200!", got)
}

func TestResolve_UnknownReferenceLeftInPlace(t *testing.T) {
	lookup := NodeOutputLookup(outputs())
	got := Resolve("{{missing.field}}", lookup)
	assert.Equal(t, "{{missing.field}}", got)
}

func TestResolve_RecursesThroughMapsAndSlices(t *testing.T) {
	lookup := NodeOutputLookup(outputs())
	input := map[string]interface{}{
		"to": "{{http1.body.items.0.name}}",
		"tags": []interface{}{
			"{{http1.status}}",
			"static",
		},
	}
	got := Resolve(input, lookup).(map[string]interface{})
	assert.Equal(t, "first", got["to"])
	tags := got["tags"].([]interface{})
	assert.Equal(t, 200, tags[0])
	assert.Equal(t, "static", tags[1])
}

func TestResolve_NonStringLeafUnchanged(t *testing.T) {
	lookup := NodeOutputLookup(outputs())
	got := Resolve(42, lookup)
	assert.Equal(t, 42, got)
}
