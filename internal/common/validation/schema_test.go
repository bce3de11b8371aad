package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSchema = `{
  "type": "object",
  "required": ["name", "capacity"],
  "properties": {
    "name": {"type": "string", "minLength": 1},
    "capacity": {"type": "integer", "minimum": 1},
    "tags": {"type": "array", "items": {"type": "string"}}
  }
}`

func TestValidateDocument(t *testing.T) {
	tests := []struct {
		name        string
		document    string
		valid       bool
		errorFields []string
	}{
		{
			name:     "valid document",
			document: `{"name": "Chess Club", "capacity": 12}`,
			valid:    true,
		},
		{
			name:        "missing required field",
			document:    `{"name": "Chess Club"}`,
			valid:       false,
			errorFields: []string{"(root)"},
		},
		{
			name:        "capacity below minimum",
			document:    `{"name": "Chess Club", "capacity": 0}`,
			valid:       false,
			errorFields: []string{"capacity"},
		},
		{
			name:        "wrong item type",
			document:    `{"name": "Chess Club", "capacity": 3, "tags": [1]}`,
			valid:       false,
			errorFields: []string{"tags.0"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ValidateDocument(testSchema, []byte(tt.document))
			require.NoError(t, err)

			assert.Equal(t, tt.valid, result.Valid)
			for _, field := range tt.errorFields {
				assert.True(t, result.HasErrors(field), "expected error on %s, got %v", field, result.Errors)
			}
			if tt.valid {
				assert.NoError(t, result.Err())
			} else {
				assert.Error(t, result.Err())
				assert.NotEmpty(t, result.GetErrorMessages())
			}
		})
	}
}

func TestValidateDocument_Malformed(t *testing.T) {
	_, err := ValidateDocument(testSchema, []byte(`{"name":`))
	assert.Error(t, err)
}

func TestValidateValue(t *testing.T) {
	result, err := ValidateValue(testSchema, map[string]interface{}{
		"name":     "",
		"capacity": 5,
	})
	require.NoError(t, err)

	assert.False(t, result.Valid)
	assert.Len(t, result.GetErrorsForField("name"), 1)
}
