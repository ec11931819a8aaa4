package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const personSchema = `{
  "type": "object",
  "required": ["name", "age"],
  "properties": {
    "name": {"type": "string"},
    "age":  {"type": "integer"}
  }
}`

func TestSchema_ValidateBytes(t *testing.T) {
	s := MustCompile(personSchema)

	tests := []struct {
		name      string
		doc       string
		wantValid bool
		wantCode  string
	}{
		{name: "valid", doc: `{"name":"ada","age":36}`, wantValid: true},
		{name: "missing field", doc: `{"name":"ada"}`, wantValid: false, wantCode: "REQUIRED"},
		{name: "wrong type", doc: `{"name":"ada","age":"old"}`, wantValid: false, wantCode: "INVALID_TYPE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := s.ValidateBytes([]byte(tt.doc))
			require.NoError(t, err)
			assert.Equal(t, tt.wantValid, res.Valid)
			if !tt.wantValid {
				require.NotEmpty(t, res.Errors)
				assert.Equal(t, tt.wantCode, res.Errors[0].Code)
				assert.NotEmpty(t, res.Error())
			}
		})
	}
}

func TestSchema_InvalidJSON(t *testing.T) {
	s := MustCompile(personSchema)
	_, err := s.ValidateBytes([]byte(`{not json`))
	assert.Error(t, err)
}

func TestSchema_ValidateValue(t *testing.T) {
	s := MustCompile(personSchema)
	res, err := s.ValidateValue(map[string]interface{}{"name": "ada", "age": 36})
	require.NoError(t, err)
	assert.True(t, res.Valid)
}

func TestCompile_RejectsBadSchema(t *testing.T) {
	_, err := Compile(`{"type": 12}`)
	assert.Error(t, err)
}
