package schemas

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsSchema_IsValidJSON(t *testing.T) {
	var v map[string]any
	require.NoError(t, json.Unmarshal([]byte(SettingsSchema()), &v))
	assert.Equal(t, "array", v["type"])
}

func TestValidateSettings(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr bool
	}{
		{
			name: "valid document",
			doc:  `[{"alias":"runOnSave","label":"Run on save","tab":"General","value":"1"}]`,
		},
		{
			name: "alias may be omitted",
			doc:  `[{"label":"Run on save","tab":"General","value":"1"}]`,
		},
		{
			name: "empty document",
			doc:  `[]`,
		},
		{
			name:    "not an array",
			doc:     `{"alias":"runOnSave"}`,
			wantErr: true,
		},
		{
			name:    "missing tab",
			doc:     `[{"label":"Run on save","value":"1"}]`,
			wantErr: true,
		},
		{
			name:    "value is not a string",
			doc:     `[{"label":"Run on save","tab":"General","value":1}]`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSettings([]byte(tt.doc))
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "error should be ValidationError type")
			assert.NotEmpty(t, verr.Errors)
		})
	}
}

func TestValidateSettings_MalformedJSON(t *testing.T) {
	err := ValidateSettings([]byte(`[{"label":`))
	require.Error(t, err)
	var verr *ValidationError
	assert.False(t, errors.As(err, &verr))
}

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{Errors: []FieldError{
		{Field: "0.tab", Message: "tab is required"},
		{Field: "(root)", Message: "Invalid type"},
	}}
	msg := err.Error()
	assert.True(t, strings.HasPrefix(msg, "validation failed:"))
	assert.Contains(t, msg, "1. 0.tab: tab is required")
	assert.Contains(t, msg, "2. (root): Invalid type")
}
