package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGenerator(t *testing.T) {
	gen := NewGenerator()

	require.NotNil(t, gen)
	require.NotNil(t, gen.reflector)
}

func TestGenerator_Generate_ConfigSchema(t *testing.T) {
	gen := NewGenerator()

	data, err := gen.Generate(SchemaTypeConfig)

	require.NoError(t, err)
	require.NotEmpty(t, data)

	// Verify it's valid JSON
	var schema map[string]interface{}
	err = json.Unmarshal(data, &schema)
	require.NoError(t, err)

	// Check required schema fields
	assert.Contains(t, schema, "$schema")
	assert.Contains(t, schema, "title")
	assert.Equal(t, "Integrations Service Configuration", schema["title"])

	// Check description contains env var info
	desc, ok := schema["description"].(string)
	require.True(t, ok)
	assert.Contains(t, desc, "INTEGRATIONS_")
}

func TestGenerator_Generate_SnakeCaseDefs(t *testing.T) {
	gen := NewGenerator()

	data, err := gen.Generate(SchemaTypeConfig)
	require.NoError(t, err)

	// No PascalCase definition names may survive post-processing.
	assert.NotContains(t, string(data), `"HubSpotConfig"`)
	assert.NotContains(t, string(data), `"HTTPServerConfig"`)
	assert.Contains(t, string(data), "hubspot_config")
}

func TestToSnakeCase(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Config", "config"},
		{"EndpointsConfig", "endpoints_config"},
		{"HTTPServerConfig", "http_server_config"},
		{"HubSpotConfig", "hubspot_config"},
		{"OAuthCallback", "oauth_callback"},
		{"APIBaseURL", "api_base_url"},
		{"RedirectURI", "redirect_uri"},
		{"UserID", "user_id"},
		{"OrgID", "org_id"},
		{"TTL", "ttl"},
		{"URL", "url"},
		{"ID", "id"},
		{"DB", "db"},
		{"CamelCase", "camel_case"},
		{"simpleword", "simpleword"},
		{"myVar", "my_var"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := toSnakeCase(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestParseSchemaType(t *testing.T) {
	tests := []struct {
		input string
		want  SchemaType
		ok    bool
	}{
		{"config", SchemaTypeConfig, true},
		{"CONFIG", SchemaTypeConfig, true},
		{"rules", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseSchemaType(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetAvailableSchemas(t *testing.T) {
	assert.Equal(t, []SchemaType{SchemaTypeConfig}, GetAvailableSchemas())
}
