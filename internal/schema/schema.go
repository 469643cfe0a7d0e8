// Package schema provides JSON Schema generation for configuration files.
package schema

import (
	"encoding/json"
	"reflect"
	"strings"
	"time"

	"github.com/invopop/jsonschema"

	"github.com/your-org/integrations-service/internal/config"
)

// SchemaType represents the type of schema to generate.
type SchemaType string

const (
	SchemaTypeConfig SchemaType = "config"
)

// Generator generates JSON schemas for integrations-service configuration files.
type Generator struct {
	reflector *jsonschema.Reflector
}

// NewGenerator creates a new schema generator.
func NewGenerator() *Generator {
	r := &jsonschema.Reflector{
		ExpandedStruct: false,
		// Only mark fields as required if they have explicit jsonschema:"required" tag
		// This makes all fields optional by default (they have defaults in setDefaults)
		RequiredFromJSONSchemaTags: true,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			// Handle time.Duration
			if t == reflect.TypeOf(time.Duration(0)) {
				return &jsonschema.Schema{
					Type:        "string",
					Pattern:     `^([0-9]+(\.[0-9]+)?(ns|us|µs|ms|s|m|h))+$`,
					Description: "Duration string (e.g., '30s', '5m', '1h')",
					Examples:    []interface{}{"10s", "5m", "1h", "30s"},
				}
			}
			return nil
		},
	}

	return &Generator{reflector: r}
}

// Generate generates a JSON schema for the specified type.
func (g *Generator) Generate(schemaType SchemaType) ([]byte, error) {
	schema := g.generateConfigSchema()

	// Marshal with indentation
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, err
	}

	// Post-process to fix naming
	output := g.postProcessJSON(string(data))

	return []byte(output), nil
}

// generateConfigSchema generates schema for config.yaml.
func (g *Generator) generateConfigSchema() *jsonschema.Schema {
	schema := g.reflector.Reflect(&config.Config{})
	g.processSchema(schema)

	schema.Title = "Integrations Service Configuration"
	schema.Description = "Service configuration covering the HTTP server, endpoint paths, " +
		"session store, provider registration, rate limiting, circuit breaking, and logging.\n\n" +
		"Every value can also be supplied via INTEGRATIONS_* environment variables."
	schema.ID = "https://github.com/your-org/integrations-service/schemas/config.schema.json"

	return schema
}

// processSchema recursively processes schema definitions.
func (g *Generator) processSchema(schema *jsonschema.Schema) {
	if schema == nil {
		return
	}

	if schema.Definitions != nil {
		for _, def := range schema.Definitions {
			g.processSchemaProperties(def)
		}
	}

	g.processSchemaProperties(schema)
}

func (g *Generator) processSchemaProperties(schema *jsonschema.Schema) {
	if schema == nil || schema.Properties == nil {
		return
	}

	newProps := jsonschema.NewProperties()
	for pair := schema.Properties.Oldest(); pair != nil; pair = pair.Next() {
		key := pair.Key
		value := pair.Value

		snakeKey := toSnakeCase(key)
		newProps.Set(snakeKey, value)

		if value != nil {
			g.processSchemaProperties(value)
		}
	}
	schema.Properties = newProps

	if len(schema.Required) > 0 {
		newRequired := make([]string, len(schema.Required))
		for i, req := range schema.Required {
			newRequired[i] = toSnakeCase(req)
		}
		schema.Required = newRequired
	}
}

// postProcessJSON fixes PascalCase references in the JSON.
func (g *Generator) postProcessJSON(jsonStr string) string {
	result := jsonStr

	for _, name := range configTypeNames() {
		snake := toSnakeCase(name)
		result = strings.ReplaceAll(result, `"#/$defs/`+name+`"`, `"#/$defs/`+snake+`"`)
		result = strings.ReplaceAll(result, `"`+name+`":`, `"`+snake+`":`)
	}

	// Handle external package types
	result = strings.ReplaceAll(result,
		`"#/$defs/github.com/your-org/integrations-service/pkg/logger.Config"`,
		`"#/$defs/logger_config"`)
	result = strings.ReplaceAll(result,
		`"github.com/your-org/integrations-service/pkg/logger.Config":`,
		`"logger_config":`)

	return result
}

func configTypeNames() []string {
	return []string{
		"Config", "HTTPServerConfig", "EndpointsConfig", "SessionStoreConfig",
		"RedisConfig", "HubSpotConfig", "RateLimitConfig",
		"RateLimitHeadersConfig", "CircuitBreakerConfig",
	}
}

// toSnakeCase converts PascalCase/camelCase to snake_case.
// Handles special cases like IDs, URLs, and brand names correctly.
func toSnakeCase(s string) string {
	// Special cases mapping
	special := map[string]string{
		"HTTPServerConfig": "http_server_config",
		"HubSpotConfig":    "hubspot_config",
		"HubSpot":          "hubspot",
		"OAuthCallback":    "oauth_callback",
		"APIBaseURL":       "api_base_url",
		"AuthorizeURL":     "authorize_url",
		"TokenURL":         "token_url",
		"RedirectURI":      "redirect_uri",
		"UserID":           "user_id",
		"OrgID":            "org_id",
		"ClientID":         "client_id",
		"TTL":              "ttl",
		"URL":              "url",
		"URI":              "uri",
		"ID":               "id",
		"DB":               "db",
	}

	// Check for special cases first
	if val, ok := special[s]; ok {
		return val
	}

	// Standard conversion
	var result strings.Builder
	for i, r := range s {
		if i > 0 && r >= 'A' && r <= 'Z' {
			prev := rune(s[i-1])
			// Add underscore before uppercase if previous was lowercase
			// or if this starts a new word (uppercase followed by lowercase)
			if prev >= 'a' && prev <= 'z' {
				result.WriteByte('_')
			} else if i+1 < len(s) {
				next := rune(s[i+1])
				if next >= 'a' && next <= 'z' && prev >= 'A' && prev <= 'Z' {
					result.WriteByte('_')
				}
			}
		}
		if r >= 'A' && r <= 'Z' {
			result.WriteRune(r + 32) // toLower
		} else {
			result.WriteRune(r)
		}
	}

	return result.String()
}

// GetAvailableSchemas returns list of available schema types.
func GetAvailableSchemas() []SchemaType {
	return []SchemaType{
		SchemaTypeConfig,
	}
}

// ParseSchemaType parses a string to SchemaType.
func ParseSchemaType(s string) (SchemaType, bool) {
	switch strings.ToLower(s) {
	case "config":
		return SchemaTypeConfig, true
	default:
		return "", false
	}
}
