package mcp

import (
	"encoding/json"

	"github.com/anthropics/anthropic-sdk-go"
	mcptypes "github.com/mark3labs/mcp-go/mcp"
	"github.com/ollama/ollama/api"
	"github.com/openai/openai-go/v3"
)

// Tool schemas arrive from MCP servers as JSON Schema and each provider SDK
// wants them in its own container. These converters are lossy only where a
// vendor type cannot represent a schema feature; required, enum, $defs,
// items, and anyOf all survive.

// ToolsForOllama converts MCP tool declarations to the Ollama chat API
// format.
func ToolsForOllama(tools []mcptypes.Tool) []api.Tool {
	out := make([]api.Tool, 0, len(tools))
	for _, t := range tools {
		out = append(out, api.Tool{
			Type: "function",
			Function: api.ToolFunction{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  ollamaParameters(t.InputSchema),
			},
		})
	}
	return out
}

func ollamaParameters(schema mcptypes.ToolInputSchema) api.ToolFunctionParameters {
	params := api.ToolFunctionParameters{
		Type:       schema.Type,
		Required:   schema.Required,
		Defs:       schema.Defs,
		Properties: make(map[string]api.ToolProperty, len(schema.Properties)),
	}
	for name, raw := range schema.Properties {
		params.Properties[name] = ollamaProperty(raw)
	}
	return params
}

// ollamaProperty maps one JSON Schema property onto the typed Ollama
// property struct. Properties that fail to coerce into a map degrade to an
// empty property rather than dropping the whole tool.
func ollamaProperty(raw any) api.ToolProperty {
	prop := api.ToolProperty{}
	m, ok := raw.(map[string]any)
	if !ok {
		if m = remarshalToMap(raw); m == nil {
			return prop
		}
	}

	prop.Type = propertyTypes(m["type"])
	if desc, ok := m["description"].(string); ok {
		prop.Description = desc
	}
	if enum, ok := m["enum"].([]any); ok {
		prop.Enum = enum
	}
	if items, ok := m["items"]; ok {
		prop.Items = items
	}
	if anyOf, ok := m["anyOf"].([]any); ok {
		union := make([]api.ToolProperty, 0, len(anyOf))
		for _, member := range anyOf {
			union = append(union, ollamaProperty(member))
		}
		prop.AnyOf = union
	}
	return prop
}

// propertyTypes normalizes a schema "type" value, which may be a single
// string or a union of strings.
func propertyTypes(v any) api.PropertyType {
	switch t := v.(type) {
	case string:
		return api.PropertyType{t}
	case []string:
		return api.PropertyType(t)
	case []any:
		types := make([]string, 0, len(t))
		for _, entry := range t {
			if s, ok := entry.(string); ok {
				types = append(types, s)
			}
		}
		return api.PropertyType(types)
	}
	return nil
}

func remarshalToMap(v any) map[string]any {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil
	}
	return m
}

// ToolsForOpenAI converts MCP tool declarations to the function-tool format
// shared by OpenAI and OpenRouter. The input schema passes through as a raw
// parameter map since both sides speak JSON Schema.
func ToolsForOpenAI(tools []mcptypes.Tool) []openai.ChatCompletionToolUnionParam {
	if len(tools) == 0 {
		return nil
	}
	out := make([]openai.ChatCompletionToolUnionParam, len(tools))
	for i, t := range tools {
		params := openai.FunctionParameters{
			"type":       t.InputSchema.Type,
			"properties": t.InputSchema.Properties,
		}
		if len(t.InputSchema.Required) > 0 {
			params["required"] = t.InputSchema.Required
		}
		if t.InputSchema.Defs != nil {
			params["$defs"] = t.InputSchema.Defs
		}
		out[i] = openai.ChatCompletionFunctionTool(openai.FunctionDefinitionParam{
			Name:        t.Name,
			Description: openai.String(t.Description),
			Parameters:  params,
		})
	}
	return out
}

// ToolsForAnthropic converts MCP tool declarations to Anthropic's tool-use
// params. The schema type is omitted; Anthropic defaults it to "object".
// $defs has no first-class field and rides along as an extra field.
func ToolsForAnthropic(tools []mcptypes.Tool) []anthropic.ToolUnionParam {
	if len(tools) == 0 {
		return nil
	}
	out := make([]anthropic.ToolUnionParam, len(tools))
	for i, t := range tools {
		schema := anthropic.ToolInputSchemaParam{
			Properties: t.InputSchema.Properties,
		}
		if len(t.InputSchema.Required) > 0 {
			schema.Required = t.InputSchema.Required
		}
		if t.InputSchema.Defs != nil {
			schema.ExtraFields = map[string]any{"$defs": t.InputSchema.Defs}
		}
		out[i] = anthropic.ToolUnionParamOfTool(schema, t.Name)
		if t.Description != "" {
			out[i].OfTool.Description = anthropic.String(t.Description)
		}
	}
	return out
}
