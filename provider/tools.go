package provider

import (
	"encoding/json"

	"github.com/anthropics/anthropic-sdk-go"
	mcptypes "github.com/mark3labs/mcp-go/mcp"
	"github.com/ollama/ollama/api"
	"github.com/openai/openai-go/v3"
)

// ToOpenAITools converts tool descriptors to OpenAI function tools. The MCP
// input schema is already JSON Schema, so it passes through as a map.
func ToOpenAITools(tools []mcptypes.Tool) []openai.ChatCompletionToolUnionParam {
	if len(tools) == 0 {
		return nil
	}

	result := make([]openai.ChatCompletionToolUnionParam, len(tools))
	for i, tool := range tools {
		def := openai.FunctionDefinitionParam{
			Name:       tool.Name,
			Parameters: openai.FunctionParameters(schemaMap(tool.InputSchema)),
		}
		if tool.Description != "" {
			def.Description = openai.String(tool.Description)
		}
		result[i] = openai.ChatCompletionFunctionTool(def)
	}
	return result
}

// ToAnthropicTools converts tool descriptors to Anthropic tool params.
func ToAnthropicTools(tools []mcptypes.Tool) []anthropic.ToolUnionParam {
	if len(tools) == 0 {
		return nil
	}

	result := make([]anthropic.ToolUnionParam, len(tools))
	for i, tool := range tools {
		schema := anthropic.ToolInputSchemaParam{
			Properties: tool.InputSchema.Properties,
		}
		if len(tool.InputSchema.Required) > 0 {
			schema.Required = tool.InputSchema.Required
		}
		if tool.InputSchema.Defs != nil {
			schema.ExtraFields = map[string]any{"$defs": tool.InputSchema.Defs}
		}

		result[i] = anthropic.ToolUnionParamOfTool(schema, tool.Name)
		if tool.Description != "" {
			result[i].OfTool.Description = anthropic.String(tool.Description)
		}
	}
	return result
}

// ToOllamaTools converts tool descriptors to Ollama api tools.
func ToOllamaTools(tools []mcptypes.Tool) []api.Tool {
	if len(tools) == 0 {
		return nil
	}

	result := make([]api.Tool, 0, len(tools))
	for _, tool := range tools {
		params := api.ToolFunctionParameters{
			Type:       schemaType(tool.InputSchema),
			Required:   tool.InputSchema.Required,
			Properties: make(map[string]api.ToolProperty, len(tool.InputSchema.Properties)),
		}
		if tool.InputSchema.Defs != nil {
			params.Defs = tool.InputSchema.Defs
		}
		for name, prop := range tool.InputSchema.Properties {
			params.Properties[name] = convertPropertyValue(prop)
		}

		result = append(result, api.Tool{
			Type: "function",
			Function: api.ToolFunction{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  params,
			},
		})
	}
	return result
}

func schemaType(schema mcptypes.ToolInputSchema) string {
	if schema.Type == "" {
		return "object"
	}
	return schema.Type
}

func schemaMap(schema mcptypes.ToolInputSchema) map[string]any {
	properties := schema.Properties
	if properties == nil {
		properties = map[string]any{}
	}
	m := map[string]any{
		"type":       schemaType(schema),
		"properties": properties,
	}
	if len(schema.Required) > 0 {
		m["required"] = schema.Required
	}
	if schema.Defs != nil {
		m["$defs"] = schema.Defs
	}
	return m
}

// convertPropertyValue converts one JSON Schema property to an Ollama
// ToolProperty. Values that are not plain maps are normalized through JSON.
func convertPropertyValue(value any) api.ToolProperty {
	var prop api.ToolProperty

	m, ok := value.(map[string]any)
	if !ok {
		raw, err := json.Marshal(value)
		if err != nil || json.Unmarshal(raw, &m) != nil {
			return prop
		}
	}

	switch t := m["type"].(type) {
	case string:
		prop.Type = api.PropertyType{t}
	case []string:
		prop.Type = api.PropertyType(t)
	case []any:
		types := make([]string, 0, len(t))
		for _, v := range t {
			if s, ok := v.(string); ok {
				types = append(types, s)
			}
		}
		prop.Type = api.PropertyType(types)
	}

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
		prop.AnyOf = make([]api.ToolProperty, 0, len(anyOf))
		for _, item := range anyOf {
			prop.AnyOf = append(prop.AnyOf, convertPropertyValue(item))
		}
	}

	return prop
}
