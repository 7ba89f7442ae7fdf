package response

import (
	"encoding/json"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

const answerSchema = `{
	"type": "object",
	"required": ["info", "is_info"],
	"properties": {
		"info": {"type": "string"},
		"is_info": {
			"oneOf": [
				{"type": "boolean"},
				{"type": "string", "enum": ["true", "false", "True", "False", "TRUE", "FALSE"]}
			]
		}
	}
}`

var answerSchemaLoader = gojsonschema.NewStringLoader(answerSchema)

// ParseModelOutput never fails: anything that is not a valid answer object is Degraded.
func ParseModelOutput(raw string) (ModelOutput, []string) {
	text := stripCodeFence(strings.TrimSpace(raw))
	jsonContent := extractJSON(text)
	if jsonContent == "" {
		return Degraded{Raw: strings.TrimSpace(raw)}, []string{"no JSON object found"}
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal([]byte(jsonContent), &decoded); err != nil {
		return Degraded{Raw: strings.TrimSpace(raw)}, []string{err.Error()}
	}

	result, err := gojsonschema.Validate(answerSchemaLoader, gojsonschema.NewGoLoader(decoded))
	if err != nil {
		return Degraded{Raw: strings.TrimSpace(raw)}, []string{err.Error()}
	}
	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return Degraded{Raw: strings.TrimSpace(raw)}, errs
	}

	info, _ := decoded["info"].(string)
	return Structured{Info: info, IsInfo: coerceBool(decoded["is_info"])}, nil
}

func coerceBool(v interface{}) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return strings.EqualFold(t, "true")
	}
	return true
}

func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.Index(s, "\n"); nl >= 0 {
		// drop the language tag line
		s = s[nl+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}

func extractJSON(response string) string {
	startIdx := strings.Index(response, "{")
	endIdx := strings.LastIndex(response, "}")

	if startIdx == -1 || endIdx == -1 || endIdx <= startIdx {
		return ""
	}

	return response[startIdx : endIdx+1]
}
