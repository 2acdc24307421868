package methods

import (
	"encoding/json"
	"fmt"
)

// parseParams decodes a JSON-RPC params object into a map.
func parseParams(params json.RawMessage) (map[string]interface{}, error) {
	if len(params) == 0 {
		return map[string]interface{}{}, nil
	}
	var pMap map[string]interface{}
	if err := json.Unmarshal(params, &pMap); err != nil {
		return nil, fmt.Errorf("invalid parameters format")
	}
	return pMap, nil
}

func paramString(pMap map[string]interface{}, key string) string {
	s, _ := pMap[key].(string)
	return s
}

func paramInt(pMap map[string]interface{}, key string) int {
	switch v := pMap[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return 0
}

func paramStrings(pMap map[string]interface{}, key string) []string {
	raw, ok := pMap[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}
