package chain

import (
	"encoding/json"
	"fmt"
)

func jsonMarshalValues(values map[string]any) (string, error) {
	if values == nil {
		return "{}", nil
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("failed to encode template values: %w", err)
	}
	return string(data), nil
}
