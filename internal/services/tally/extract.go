package tally

import (
	"encoding/json"
	"fmt"

	"nuttally/internal/model"
)

const (
	primaryLabelField  = "class"
	fallbackLabelField = "label"
	predictionsField   = "predictions"
	outputsField       = "outputs"
)

// shapeMatcher returns the prediction list held by one known payload shape.
type shapeMatcher struct {
	name  string
	match func(payload interface{}) ([]interface{}, bool)
}

// shapes are tried in order; the first match wins.
var shapes = []shapeMatcher{
	{name: "top-level predictions", match: matchTopLevel},
	{name: "wrapper array", match: matchWrappers},
	{name: "workflow outputs", match: matchOutputs},
}

// Extract finds the detection list inside a provider payload. It never fails:
// a payload with no recognizable list yields no detections and a diagnostic.
func Extract(raw model.RawResult) ([]model.Detection, []string) {
	var diagnostics []string

	if len(raw) == 0 {
		return []model.Detection{}, []string{"empty inference payload"}
	}

	var payload interface{}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return []model.Detection{}, []string{fmt.Sprintf("undecodable inference payload: %v", err)}
	}

	for _, shape := range shapes {
		items, ok := shape.match(payload)
		if !ok {
			continue
		}
		diagnostics = append(diagnostics, fmt.Sprintf("matched %s shape with %d entries", shape.name, len(items)))

		detections := make([]model.Detection, 0, len(items))
		for i, item := range items {
			record, ok := item.(map[string]interface{})
			if !ok {
				diagnostics = append(diagnostics, fmt.Sprintf("skipped entry %d: not an object", i))
				continue
			}
			detections = append(detections, toDetection(record))
		}
		return detections, diagnostics
	}

	return []model.Detection{}, append(diagnostics, "no prediction list found in inference payload")
}

// matchTopLevel handles {"predictions": [...]}.
func matchTopLevel(payload interface{}) ([]interface{}, bool) {
	obj, ok := payload.(map[string]interface{})
	if !ok {
		return nil, false
	}
	list, ok := obj[predictionsField].([]interface{})
	return list, ok
}

// matchWrappers handles [{"predictions": {"predictions": [...]}}, ...] and
// [{"predictions": [...]}, ...]. Only the first wrapper holding a list is used.
func matchWrappers(payload interface{}) ([]interface{}, bool) {
	wrappers, ok := payload.([]interface{})
	if !ok {
		return nil, false
	}
	return firstWrapperList(wrappers)
}

// matchOutputs handles {"outputs": [wrapper, ...]}.
func matchOutputs(payload interface{}) ([]interface{}, bool) {
	obj, ok := payload.(map[string]interface{})
	if !ok {
		return nil, false
	}
	wrappers, ok := obj[outputsField].([]interface{})
	if !ok {
		return nil, false
	}
	return firstWrapperList(wrappers)
}

func firstWrapperList(wrappers []interface{}) ([]interface{}, bool) {
	for _, w := range wrappers {
		wrapper, ok := w.(map[string]interface{})
		if !ok {
			continue
		}
		switch nested := wrapper[predictionsField].(type) {
		case []interface{}:
			return nested, true
		case map[string]interface{}:
			if list, ok := nested[predictionsField].([]interface{}); ok {
				return list, true
			}
		}
	}
	return nil, false
}

func toDetection(record map[string]interface{}) model.Detection {
	var d model.Detection
	if label, ok := record[primaryLabelField].(string); ok {
		d.Label = label
	} else if label, ok := record[fallbackLabelField].(string); ok {
		d.Label = label
	}
	if conf, ok := record["confidence"].(float64); ok {
		d.Confidence = conf
	}
	return d
}
