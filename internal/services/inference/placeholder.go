package inference

import "nuttally/internal/model"

// placeholderResult stands in for the provider when no API key is configured:
// two walnuts, one almond, one cashew, and one pistachio, which falls outside
// the default vocabulary and therefore only reaches the total.
const placeholderResult = `{"predictions":[` +
	`{"class":"walnut","confidence":0.91},` +
	`{"class":"walnut","confidence":0.87},` +
	`{"class":"almond","confidence":0.82},` +
	`{"class":"cashew","confidence":0.74},` +
	`{"class":"pistachio","confidence":0.66}]}`

// Placeholder returns a fresh copy of the placeholder payload.
func Placeholder() model.RawResult {
	return model.RawResult(placeholderResult)
}
