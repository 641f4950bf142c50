package sesskit

import (
	"github.com/mitchellh/mapstructure"

	"github.com/minus-twelve/sesskit/types"
)

// DecodeInto copies session attributes into a caller struct, matching
// fields by `session` tag (falling back to field name). Numeric values
// are converted weakly, so JSON's float64 round-trips into int fields.
func DecodeInto(attrs types.Attributes, dst interface{}) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           dst,
		TagName:          "session",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	return dec.Decode(map[string]interface{}(attrs))
}
