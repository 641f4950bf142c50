package sesskit

import (
	"encoding/json"

	"github.com/minus-twelve/sesskit/types"
)

// Codec maps the attribute mapping to and from the stored blob.
// Decode(Encode(m)) must equal m for any mapping of JSON-representable
// values, and stored keys a codec does not recognize must survive an
// encode/decode cycle untouched.
type Codec interface {
	Encode(attrs types.Attributes) ([]byte, error)
	Decode(data []byte) (types.Attributes, error)
}

// JSONCodec stores the mapping as a JSON object. Numeric values come
// back as float64, the usual encoding/json behavior.
type JSONCodec struct{}

func (JSONCodec) Encode(attrs types.Attributes) ([]byte, error) {
	return json.Marshal(attrs)
}

func (JSONCodec) Decode(data []byte) (types.Attributes, error) {
	var attrs types.Attributes
	if err := json.Unmarshal(data, &attrs); err != nil {
		return nil, err
	}
	if attrs == nil {
		attrs = make(types.Attributes)
	}
	return attrs, nil
}
