package normalize

import (
	"fmt"

	"github.com/policyaudit/policyaudit/pkg/jsonutil"
)

// Item is one loosely typed result object. Values stay undecoded until a
// field is read so each field can apply its own coercion policy.
type Item map[string]jsonutil.Raw

// Payload is an API response reduced to its result objects.
type Payload struct {
	Results []Item
}

// ParseBytes decodes an API response document. A missing or non-list
// "results" member yields an empty payload; non-object list elements are
// skipped. Only a document that is not a JSON object is an error.
func ParseBytes(data []byte) (Payload, error) {
	var doc map[string]jsonutil.Raw
	if err := jsonutil.Unmarshal(data, &doc); err != nil {
		return Payload{}, fmt.Errorf("%w: response is not a JSON object: %v", ErrDataFormat, err)
	}
	raw := doc["results"]
	if jsonutil.KindOf(raw) != jsonutil.KindArray {
		return Payload{}, nil
	}

	var elems []jsonutil.Raw
	if err := jsonutil.Unmarshal(raw, &elems); err != nil {
		return Payload{}, fmt.Errorf("%w: results: %v", ErrDataFormat, err)
	}

	p := Payload{Results: make([]Item, 0, len(elems))}
	for _, e := range elems {
		if jsonutil.KindOf(e) != jsonutil.KindObject {
			continue
		}
		var item Item
		if err := jsonutil.Unmarshal(e, &item); err != nil {
			return Payload{}, fmt.Errorf("%w: result object: %v", ErrDataFormat, err)
		}
		p.Results = append(p.Results, item)
	}
	return p, nil
}
