package v1

import (
	"fmt"

	"github.com/goccy/go-json"
	"google.golang.org/protobuf/types/known/structpb"
)

// Messages travel as google.protobuf.Struct; these two functions are the
// whole mapping between a typed message and its wire body.

// ToBody renders a message through its json tags.
func ToBody(msg any) (*structpb.Struct, error) {
	raw, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("marshal %T: %w", msg, err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("%T is not a JSON object: %w", msg, err)
	}
	body, err := structpb.NewStruct(m)
	if err != nil {
		return nil, fmt.Errorf("build body for %T: %w", msg, err)
	}
	return body, nil
}

// FromBody fills msg from a wire body. Unknown fields are ignored; a field
// of the wrong type is an error.
func FromBody(body *structpb.Struct, msg any) error {
	raw, err := json.Marshal(body.AsMap())
	if err != nil {
		return fmt.Errorf("marshal body: %w", err)
	}
	if err := json.Unmarshal(raw, msg); err != nil {
		return fmt.Errorf("decode %T: %w", msg, err)
	}
	return nil
}
