package stdlib

import (
	"encoding/json"

	"github.com/c360/fbpcore/component"
)

// Register adds every stdlib widget component to reg under its Descriptor's
// Name (e.g. "Source", "LineToWords"), one RegisterFactory call per type.
func Register(reg *component.Registry) error {
	kinds := []component.Component{
		Source{},
		LineToWords{},
		StartsWith{},
		WordsToLine{},
		Output{},
	}
	for _, kind := range kinds {
		desc := kind.Descriptor()
		kind := kind
		err := reg.RegisterFactory(desc.Name, &component.Registration{
			Name:        desc.Name,
			Description: desc.Doc,
			Descriptor:  desc,
			Factory: func(_ json.RawMessage, _ component.Dependencies) (component.Component, error) {
				return kind, nil
			},
		})
		if err != nil {
			return err
		}
	}
	return nil
}
