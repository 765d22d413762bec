package models

// CarTypeInfo is one entry of the car type catalog loaded from
// configs/cartypes.yaml. The catalog is informational; a draft may still
// carry any free-text car type.
type CarTypeInfo struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description,omitempty"`
	SortOrder   int    `yaml:"sort_order" json:"sort_order"`
}
