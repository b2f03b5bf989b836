package core

import "strings"

// Category is the closed set of bill categories.
type Category string

const (
	Moradia     Category = "moradia"
	Transporte  Category = "transporte"
	Alimentacao Category = "alimentacao"
	Saude       Category = "saude"
	Educacao    Category = "educacao"
	Lazer       Category = "lazer"
	Servicos    Category = "servicos"
	Outros      Category = "outros"

	// CategoryAll is the filter sentinel meaning "any category".
	CategoryAll Category = "all"
)

// CategoryInfo carries the presentation attributes of a category.
type CategoryInfo struct {
	Value Category `json:"value"`
	Label string   `json:"label"`
	Icon  string   `json:"icon"`
	Color string   `json:"color"`
}

var categories = []CategoryInfo{
	{Value: Moradia, Label: "Moradia", Icon: "home", Color: "#FF6B6B"},
	{Value: Transporte, Label: "Transporte", Icon: "car", Color: "#4ECDC4"},
	{Value: Alimentacao, Label: "Alimentação", Icon: "food", Color: "#95E1D3"},
	{Value: Saude, Label: "Saúde", Icon: "medical-bag", Color: "#F38181"},
	{Value: Educacao, Label: "Educação", Icon: "school", Color: "#AA96DA"},
	{Value: Lazer, Label: "Lazer", Icon: "gamepad-variant", Color: "#FCBAD3"},
	{Value: Servicos, Label: "Serviços", Icon: "wifi", Color: "#A8D8EA"},
	{Value: Outros, Label: "Outros", Icon: "dots-horizontal", Color: "#B8B8B8"},
}

// Categories returns the catalogue in display order.
func Categories() []CategoryInfo {
	return append([]CategoryInfo(nil), categories...)
}

// ParseCategory returns the category named s or ErrInvalidCategory.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if err := c.Validate(); err != nil {
		return "", err
	}
	return c, nil
}

// Validate rejects anything outside the eight known categories.
func (c Category) Validate() error {
	switch c {
	case Moradia, Transporte, Alimentacao, Saude, Educacao, Lazer, Servicos, Outros:
		return nil
	default:
		return ErrInvalidCategory
	}
}

// Info returns the presentation attributes for c, falling back to Outros.
func (c Category) Info() CategoryInfo {
	for _, info := range categories {
		if info.Value == c {
			return info
		}
	}
	return categories[len(categories)-1]
}

// Label returns the display label.
func (c Category) Label() string { return c.Info().Label }
