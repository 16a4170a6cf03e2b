package domain

// ExtractedMention is one food or drink reference produced by the extraction
// stage, before catalog resolution. Name is free text; PortionText carries
// whatever quantity/size phrasing the extractor saw (e.g. "2 bowls, large").
type ExtractedMention struct {
	Name        string   `json:"name"`
	PortionText string   `json:"portion,omitempty"`
	Modifiers   []string `json:"modifiers,omitempty"`
}

// CanonicalItem is a mention resolved to a catalog entry with a concrete
// portion. Exactly one of PortionGrams/VolumeMl is normally nonzero. The item
// is built once per request and never mutated after nutrient computation.
type CanonicalItem struct {
	FoodID       string   `json:"food_id"`
	DisplayName  string   `json:"display_name"`
	PortionGrams float64  `json:"portion_grams,omitempty"`
	VolumeMl     float64  `json:"volume_ml,omitempty"`
	Quantity     int      `json:"quantity"`
	Modifiers    []string `json:"modifiers,omitempty"`
	PortionText  string   `json:"portion_text,omitempty"`
}

// ItemNutrients is the per-item breakdown in a meal response.
type ItemNutrients struct {
	ID          string  `json:"id"`
	DisplayName string  `json:"display_name"`
	VolumeMl    float64 `json:"volume_ml,omitempty"`
	Nutrients
}

// AnalyzeRequest is the public analyze payload. At least one of Text,
// ImageBase64, ImageURL or SelectedFoodID must be set.
type AnalyzeRequest struct {
	Text           string `json:"text,omitempty"`
	ImageBase64    string `json:"imageBase64,omitempty"`
	ImageURL       string `json:"imageUrl,omitempty"`
	SelectedFoodID string `json:"selectedFoodId,omitempty"`
	SkipExtraction bool   `json:"skipExtraction,omitempty"`
}

// HasInput reports whether the request carries any usable input field.
func (r *AnalyzeRequest) HasInput() bool {
	return r.Text != "" || r.ImageBase64 != "" || r.ImageURL != "" || r.SelectedFoodID != ""
}

// AnalyzeResponse is the success shape of the analyze endpoint.
type AnalyzeResponse struct {
	Canonical []CanonicalItem `json:"canonical"`
	Nutrients MealNutrients   `json:"nutrients"`
	Tags      []string        `json:"tags,omitempty"`
	Tips      []string        `json:"tips,omitempty"`
}

// MealNutrients groups the per-item breakdowns with the meal total.
type MealNutrients struct {
	PerItem []ItemNutrients `json:"per_item"`
	Total   Nutrients       `json:"total"`
}
