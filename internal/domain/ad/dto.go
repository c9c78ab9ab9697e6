package ad

import "encoding/json"

// CreateAdRequest is the submission payload for a new listing. Keys in
// Fields are canonical field keys for the category; unknown keys are
// ignored, not rejected.
type CreateAdRequest struct {
	CategoryID  int64                  `json:"category_id"`
	Title       string                 `json:"title"`
	Description string                 `json:"description"`
	Price       *float64               `json:"price"`
	Fields      map[string]interface{} `json:"fields"`
}

// UpdateAdRequest carries partial updates. A nil Fields map means "fields
// not provided"; an explicit null value inside Fields clears that value.
type UpdateAdRequest struct {
	Title       *string                `json:"title"`
	Description *string                `json:"description"`
	Price       *float64               `json:"price"`
	Status      *AdStatus              `json:"status"`
	Fields      map[string]interface{} `json:"fields"`

	// FieldsProvided distinguishes an absent "fields" object from an
	// empty one. Set during JSON binding.
	FieldsProvided bool `json:"-"`
}

func (r *UpdateAdRequest) UnmarshalJSON(data []byte) error {
	type alias UpdateAdRequest
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*r = UpdateAdRequest(a)

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err == nil {
		_, r.FieldsProvided = probe["fields"]
	}
	return nil
}

// ListFilters narrows ad listings.
type ListFilters struct {
	CategoryID *int64
	UserID     *int64
	Status     *AdStatus
	Page       int
	PageSize   int
}

// AdResponse is the API projection of an ad with its resolved field values.
type AdResponse struct {
	ID          int64                  `json:"id"`
	PublicID    string                 `json:"public_id"`
	UserID      int64                  `json:"user_id"`
	CategoryID  int64                  `json:"category_id"`
	Title       string                 `json:"title"`
	Description string                 `json:"description"`
	Price       *float64               `json:"price,omitempty"`
	Status      AdStatus               `json:"status"`
	ViewsCount  int64                  `json:"views_count"`
	Fields      map[string]interface{} `json:"fields"`
}

// ListResponse wraps a paginated ad listing.
type ListResponse struct {
	Ads        []AdResponse `json:"ads"`
	Total      int64        `json:"total"`
	Page       int          `json:"page"`
	PageSize   int          `json:"page_size"`
	TotalPages int          `json:"total_pages"`
}
