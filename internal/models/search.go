package models

// SearchRequest carries the user-supplied identifiers for a recall lookup.
// All fields are optional, but at least one of the text fields or the image
// must be present. Image holds raw bytes handed to the external extractor;
// the matching core itself only ever sees the resulting text.
type SearchRequest struct {
	ProductName  string `json:"productName,omitempty"`
	Manufacturer string `json:"manufacturer,omitempty"`
	ModelName    string `json:"modelName,omitempty"`
	Image        []byte `json:"-"`
}

// HasText reports whether any text field is non-blank.
func (r *SearchRequest) HasText() bool {
	return r.ProductName != "" || r.Manufacturer != "" || r.ModelName != ""
}

// SearchResponse is the outcome of one recall lookup. When Found is false the
// record fields are empty, RiskScore is 0 and RiskLevel is "none".
type SearchResponse struct {
	Found             bool                 `json:"found"`
	RecallSN          string               `json:"recallSn,omitempty"`
	ProductName       string               `json:"productName,omitempty"`
	Manufacturer      string               `json:"manufacturer,omitempty"`
	ModelName         string               `json:"modelName,omitempty"`
	DefectDescription string               `json:"defectDescription,omitempty"`
	PublicationDate   string               `json:"publicationDate,omitempty"`
	DetailURL         string               `json:"detailUrl,omitempty"`
	RiskScore         int                  `json:"riskScore"`
	RiskLevel         string               `json:"riskLevel"`
	PartialMatch      bool                 `json:"partialMatch,omitempty"`
	Message           string               `json:"message,omitempty"`
	Alternatives      []AlternativeProduct `json:"alternatives,omitempty"`
}
