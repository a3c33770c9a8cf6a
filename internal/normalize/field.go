package normalize

// Field identifies which record field a term belongs to. Each field has its
// own normalizer and risk weight; dispatch goes through the field table
// instead of string comparisons at call sites.
type Field int

const (
	FieldProduct Field = iota
	FieldManufacturer
	FieldModel
)

type fieldSpec struct {
	name      string
	normalize func(string) Term
	weight    int
}

var fieldTable = [...]fieldSpec{
	FieldProduct:      {name: "PRODUCT", normalize: Text, weight: 30},
	FieldManufacturer: {name: "MANUFACTURER", normalize: Manufacturer, weight: 20},
	FieldModel:        {name: "MODEL", normalize: Text, weight: 40},
}

func (f Field) String() string {
	if int(f) < 0 || int(f) >= len(fieldTable) {
		return "UNKNOWN"
	}
	return fieldTable[f].name
}

// Normalize applies the field-appropriate normalizer to s.
func (f Field) Normalize(s string) Term {
	return fieldTable[f].normalize(s)
}

// Weight is the risk-score contribution of a match on this field.
func (f Field) Weight() int {
	return fieldTable[f].weight
}
