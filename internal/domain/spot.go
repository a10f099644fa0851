package domain

type CuisineType string

const (
	CuisineThai       CuisineType = "thai"
	CuisineWestern    CuisineType = "western"
	CuisineJapanese   CuisineType = "japanese"
	CuisineChinese    CuisineType = "chinese"
	CuisineIndian     CuisineType = "indian"
	CuisineItalian    CuisineType = "italian"
	CuisineMexican    CuisineType = "mexican"
	CuisineKorean     CuisineType = "korean"
	CuisineVietnamese CuisineType = "vietnamese"
	CuisineVegetarian CuisineType = "vegetarian"
	CuisineVegan      CuisineType = "vegan"
	CuisineSeafood    CuisineType = "seafood"
	CuisineStreetFood CuisineType = "street-food"
	CuisineCafe       CuisineType = "cafe"
	CuisineOther      CuisineType = "other"
)

type PriceRange string

const (
	PriceBudget  PriceRange = "€"
	PriceMid     PriceRange = "€€"
	PriceUpscale PriceRange = "€€€"
)

// Spot is a point of interest. Its category is not part of the record; it is
// the key the spot was loaded under.
type Spot struct {
	ID           string       `json:"id" yaml:"id"`
	Name         string       `json:"name" yaml:"name"`
	Description  string       `json:"description" yaml:"description"`
	CuisineType  CuisineType  `json:"cuisineType,omitempty" yaml:"cuisineType,omitempty"`
	PriceRange   PriceRange   `json:"priceRange,omitempty" yaml:"priceRange,omitempty"`
	Image        string       `json:"image,omitempty" yaml:"image,omitempty"`
	Address      string       `json:"address,omitempty" yaml:"address,omitempty"`
	Coordinates  *Coordinates `json:"coordinates,omitempty" yaml:"coordinates,omitempty"`
	Location     *Coordinates `json:"location,omitempty" yaml:"location,omitempty"` // CMS alias of Coordinates
	Phone        string       `json:"phone,omitempty" yaml:"phone,omitempty"`
	OpeningHours string       `json:"openingHours,omitempty" yaml:"openingHours,omitempty"`
	Tags         []string     `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// Position returns the spot's coordinates from whichever of the two accepted
// fields is present, preferring Coordinates.
func (s Spot) Position() (Coordinates, bool) {
	if s.Coordinates != nil {
		return *s.Coordinates, true
	}
	if s.Location != nil {
		return *s.Location, true
	}
	return Coordinates{}, false
}

type SpotsFile struct {
	Spots []Spot `json:"spots" yaml:"spots"`
}

// SpotMatch is the result of a cross-category lookup.
type SpotMatch struct {
	Spot     Spot     `json:"spot"`
	Category Category `json:"category"`
}
