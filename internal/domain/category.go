package domain

// Category is one of the five fixed partitions of the spot catalog.
type Category string

const (
	CategoryRestaurants Category = "restaurants"
	CategoryLaundry     Category = "laundry"
	CategoryTransport   Category = "transport"
	CategoryBars        Category = "bars"
	CategoryActivities  Category = "activities"
)

// Categories lists every category in enumeration order. Cross-category
// lookups scan in this order.
var Categories = []Category{
	CategoryRestaurants,
	CategoryLaundry,
	CategoryTransport,
	CategoryBars,
	CategoryActivities,
}

type CategoryMeta struct {
	Slug        Category `json:"slug"`
	Name        string   `json:"name"`
	Emoji       string   `json:"emoji"`
	Description string   `json:"description"`
}

var categoryMeta = []CategoryMeta{
	{Slug: CategoryRestaurants, Name: "Restaurants", Emoji: "🍜", Description: "Local restaurants and cafes"},
	{Slug: CategoryLaundry, Name: "Laundry", Emoji: "🧺", Description: "Laundry services nearby"},
	{Slug: CategoryTransport, Name: "Transport", Emoji: "🛵", Description: "Scooter rental and transport"},
	{Slug: CategoryBars, Name: "Bars", Emoji: "🍺", Description: "Bars and nightlife"},
	{Slug: CategoryActivities, Name: "Activities", Emoji: "🎯", Description: "Tours and activities"},
}

// AllCategoryMeta returns a copy of the descriptor table in enumeration order.
func AllCategoryMeta() []CategoryMeta {
	out := make([]CategoryMeta, len(categoryMeta))
	copy(out, categoryMeta)
	return out
}

func LookupCategoryMeta(c Category) (CategoryMeta, bool) {
	for _, m := range categoryMeta {
		if m.Slug == c {
			return m, true
		}
	}
	return CategoryMeta{}, false
}

func (c Category) Valid() bool {
	_, ok := LookupCategoryMeta(c)
	return ok
}

// ParseCategory validates a raw slug at the boundary.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if !c.Valid() {
		return "", &InvalidCategoryError{Value: s}
	}
	return c, nil
}
