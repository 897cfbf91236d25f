package models

// Category is a body type descriptor; Name is what entries reference.
type Category struct {
	Name string `json:"name"`
	Icon string `json:"icon"`
}

// CategoryNames lists the names of cats in order.
func CategoryNames(cats []Category) []string {
	out := make([]string, 0, len(cats))
	for _, c := range cats {
		out = append(out, c.Name)
	}
	return out
}
