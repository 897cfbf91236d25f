package models

import "time"

// Collection keys, one storage key per collection.
const (
	CollectionCars       = "cars"
	CollectionPending    = "pending"
	CollectionUsers      = "users"
	CollectionBrands     = "brands"
	CollectionCategories = "categories"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusPublished Status = "published"
)

// Entry is a catalog entry. Published entries and pending submissions share
// this shape and differ only by Status.
type Entry struct {
	ID               string            `json:"id"`
	Brand            string            `json:"brand"`
	Model            string            `json:"model"`
	Year             int               `json:"year"`
	PowerPS          *int              `json:"powerPS,omitempty"`
	TopSpeed         *int              `json:"topSpeed,omitempty"`
	Acceleration     *float64          `json:"acceleration_0_100,omitempty"`
	Consumption      string            `json:"consumption,omitempty"`
	BodyTypes        []string          `json:"bodyTypes"`
	CustomAttributes map[string]string `json:"customCategories"`
	Images           []string          `json:"images"`
	Status           Status            `json:"status"`
	CreatedAt        time.Time         `json:"createdAt"`
	UpdatedAt        time.Time         `json:"updatedAt"`
}

// Clone returns a deep copy so list mutations never alias a caller's entry.
func (e Entry) Clone() Entry {
	out := e
	if e.PowerPS != nil {
		v := *e.PowerPS
		out.PowerPS = &v
	}
	if e.TopSpeed != nil {
		v := *e.TopSpeed
		out.TopSpeed = &v
	}
	if e.Acceleration != nil {
		v := *e.Acceleration
		out.Acceleration = &v
	}
	out.BodyTypes = append([]string{}, e.BodyTypes...)
	out.Images = append([]string{}, e.Images...)
	out.CustomAttributes = make(map[string]string, len(e.CustomAttributes))
	for k, v := range e.CustomAttributes {
		out.CustomAttributes[k] = v
	}
	return out
}

// IndexOf returns the position of id in entries or -1.
func IndexOf(entries []Entry, id string) int {
	for i := range entries {
		if entries[i].ID == id {
			return i
		}
	}
	return -1
}
