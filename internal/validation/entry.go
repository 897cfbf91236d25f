// Package validation normalizes and checks inbound payloads. Every function is
// pure: the caller supplies allow-lists and the current time.
package validation

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/autokatalog/autokatalog/backend/go-services/internal/models"
)

const (
	minYear              = 1886
	maxConsumptionLen    = 60
	maxAttributeKeyLen   = 50
	maxAttributeValueLen = 120
)

// EntryInput is a catalog entry as received, before normalization. Numeric
// fields are text; an empty string means the field was not supplied.
type EntryInput struct {
	Brand            string
	Model            string
	Year             string
	PowerPS          string
	TopSpeed         string
	Acceleration     string
	Consumption      string
	BodyTypes        []string
	CustomAttributes map[string]any
	Images           []string
}

// Context carries the allow-lists an entry is checked against.
type Context struct {
	Brands     []string
	Categories []string
	Now        time.Time
}

// EntryResult holds the normalized entry (ID, status and timestamps unset) and
// every problem found. Value is only meaningful when Valid is true.
type EntryResult struct {
	Valid  bool
	Value  models.Entry
	Errors []string
}

// Entry validates in against vc.
func Entry(in EntryInput, vc Context) EntryResult {
	var errs []string
	var out models.Entry

	out.Brand = strings.TrimSpace(in.Brand)
	if out.Brand == "" {
		errs = append(errs, "brand is required")
	} else if len(vc.Brands) > 0 {
		if canonical, ok := lookupFold(vc.Brands, out.Brand); ok {
			out.Brand = canonical
		} else {
			errs = append(errs, fmt.Sprintf("unknown brand %q", out.Brand))
		}
	}

	out.Model = strings.TrimSpace(in.Model)
	if out.Model == "" {
		errs = append(errs, "model is required")
	}

	now := vc.Now
	if now.IsZero() {
		now = time.Now()
	}
	if year, err := strconv.Atoi(strings.TrimSpace(in.Year)); err != nil {
		errs = append(errs, "year must be a number")
	} else if year < minYear || year > now.Year()+1 {
		errs = append(errs, fmt.Sprintf("year must be between %d and %d", minYear, now.Year()+1))
	} else {
		out.Year = year
	}

	if v, ok, err := parseNumber(in.PowerPS); err != nil {
		errs = append(errs, "powerPS must be a number")
	} else if ok {
		if v < 0 {
			errs = append(errs, "powerPS must not be negative")
		} else {
			p := int(math.Round(v))
			out.PowerPS = &p
		}
	}

	if v, ok, err := parseNumber(in.TopSpeed); err != nil {
		errs = append(errs, "topSpeed must be a number")
	} else if ok {
		if v <= 0 {
			errs = append(errs, "topSpeed must be positive")
		} else {
			s := int(math.Round(v))
			out.TopSpeed = &s
		}
	}

	if v, ok, err := parseNumber(in.Acceleration); err != nil {
		errs = append(errs, "acceleration_0_100 must be a number")
	} else if ok {
		if v <= 0 {
			errs = append(errs, "acceleration_0_100 must be positive")
		} else {
			a := math.Round(v*10) / 10
			out.Acceleration = &a
		}
	}

	out.Consumption = truncate(strings.TrimSpace(in.Consumption), maxConsumptionLen)

	var bodyErr string
	out.BodyTypes, bodyErr = bodyTypes(in.BodyTypes, vc.Categories)
	if bodyErr != "" {
		errs = append(errs, bodyErr)
	}

	var attrErrs []string
	out.CustomAttributes, attrErrs = customAttributes(in.CustomAttributes)
	errs = append(errs, attrErrs...)

	out.Images = images(in.Images)

	return EntryResult{Valid: len(errs) == 0, Value: out, Errors: errs}
}

// parseNumber reports ok=false for an empty value.
func parseNumber(raw string) (float64, bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false, fmt.Errorf("not a finite number: %q", raw)
	}
	return v, true, nil
}

func bodyTypes(in []string, allowed []string) ([]string, string) {
	seen := make(map[string]bool, len(in))
	valid := make([]string, 0, len(in))
	var invalid []string
	for _, raw := range in {
		item := strings.TrimSpace(raw)
		if item == "" || seen[item] {
			continue
		}
		seen[item] = true
		if contains(allowed, item) {
			valid = append(valid, item)
		} else {
			invalid = append(invalid, item)
		}
	}
	if len(invalid) > 0 {
		return valid, fmt.Sprintf("invalid body types: %s", strings.Join(invalid, ", "))
	}
	return valid, ""
}

func customAttributes(in map[string]any) (map[string]string, []string) {
	out := make(map[string]string, len(in))
	var errs []string
	keys := make([]string, 0, len(in))
	for k := range in {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		key := truncate(strings.TrimSpace(k), maxAttributeKeyLen)
		if key == "" {
			errs = append(errs, "custom attribute names must not be empty")
			continue
		}
		switch v := in[k].(type) {
		case nil, map[string]any, []any, map[string]string, []string:
			errs = append(errs, fmt.Sprintf("custom attribute %q must not hold a nested value", key))
		case string:
			out[key] = truncate(v, maxAttributeValueLen)
		default:
			out[key] = truncate(fmt.Sprint(v), maxAttributeValueLen)
		}
	}
	return out, errs
}

func images(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, raw := range in {
		ref := strings.TrimSpace(raw)
		if ref == "" || seen[ref] {
			continue
		}
		seen[ref] = true
		out = append(out, ref)
	}
	return out
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func lookupFold(list []string, v string) (string, bool) {
	for _, item := range list {
		if strings.EqualFold(item, v) {
			return item, true
		}
	}
	return "", false
}
