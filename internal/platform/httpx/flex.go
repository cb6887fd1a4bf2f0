package httpx

import (
	"encoding/json"
	"strconv"
	"strings"
)

// FlexFloat unmarshals from a JSON number, a numeric string or null. Venue
// APIs are inconsistent about quoting numbers.
type FlexFloat float64

func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*f = FlexFloat(n)
		return nil
	}
	var s *string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == nil || strings.TrimSpace(*s) == "" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(*s), 64)
	if err != nil {
		return err
	}
	*f = FlexFloat(n)
	return nil
}

// FlexString unmarshals from a JSON string or number, for ids that some
// venues send as integers.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexString(n.String())
	return nil
}
