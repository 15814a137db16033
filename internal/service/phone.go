package service

import (
	"strconv"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// CountryCode is the dialing prefix of a region.
type CountryCode struct {
	Region   string `json:"region"`
	DialCode string `json:"dial_code"`
}

// PhoneNormalizer converts user-entered phone numbers to E.164.
type PhoneNormalizer struct {
	defaultRegion string
}

// NewPhoneNormalizer creates a PhoneNormalizer for numbers entered without a country code.
func NewPhoneNormalizer(defaultRegion string) *PhoneNormalizer {
	return &PhoneNormalizer{defaultRegion: strings.ToUpper(defaultRegion)}
}

// Normalize parses raw in region (or the default region) and formats it as E.164.
// An empty number stays empty.
func (p *PhoneNormalizer) Normalize(raw, region string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	if region == "" {
		region = p.defaultRegion
	}
	num, err := phonenumbers.Parse(raw, strings.ToUpper(region))
	if err != nil {
		return "", invalidf("phone number %q: %v", raw, err)
	}
	if !phonenumbers.IsValidNumber(num) {
		return "", invalidf("phone number %q is not valid", raw)
	}
	return phonenumbers.Format(num, phonenumbers.E164), nil
}

// CountryCode looks up the dialing code of region.
func (p *PhoneNormalizer) CountryCode(region string) (CountryCode, error) {
	region = strings.ToUpper(strings.TrimSpace(region))
	code := phonenumbers.GetCountryCodeForRegion(region)
	if code == 0 {
		return CountryCode{}, invalidf("unknown region %q", region)
	}
	return CountryCode{Region: region, DialCode: "+" + strconv.Itoa(code)}, nil
}
