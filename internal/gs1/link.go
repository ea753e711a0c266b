package gs1

import (
	"fmt"
	"net/url"
	"strings"
)

// DefaultResolver is the canonical GS1 Digital Link resolver domain.
const DefaultResolver = "https://id.gs1.org"

// ValidateGTIN checks length, digit content and the mod-10 check digit of a
// GTIN-8/12/13/14.
func ValidateGTIN(gtin string) error {
	n := len(gtin)
	switch n {
	case 8, 12, 13, 14:
	default:
		return fmt.Errorf("gtin must be 8, 12, 13 or 14 digits, got %d", n)
	}
	sum := 0
	for i, r := range gtin {
		if r < '0' || r > '9' {
			return fmt.Errorf("gtin contains non-digit character %q", r)
		}
		digit := int(r - '0')
		// Weight 3 applies to positions with even distance from the check digit.
		if (n-1-i)%2 == 1 {
			digit *= 3
		}
		sum += digit
	}
	if sum%10 != 0 {
		return fmt.Errorf("gtin %s has an invalid check digit", gtin)
	}
	return nil
}

// DigitalLink builds a GS1 Digital Link URI for a product, optionally scoped
// to a serial number: https://id.gs1.org/01/{gtin14}[/21/{serial}].
func DigitalLink(gtin, serial string) (string, error) {
	if err := ValidateGTIN(gtin); err != nil {
		return "", err
	}
	// AI (01) always carries a 14-digit GTIN; shorter forms are zero-padded.
	padded := strings.Repeat("0", 14-len(gtin)) + gtin
	link := fmt.Sprintf("%s/01/%s", DefaultResolver, padded)
	if serial != "" {
		link += "/21/" + url.PathEscape(serial)
	}
	return link, nil
}
