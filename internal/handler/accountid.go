package handler

import (
	"errors"
	"strconv"
	"strings"
)

var errInvalidAccountID = errors.New("invalid account id")

// normalizeAccountID turns whatever the terminal scanned or typed into a
// numeric account id. Carnet barcodes are EAN-13: the account id padded and
// terminated with a "000" or "001" check sequence, so a long all-digit scan
// gets that suffix stripped before parsing. Short ids pass through as-is.
func normalizeAccountID(raw string) (int64, error) {
	var b strings.Builder
	for _, r := range strings.TrimSpace(raw) {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if digits == "" {
		return 0, errInvalidAccountID
	}

	if len(digits) >= 13 {
		for _, suffix := range []string{"001", "000"} {
			if strings.HasSuffix(digits, suffix) && len(digits)-3 >= 6 {
				digits = digits[:len(digits)-3]
				break
			}
		}
	}

	id, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, errInvalidAccountID
	}
	return id, nil
}

// normalizeProductID parses a product id sent as number or string. Product
// ids are never barcode-encoded, so no suffix stripping here.
func normalizeProductID(raw string) (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
}
