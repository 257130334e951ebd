package workflow

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"logistics-backend/internal/apperr"
)

// Column widths of the text fields callers can set.
const (
	maxNumberLen      = 40
	maxNameLen        = 150
	maxAddressLen     = 500
	maxDescriptionLen = 255
	maxPackageTypeLen = 50
	maxVehicleLen     = 30
	maxDestinationLen = 255
	maxImageRefLen    = 500
	maxReasonLen      = 500
)

// Document numbers end up in URLs and download file names.
var documentNumber = regexp.MustCompile(`^[A-Za-z0-9-]+$`)

// checkLength counts characters, not bytes.
func checkLength(field, label, value string, max int) error {
	if utf8.RuneCountInString(strings.TrimSpace(value)) > max {
		return apperr.Validation(field, fmt.Sprintf("%s must be at most %d characters", label, max))
	}
	return nil
}

// checkNumber accepts an empty value; the caller generates one.
func checkNumber(field, label, value string) error {
	v := strings.TrimSpace(value)
	if v == "" {
		return nil
	}
	if err := checkLength(field, label, v, maxNumberLen); err != nil {
		return err
	}
	if !documentNumber.MatchString(v) {
		return apperr.Validation(field, label+" may only contain letters, digits and hyphens")
	}
	return nil
}
