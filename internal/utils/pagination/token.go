package pagination

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const timeFormat = time.RFC3339Nano // Use a precise time format

// EncodeMovementToken creates an opaque token from a movement's keyset position
// (movement date, insertion sequence).
func EncodeMovementToken(movementDate time.Time, seq int64) string {
	return EncodeMultiFieldToken(movementDate.UTC().Format(timeFormat), strconv.FormatInt(seq, 10))
}

// DecodeMovementToken parses a token produced by EncodeMovementToken.
func DecodeMovementToken(token string) (time.Time, int64, error) {
	fields, err := DecodeMultiFieldToken(token)
	if err != nil {
		return time.Time{}, 0, err
	}
	if len(fields) != 2 {
		return time.Time{}, 0, fmt.Errorf("invalid pagination token format (split)")
	}

	movementDate, err := time.Parse(timeFormat, fields[0])
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("invalid pagination token format (movement date parse): %w", err)
	}

	seq, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil || seq < 0 {
		return time.Time{}, 0, fmt.Errorf("invalid pagination token format (sequence parse)")
	}

	return movementDate, seq, nil
}

// EncodeMultiFieldToken creates a token with any number of string fields
func EncodeMultiFieldToken(fields ...string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(strings.Join(fields, "|")))
}

// DecodeMultiFieldToken decodes a token into its component fields
func DecodeMultiFieldToken(token string) ([]string, error) {
	decodedBytes, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("invalid pagination token format (base64 decode): %w", err)
	}
	return strings.Split(string(decodedBytes), "|"), nil
}

// TotalPages returns how many pages of size limit hold total items.
func TotalPages(total, limit int) int {
	if limit <= 0 || total <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}
