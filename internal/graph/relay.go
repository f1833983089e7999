package graph

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Relay object type names. Global ids are base64("<TypeName>:<pk>").
const (
	CustomerTypeName = "CustomerType"
	ProductTypeName  = "ProductType"
	OrderTypeName    = "OrderType"
)

const cursorPrefix = "arrayconnection:"

var errInvalidID = errors.New("invalid id")

// ToGlobalID encodes a primary key as a relay global id.
func ToGlobalID(typeName string, id int64) string {
	return base64.StdEncoding.EncodeToString([]byte(typeName + ":" + strconv.FormatInt(id, 10)))
}

// FromGlobalID decodes a relay global id.
func FromGlobalID(globalID string) (string, int64, error) {
	raw, err := base64.StdEncoding.DecodeString(globalID)
	if err != nil {
		return "", 0, errInvalidID
	}

	typeName, pk, ok := strings.Cut(string(raw), ":")
	if !ok || typeName == "" {
		return "", 0, errInvalidID
	}

	id, err := strconv.ParseInt(pk, 10, 64)
	if err != nil || id <= 0 {
		return "", 0, errInvalidID
	}
	return typeName, id, nil
}

// ParseID accepts either a raw numeric primary key or a global id of
// typeName.
func ParseID(raw, typeName string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
		if id <= 0 {
			return 0, errInvalidID
		}
		return id, nil
	}

	gotType, id, err := FromGlobalID(raw)
	if err != nil {
		return 0, err
	}
	if gotType != typeName {
		return 0, fmt.Errorf("%w: expected %s, got %s", errInvalidID, typeName, gotType)
	}
	return id, nil
}

// offsetToCursor encodes an absolute list position as an opaque cursor.
func offsetToCursor(offset int) string {
	return base64.StdEncoding.EncodeToString([]byte(cursorPrefix + strconv.Itoa(offset)))
}

// cursorToOffset decodes a cursor produced by offsetToCursor.
func cursorToOffset(cursor string) (int, error) {
	raw, err := base64.StdEncoding.DecodeString(cursor)
	if err != nil {
		return 0, fmt.Errorf("invalid cursor")
	}

	value, ok := strings.CutPrefix(string(raw), cursorPrefix)
	if !ok {
		return 0, fmt.Errorf("invalid cursor")
	}

	offset, err := strconv.Atoi(value)
	if err != nil || offset < 0 {
		return 0, fmt.Errorf("invalid cursor")
	}
	return offset, nil
}
