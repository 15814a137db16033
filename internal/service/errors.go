package service

import (
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrInvalid marks a request the service refuses before touching the database.
var ErrInvalid = errors.New("invalid request")

func invalidf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

// ParseID converts a hex id from a URL into an ObjectID.
func ParseID(hex string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, invalidf("malformed id %q", hex)
	}
	return id, nil
}

func optionalID(hex string) (*primitive.ObjectID, error) {
	if hex == "" {
		return nil, nil
	}
	id, err := ParseID(hex)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
