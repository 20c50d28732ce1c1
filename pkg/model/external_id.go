package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
)

var ErrNotNumeric = errors.New("external id is not numeric")

// ExternalID is an identifier assigned by the booking gateway. The gateway
// sends it as a JSON number on some endpoints and as a string on others.
type ExternalID string

func (id *ExternalID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ExternalID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = ExternalID(n.String())
	return nil
}

func (id ExternalID) String() string {
	return string(id)
}

func (id ExternalID) IsZero() bool {
	return id == ""
}

// Int returns the numeric form required by the gateway v1 endpoints.
func (id ExternalID) Int() (int64, error) {
	n, err := strconv.ParseInt(string(id), 10, 64)
	if err != nil {
		return 0, ErrNotNumeric
	}
	return n, nil
}
