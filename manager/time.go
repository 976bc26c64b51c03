package manager

import (
	"cmp"
	"encoding/json"
	"fmt"
)

// UnixTime is a count of seconds since the Unix epoch. It carries no
// calendar or timezone information.
type UnixTime struct {
	seconds int64
}

func FromSeconds(s int64) UnixTime {
	return UnixTime{seconds: s}
}

func (t UnixTime) Seconds() int64 {
	return t.seconds
}

func (t UnixTime) Compare(other UnixTime) int {
	return cmp.Compare(t.seconds, other.seconds)
}

func (t UnixTime) Equal(other UnixTime) bool {
	return t.seconds == other.seconds
}

func (t UnixTime) Before(other UnixTime) bool {
	return t.seconds < other.seconds
}

func (t UnixTime) String() string {
	return fmt.Sprintf("%d", t.seconds)
}

func (t UnixTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.seconds)
}

func (t *UnixTime) UnmarshalJSON(data []byte) error {
	var s int64
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("unix time: %w", err)
	}
	t.seconds = s
	return nil
}

// Timestamp is the provider's creation time in both of its wire forms.
// The two fields are taken as given and not checked against each other.
type Timestamp struct {
	CreatedHTTP string   `json:"created_http"`
	CreatedUnix UnixTime `json:"created_unix"`
}
