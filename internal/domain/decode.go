package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// timeLayouts are tried in order. Inputs without a zone are read as UTC and
// fractional seconds are accepted after any of them.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTime reads a gateway timestamp: RFC3339, naive ISO, SQL style or
// epoch seconds/milliseconds as number or string. Anything else is zero.
func ParseTime(v any) time.Time {
	switch t := v.(type) {
	case string:
		s := strings.TrimSpace(t)
		for _, layout := range timeLayouts {
			if ts, err := time.Parse(layout, s); err == nil {
				return ts
			}
		}
		if n, err := strconv.ParseFloat(s, 64); err == nil {
			return fromEpoch(n)
		}
	case float64:
		return fromEpoch(t)
	}
	return time.Time{}
}

func fromEpoch(n float64) time.Time {
	if n <= 0 || math.IsNaN(n) || math.IsInf(n, 0) {
		return time.Time{}
	}
	if n > 1e12 {
		return time.UnixMilli(int64(n)).UTC()
	}
	sec, frac := math.Modf(n)
	return time.Unix(int64(sec), int64(frac*1e9)).UTC()
}

// Text renders a scalar JSON value as a string, so ids and classes may be
// sent as numbers.
func Text(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	}
	return fmt.Sprint(v)
}

func decodeObject(data []byte) (map[string]any, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func (t *Thread) UnmarshalJSON(data []byte) error {
	raw, err := decodeObject(data)
	if err != nil {
		return err
	}
	*t = Thread{
		ThreadID:    Text(raw["thread_id"]),
		Class:       Text(raw["class"]),
		Subject:     Text(raw["subject"]),
		Topic:       Text(raw["topic"]),
		CreatedAt:   ParseTime(raw["created_at"]),
		LastUpdated: ParseTime(raw["last_updated"]),
	}
	return nil
}

func (m *Message) UnmarshalJSON(data []byte) error {
	raw, err := decodeObject(data)
	if err != nil {
		return err
	}
	*m = Message{
		ID:        Text(raw["id"]),
		Sender:    Sender(Text(raw["sender"])),
		Message:   Text(raw["message"]),
		Timestamp: ParseTime(raw["timestamp"]),
	}
	return nil
}

func (p *Profile) UnmarshalJSON(data []byte) error {
	raw, err := decodeObject(data)
	if err != nil {
		return err
	}
	*p = ProfileFromFields(raw)
	return nil
}

// ProfileFromFields picks the profile fields out of stored user data.
// Unknown keys are ignored and scalar values of any type are accepted.
func ProfileFromFields(raw map[string]any) Profile {
	return Profile{
		Email:    Text(raw["email"]),
		Name:     Text(raw["name"]),
		Role:     Role(Text(raw["role"])),
		Phone:    Text(raw["phone"]),
		Sub:      Text(raw["sub"]),
		Username: Text(raw["username"]),
	}
}
