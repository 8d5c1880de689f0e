// Copyright 2026 The Partyline Authors
// SPDX-License-Identifier: Apache-2.0

package party

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
)

// Meta is the open-ended attribute bag attached to a party or member.
// Keys are the vendor's prefixed names (e.g.
// "Default:AthenaCosmeticLoadout_j"); every value is a string on the
// wire, with the key's trailing suffix declaring the encoding:
//
//	_j  JSON blob
//	_s  string
//	_b  bool ("true"/"false")
//	_i  signed integer
//	_U  unsigned integer
//
// The store is type-agnostic beyond suffix encoding and never fails on
// unknown keys; the vendor's schema is neither fully known nor stable,
// so unrecognized keys pass through untouched.
//
// Meta is not safe for concurrent use; the owning entity serializes
// access.
type Meta struct {
	fields map[string]string
}

// Change records one key's transition from a Merge or Remove. Old is
// empty when the key was absent before (HadOld false); New is empty
// when the key was removed (HasNew false).
type Change struct {
	Key    string
	Old    string
	New    string
	HadOld bool
	HasNew bool
}

// NewMeta returns an empty store.
func NewMeta() *Meta {
	return &Meta{fields: make(map[string]string)}
}

// MetaFromWire constructs a store from the wire map. The map is
// copied; the caller's map is not retained.
func MetaFromWire(wire map[string]string) *Meta {
	meta := NewMeta()
	for key, value := range wire {
		meta.fields[key] = value
	}
	return meta
}

// ToWire returns a copy of the flat wire map. This is the serialized
// form used by both REST payloads and realtime payloads;
// MetaFromWire(x).ToWire() always equals x.
func (m *Meta) ToWire() map[string]string {
	wire := make(map[string]string, len(m.fields))
	for key, value := range m.fields {
		wire[key] = value
	}
	return wire
}

// Len returns the number of keys in the store.
func (m *Meta) Len() int { return len(m.fields) }

// GetRaw returns the wire string for a key.
func (m *Meta) GetRaw(key string) (string, bool) {
	value, ok := m.fields[key]
	return value, ok
}

// Get decodes a key's value per its suffix. Missing keys return the
// suffix's zero value: nil for _j, "" for _s, false for _b, 0 for
// _i/_U. Keys with an unknown suffix return the raw wire string.
func (m *Meta) Get(key string) any {
	raw, ok := m.fields[key]
	switch suffix(key) {
	case "j":
		if !ok {
			return nil
		}
		var decoded any
		if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
			return nil
		}
		return decoded
	case "b":
		return ok && strings.EqualFold(raw, "true")
	case "i":
		if !ok {
			return int64(0)
		}
		value, _ := strconv.ParseInt(raw, 10, 64)
		return value
	case "U":
		if !ok {
			return uint64(0)
		}
		value, _ := strconv.ParseUint(raw, 10, 64)
		return value
	default:
		// _s and unknown suffixes are both plain strings.
		return raw
	}
}

// GetJSON decodes a _j key's value into v. Missing keys leave v
// untouched and return nil: absent vendor fields are expected.
func (m *Meta) GetJSON(key string, v any) error {
	raw, ok := m.fields[key]
	if !ok {
		return nil
	}
	return json.Unmarshal([]byte(raw), v)
}

// Set encodes value per the key's suffix and stores it, returning the
// previous wire value. A nil _j value or a failed JSON encoding stores
// nothing and returns the current value.
func (m *Meta) Set(key string, value any) (previous string) {
	previous = m.fields[key]

	encoded, ok := encodeValue(key, value)
	if !ok {
		return previous
	}
	m.fields[key] = encoded
	return previous
}

// SetRaw stores a wire string without suffix encoding.
func (m *Meta) SetRaw(key, value string) (previous string) {
	previous = m.fields[key]
	m.fields[key] = value
	return previous
}

// Merge applies a raw wire patch and returns the ordered change list,
// one entry per key whose wire value actually changed. Keys are
// visited in sorted order so the change list is deterministic.
func (m *Meta) Merge(patch map[string]string) []Change {
	changes := make([]Change, 0, len(patch))
	for _, key := range sortedKeys(patch) {
		newValue := patch[key]
		oldValue, hadOld := m.fields[key]
		if hadOld && oldValue == newValue {
			continue
		}
		m.fields[key] = newValue
		changes = append(changes, Change{
			Key:    key,
			Old:    oldValue,
			New:    newValue,
			HadOld: hadOld,
			HasNew: true,
		})
	}
	return changes
}

// Remove deletes keys and returns the change list for keys that were
// present. Absent keys are skipped silently.
func (m *Meta) Remove(keys []string) []Change {
	var changes []Change
	for _, key := range keys {
		oldValue, ok := m.fields[key]
		if !ok {
			continue
		}
		delete(m.fields, key)
		changes = append(changes, Change{
			Key:    key,
			Old:    oldValue,
			HadOld: true,
		})
	}
	return changes
}

// encodeValue converts a typed value to its wire string per the key's
// suffix.
func encodeValue(key string, value any) (string, bool) {
	switch suffix(key) {
	case "j":
		encoded, err := json.Marshal(value)
		if err != nil || value == nil {
			return "", false
		}
		return string(encoded), true
	case "b":
		boolean, ok := value.(bool)
		if !ok {
			return "", false
		}
		return strconv.FormatBool(boolean), true
	case "i":
		switch number := value.(type) {
		case int:
			return strconv.FormatInt(int64(number), 10), true
		case int64:
			return strconv.FormatInt(number, 10), true
		default:
			return "", false
		}
	case "U":
		switch number := value.(type) {
		case int:
			if number < 0 {
				return "", false
			}
			return strconv.FormatUint(uint64(number), 10), true
		case uint64:
			return strconv.FormatUint(number, 10), true
		default:
			return "", false
		}
	default:
		text, ok := value.(string)
		if !ok {
			return "", false
		}
		return text, true
	}
}

// suffix returns the type suffix of a vendor key: the text after the
// final underscore. Keys without an underscore have no suffix.
func suffix(key string) string {
	if i := strings.LastIndexByte(key, '_'); i >= 0 {
		return key[i+1:]
	}
	return ""
}

func sortedKeys(patch map[string]string) []string {
	keys := make([]string, 0, len(patch))
	for key := range patch {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
