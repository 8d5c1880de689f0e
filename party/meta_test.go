// Copyright 2026 The Partyline Authors
// SPDX-License-Identifier: Apache-2.0

package party

import (
	"reflect"
	"testing"
)

func TestMetaRoundTrip(t *testing.T) {
	wire := map[string]string{
		"Default:AthenaCosmeticLoadout_j": `{"AthenaCosmeticLoadout":{"characterDef":"CID_017"}}`,
		"Default:CurrentInputType_s":      "MouseAndKeyboard",
		"Default:AthenaSquadFill_b":       "true",
		"Default:NumAthenaPlayersLeft_U":  "42",
		"urn:epic:member:offline_ttl_i":   "30",
		"unsuffixed":                      "opaque",
	}

	meta := MetaFromWire(wire)
	got := meta.ToWire()
	if !reflect.DeepEqual(got, wire) {
		t.Errorf("round trip mismatch:\n got %v\nwant %v", got, wire)
	}

	// The store must not retain or expose live references.
	wire["Default:CurrentInputType_s"] = "Gamepad"
	if value, _ := meta.GetRaw("Default:CurrentInputType_s"); value != "MouseAndKeyboard" {
		t.Errorf("store aliased the caller's map: got %q", value)
	}
	got["Default:AthenaSquadFill_b"] = "false"
	if meta.Get("Default:AthenaSquadFill_b") != true {
		t.Error("store aliased the returned wire map")
	}
}

func TestMetaGet(t *testing.T) {
	meta := MetaFromWire(map[string]string{
		"loadout_j": `{"slot":"CID_028"}`,
		"name_s":    "ninja",
		"fill_b":    "true",
		"left_U":    "17",
		"ttl_i":     "-5",
		"blob_x":    "raw-passthrough",
	})

	tests := []struct {
		name string
		key  string
		want any
	}{
		{"json", "loadout_j", map[string]any{"slot": "CID_028"}},
		{"string", "name_s", "ninja"},
		{"bool", "fill_b", true},
		{"unsigned", "left_U", uint64(17)},
		{"signed", "ttl_i", int64(-5)},
		{"unknown suffix passes through", "blob_x", "raw-passthrough"},
		{"missing json is nil", "absent_j", nil},
		{"missing string is empty", "absent_s", ""},
		{"missing bool is false", "absent_b", false},
		{"missing unsigned is zero", "absent_U", uint64(0)},
		{"missing signed is zero", "absent_i", int64(0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := meta.Get(tt.key)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Get(%q) = %v (%T), want %v (%T)", tt.key, got, got, tt.want, tt.want)
			}
		})
	}
}

func TestMetaSet(t *testing.T) {
	meta := NewMeta()

	meta.Set("ready_j", map[string]string{"state": "Ready"})
	if raw, _ := meta.GetRaw("ready_j"); raw != `{"state":"Ready"}` {
		t.Errorf("json encoding: got %q", raw)
	}
	meta.Set("fill_b", true)
	if raw, _ := meta.GetRaw("fill_b"); raw != "true" {
		t.Errorf("bool encoding: got %q", raw)
	}
	meta.Set("count_U", 9)
	if raw, _ := meta.GetRaw("count_U"); raw != "9" {
		t.Errorf("unsigned encoding: got %q", raw)
	}
	meta.Set("ttl_i", int64(-3))
	if raw, _ := meta.GetRaw("ttl_i"); raw != "-3" {
		t.Errorf("signed encoding: got %q", raw)
	}

	// Mismatched types store nothing.
	meta.Set("fill_b", "not-a-bool")
	if raw, _ := meta.GetRaw("fill_b"); raw != "true" {
		t.Errorf("bad bool overwrote value: got %q", raw)
	}
	meta.Set("count_U", -1)
	if raw, _ := meta.GetRaw("count_U"); raw != "9" {
		t.Errorf("negative unsigned overwrote value: got %q", raw)
	}
}

func TestMetaMerge(t *testing.T) {
	meta := MetaFromWire(map[string]string{
		"a_s": "old",
		"b_s": "same",
	})

	changes := meta.Merge(map[string]string{
		"a_s": "new",
		"b_s": "same",
		"c_s": "created",
	})

	want := []Change{
		{Key: "a_s", Old: "old", New: "new", HadOld: true, HasNew: true},
		{Key: "c_s", New: "created", HasNew: true},
	}
	if !reflect.DeepEqual(changes, want) {
		t.Errorf("change list:\n got %+v\nwant %+v", changes, want)
	}
	if meta.Len() != 3 {
		t.Errorf("Len() = %d, want 3", meta.Len())
	}
}

func TestMetaRemove(t *testing.T) {
	meta := MetaFromWire(map[string]string{"a_s": "x"})

	changes := meta.Remove([]string{"a_s", "absent_s"})
	want := []Change{{Key: "a_s", Old: "x", HadOld: true}}
	if !reflect.DeepEqual(changes, want) {
		t.Errorf("change list:\n got %+v\nwant %+v", changes, want)
	}
	if _, ok := meta.GetRaw("a_s"); ok {
		t.Error("removed key still present")
	}
}
