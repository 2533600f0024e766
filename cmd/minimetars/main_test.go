package main

import (
	"reflect"
	"testing"
)

func TestSplitStations(t *testing.T) {
	tests := []struct {
		raw  string
		want []string
	}{
		{"", nil},
		{"KSFO", []string{"KSFO"}},
		{" ksfo, koak ,,sjc ", []string{"ksfo", "koak", "sjc"}},
	}
	for _, tt := range tests {
		if got := splitStations(tt.raw); !reflect.DeepEqual(got, tt.want) {
			t.Fatalf("splitStations(%q) = %#v, want %#v", tt.raw, got, tt.want)
		}
	}
}
