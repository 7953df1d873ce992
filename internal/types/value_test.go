package types

import (
	"math"
	"testing"
)

func TestValueConversions(t *testing.T) {
	tests := []struct {
		name    string
		v       Value
		wantInt int64
		wantStr string
		wantB   bool
	}{
		{"zero", Value{}, 0, "0", false},
		{"positive", Int(15), 15, "15", true},
		{"negative", Int(-3), -3, "-3", true},
		{"string", Str("* "), 0, "* ", true},
		{"empty string", Str(""), 0, "", true},
		{"true", Bool(true), 1, "1", true},
		{"false", Bool(false), 0, "0", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.AsInt(); got != tt.wantInt {
				t.Errorf("AsInt() = %d, want %d", got, tt.wantInt)
			}
			if got := tt.v.AsStr(); got != tt.wantStr {
				t.Errorf("AsStr() = %q, want %q", got, tt.wantStr)
			}
			if got := tt.v.AsBool(); got != tt.wantB {
				t.Errorf("AsBool() = %v, want %v", got, tt.wantB)
			}
		})
	}
}

func TestInIntRange(t *testing.T) {
	for _, n := range []int64{0, -1, math.MaxInt32, math.MinInt32} {
		if !InIntRange(n) {
			t.Errorf("InIntRange(%d) = false, want true", n)
		}
	}
	for _, n := range []int64{math.MaxInt32 + 1, math.MinInt32 - 1} {
		if InIntRange(n) {
			t.Errorf("InIntRange(%d) = true, want false", n)
		}
	}
}

func TestKindString(t *testing.T) {
	if KindInt.String() != "int" || KindStr.String() != "str" {
		t.Errorf("unexpected kind names %q %q", KindInt, KindStr)
	}
	if Kind(9).String() != "unknown" {
		t.Errorf("Kind(9) = %q, want unknown", Kind(9))
	}
}
