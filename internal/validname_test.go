package internal

import "testing"

func TestValidNames(t *testing.T) {
	good := []string{
		"_",
		"x",
		"tof",
		"pulse_time",
		"temperature (K)",
		"2theta",
		"Δλ",
	}
	for _, name := range good {
		if !IsValidName(name) {
			t.Errorf("name %q should be valid", name)
		}
	}
}

func TestInvalidNames(t *testing.T) {
	bad := []string{
		"",
		" ",
		"tof ",
		"/",
		"detector/bank",
		"\ttof",
		"tof\t",
		"°2theta",
		"\x08",
	}
	for _, name := range bad {
		if IsValidName(name) {
			t.Errorf("name %q should be rejected", name)
		}
	}
}
