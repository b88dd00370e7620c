package envutil

import "testing"

func TestGetEnv(t *testing.T) {
	t.Setenv("TEST_STR", "value")
	if got := GetEnv("TEST_STR", "fallback", nil); got != "value" {
		t.Fatalf("got %q", got)
	}
	if got := GetEnv("TEST_STR_MISSING", "fallback", nil); got != "fallback" {
		t.Fatalf("got %q", got)
	}
	t.Setenv("TEST_STR_BLANK", "   ")
	if got := GetEnv("TEST_STR_BLANK", "fallback", nil); got != "fallback" {
		t.Fatalf("blank value: got %q", got)
	}
}

func TestGetEnvAsInt(t *testing.T) {
	t.Setenv("TEST_INT", " 42 ")
	if got := GetEnvAsInt("TEST_INT", 7, nil); got != 42 {
		t.Fatalf("got %d", got)
	}
	t.Setenv("TEST_INT_BAD", "not-a-number")
	if got := GetEnvAsInt("TEST_INT_BAD", 7, nil); got != 7 {
		t.Fatalf("got %d", got)
	}
	if got := GetEnvAsInt("TEST_INT_MISSING", 7, nil); got != 7 {
		t.Fatalf("got %d", got)
	}
}

func TestGetEnvAsBool(t *testing.T) {
	tests := []struct {
		val  string
		want bool
	}{
		{"1", true}, {"true", true}, {"YES", true}, {"on", true},
		{"0", false}, {"false", false}, {"No", false}, {"off", false},
		{"maybe", true}, // falls back to the default
	}
	for _, tt := range tests {
		t.Setenv("TEST_BOOL", tt.val)
		if got := GetEnvAsBool("TEST_BOOL", true, nil); got != tt.want {
			t.Fatalf("GetEnvAsBool(%q) = %v, want %v", tt.val, got, tt.want)
		}
	}
}
