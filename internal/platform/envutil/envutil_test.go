package envutil

import (
	"testing"
	"time"
)

func TestReaders(t *testing.T) {
	t.Setenv("ENVUTIL_INT", " 12 ")
	t.Setenv("ENVUTIL_BAD_INT", "twelve")
	t.Setenv("ENVUTIL_FLOAT", "0.25")
	t.Setenv("ENVUTIL_BOOL", "off")
	t.Setenv("ENVUTIL_SECS", "30")
	t.Setenv("ENVUTIL_ZERO_SECS", "0")

	if Int("ENVUTIL_INT", 1) != 12 {
		t.Fatalf("Int")
	}
	if Int("ENVUTIL_BAD_INT", 7) != 7 {
		t.Fatalf("Int fallback")
	}
	if Float("ENVUTIL_FLOAT", 1) != 0.25 {
		t.Fatalf("Float")
	}
	if Bool("ENVUTIL_BOOL", true) {
		t.Fatalf("Bool")
	}
	if !Bool("ENVUTIL_MISSING_BOOL", true) {
		t.Fatalf("Bool default")
	}
	if Seconds("ENVUTIL_SECS", time.Minute) != 30*time.Second {
		t.Fatalf("Seconds")
	}
	if Seconds("ENVUTIL_ZERO_SECS", time.Minute) != time.Minute {
		t.Fatalf("Seconds fallback")
	}
	if String("ENVUTIL_MISSING", "d") != "d" {
		t.Fatalf("String default")
	}
}
