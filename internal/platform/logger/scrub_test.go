package logger

import (
	"strings"
	"testing"
)

func TestScrubberRedactsAndHashes(t *testing.T) {
	s := &scrubber{enabled: true, salt: "pepper"}
	out := s.apply([]interface{}{"auth_token", "abc", "user_id", "42", "status", "ok"})
	if len(out) != 6 {
		t.Fatalf("len: want=6 got=%d", len(out))
	}
	if out[1] != redacted {
		t.Fatalf("token should be redacted, got %v", out[1])
	}
	hashed, _ := out[3].(string)
	if !strings.HasPrefix(hashed, "hash:") || strings.Contains(hashed, "42") {
		t.Fatalf("user_id should be hashed, got %q", hashed)
	}
	if out[5] != "ok" {
		t.Fatalf("plain value changed: %v", out[5])
	}
}

func TestScrubberDisabledPassesThrough(t *testing.T) {
	s := &scrubber{enabled: false}
	in := []interface{}{"password", "hunter2"}
	out := s.apply(in)
	if out[1] != "hunter2" {
		t.Fatalf("disabled scrubber should not touch values")
	}
}

func TestScrubberOddKV(t *testing.T) {
	s := &scrubber{enabled: true}
	out := s.apply([]interface{}{"a", 1, "dangling"})
	if len(out) != 3 || out[2] != "dangling" {
		t.Fatalf("unexpected output: %#v", out)
	}
}
