package cachekey

import (
	"strings"
	"testing"
)

func TestDerive(t *testing.T) {
	// Deterministic: same text gives same key
	k1 := Derive("cache", "How to build a REST API?")
	k2 := Derive("cache", "How to build a REST API?")
	if k1 != k2 {
		t.Errorf("same text should give same key: %q vs %q", k1, k2)
	}
	if !strings.HasPrefix(k1, "cache:") {
		t.Errorf("key should have namespace prefix: %q", k1)
	}
	// 64 hex chars after the prefix
	if len(k1) != len("cache:")+64 {
		t.Errorf("unexpected key length %d: %q", len(k1), k1)
	}
}

func TestDerive_knownDigest(t *testing.T) {
	// sha256("abc")
	want := "cache:ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got := Derive("cache", "abc"); got != want {
		t.Errorf("Derive(abc) = %s, want %s", got, want)
	}
}

func TestDerive_differentTexts(t *testing.T) {
	if Derive("cache", "a") == Derive("cache", "A") {
		t.Error("texts differing in case should give different keys")
	}
	if Derive("cache", "a") == Derive("cache", "a ") {
		t.Error("texts differing in whitespace should give different keys")
	}
}

func TestDerive_namespace(t *testing.T) {
	if Derive("", "q") != Derive(DefaultNamespace, "q") {
		t.Error("empty namespace should fall back to the default")
	}
	if Derive("tenant", "q") == Derive("cache", "q") {
		t.Error("namespaces should not collide")
	}
}

func TestIndexKey(t *testing.T) {
	if got := IndexKey(""); got != "cache:keys" {
		t.Errorf("IndexKey(\"\") = %q", got)
	}
	if got := IndexKey("llm"); got != "llm:keys" {
		t.Errorf("IndexKey(llm) = %q", got)
	}
}
