package domain

import (
	"reflect"
	"testing"
)

func TestNewlyCovered(t *testing.T) {
	prev := []string{"cells use ATP", "mitochondria produce energy"}
	curr := []string{"mitochondria produce energy", "krebs cycle", "cells use ATP", "electron transport"}
	got := NewlyCovered(curr, prev)
	want := []string{"krebs cycle", "electron transport"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("NewlyCovered = %v, want %v", got, want)
	}
}

func TestNewlyCoveredFirstAttemptEmptyPrior(t *testing.T) {
	got := NewlyCovered([]string{"a", "b"}, nil)
	if !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("NewlyCovered with no prior = %v", got)
	}
}

func TestNewlyCoveredOrderInsensitive(t *testing.T) {
	prev := []string{"b", "a"}
	got := NewlyCovered([]string{"a", "b"}, prev)
	if len(got) != 0 {
		t.Fatalf("reordered covered points should not be new: %v", got)
	}
}

func TestNewlyCoveredTrimsWhitespaceOnly(t *testing.T) {
	prev := []string{" the water cycle "}
	got := NewlyCovered([]string{"the water cycle"}, prev)
	if len(got) != 0 {
		t.Fatalf("trim-equal points should not be new: %v", got)
	}
	// Exact string match beyond trimming: paraphrases stay distinct.
	got = NewlyCovered([]string{"water cycles"}, prev)
	if len(got) != 1 {
		t.Fatalf("paraphrased point should be new: %v", got)
	}
}

func TestNewlyCoveredDeduplicates(t *testing.T) {
	got := NewlyCovered([]string{"a", "a", ""}, nil)
	if !reflect.DeepEqual(got, []string{"a"}) {
		t.Fatalf("NewlyCovered should drop duplicates and blanks: %v", got)
	}
}

func TestNewlyCoveredIdempotentRederivation(t *testing.T) {
	prev := []string{"x", "y"}
	curr := []string{"y", "z"}
	first := NewlyCovered(curr, prev)
	second := NewlyCovered(curr, prev)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("re-derivation differs: %v vs %v", first, second)
	}
}
