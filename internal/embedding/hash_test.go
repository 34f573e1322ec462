package embedding

import (
	"context"
	"math"
	"testing"
)

func dot(a, b []float32) float64 {
	var s float64
	for i := range a {
		s += float64(a[i] * b[i])
	}
	return s
}

func TestHashEmbedder_Deterministic(t *testing.T) {
	e := NewHashEmbedder(64)
	ctx := context.Background()
	a, _ := e.Embed(ctx, "Sum insured for Policy 101")
	b, _ := e.Embed(ctx, "sum INSURED for policy 101")
	if len(a) != 64 {
		t.Fatalf("len = %d", len(a))
	}
	if math.Abs(dot(a, b)-1) > 1e-5 {
		t.Errorf("case-insensitive texts should embed identically, dot=%f", dot(a, b))
	}
}

func TestHashEmbedder_SharedWordsAreCloser(t *testing.T) {
	e := NewHashEmbedder(256)
	ctx := context.Background()
	q, _ := e.Embed(ctx, "sum insured for policy 101")
	near, _ := e.Embed(ctx, "Policy 101: Sum insured 5,00,000.")
	far, _ := e.Embed(ctx, "Claims must be filed within thirty days of discharge.")
	if dot(q, near) <= dot(q, far) {
		t.Errorf("expected near (%f) > far (%f)", dot(q, near), dot(q, far))
	}
}

func TestHashEmbedder_EmptyTextIsZero(t *testing.T) {
	e := NewHashEmbedder(16)
	v, err := e.Embed(context.Background(), "  ...  ")
	if err != nil {
		t.Fatal(err)
	}
	for _, x := range v {
		if x != 0 {
			t.Fatal("expected zero vector")
		}
	}
}

func TestHashEmbedder_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewHashEmbedder(8).Embed(ctx, "x"); err == nil {
		t.Error("expected context error")
	}
}

func TestWords(t *testing.T) {
	got := Words("Policy-101: Sum insured ₹5,00,000.")
	want := []string{"policy", "101", "sum", "insured", "5", "00", "000"}
	if len(got) != len(want) {
		t.Fatalf("Words = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("word %d = %q, want %q", i, got[i], want[i])
		}
	}
}
