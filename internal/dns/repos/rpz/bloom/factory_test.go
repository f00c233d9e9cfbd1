package bloom

import "testing"

func TestFactory_RuleKeys(t *testing.T) {
	bf := NewFactory().New(16, 0.01)

	exact := []byte("ads.example.com")
	wild := []byte("*.tracker.example")

	if bf.MightContain(exact) || bf.MightContain(wild) {
		t.Fatalf("unexpected positive on empty filter")
	}
	bf.Add(exact)
	bf.Add(wild)
	if !bf.MightContain(exact) || !bf.MightContain(wild) {
		t.Fatalf("expected maybe for added keys")
	}
}

func TestFactory_EmptyCapacity(t *testing.T) {
	bf := NewFactory().New(0, 0)
	key := []byte("only.example")
	bf.Add(key)
	if !bf.MightContain(key) {
		t.Fatalf("expected maybe after add on minimally sized filter")
	}
}

func TestFactory_NoFalseNegatives(t *testing.T) {
	bf := NewFactory().New(1000, 0.01)
	keys := make([][]byte, 0, 1000)
	for i := 0; i < 1000; i++ {
		k := []byte("host" + string(rune('a'+i%26)) + "." + string(rune('a'+i/26%26)) + ".example")
		keys = append(keys, k)
		bf.Add(k)
	}
	for _, k := range keys {
		if !bf.MightContain(k) {
			t.Fatalf("false negative for %q", k)
		}
	}
}
