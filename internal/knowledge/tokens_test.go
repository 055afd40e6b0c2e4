package knowledge

import (
	"os"
	"testing"
)

// TestTiktokenCounter exercises the real BPE encoding. It needs the
// tiktoken vocabulary, which the library fetches and caches on first
// use, so the test is opt-in.
func TestTiktokenCounter(t *testing.T) {
	if os.Getenv("SKYDOCS_TIKTOKEN_TESTS") == "" {
		t.Skip("set SKYDOCS_TIKTOKEN_TESTS=1 to run (fetches BPE vocabulary)")
	}

	counter, err := NewTiktokenCounter("gpt-3.5-turbo")
	if err != nil {
		t.Fatalf("NewTiktokenCounter: %v", err)
	}

	if n := counter.CountTokens(""); n != 0 {
		t.Errorf("empty string counted as %d tokens", n)
	}

	short := counter.CountTokens("oil")
	long := counter.CountTokens("the recommended oil grade for this engine is listed in section four")
	if short <= 0 || long <= short {
		t.Errorf("counts not monotonic: short=%d long=%d", short, long)
	}
}

// TestTiktokenCounter_UnknownModelFallsBack verifies the cl100k_base
// fallback path. Also opt-in for the same reason.
func TestTiktokenCounter_UnknownModelFallsBack(t *testing.T) {
	if os.Getenv("SKYDOCS_TIKTOKEN_TESTS") == "" {
		t.Skip("set SKYDOCS_TIKTOKEN_TESTS=1 to run (fetches BPE vocabulary)")
	}

	counter, err := NewTiktokenCounter("not-a-real-model")
	if err != nil {
		t.Fatalf("fallback failed: %v", err)
	}
	if n := counter.CountTokens("hello world"); n <= 0 {
		t.Errorf("fallback counter returned %d", n)
	}
}
