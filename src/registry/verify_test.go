package registry

import (
	"context"
	"strings"
	"testing"
)

const testDigest = "sha256:0000000000000000000000000000000000000000000000000000000000000001"

func TestVerifyDigests_Consistent(t *testing.T) {
	targets := []Target{
		{Host: "a.example.com", Path: "org/app", Tags: []string{"1.4.2", "1.4"}},
		{Host: "b.example.com", Path: "org/app", Tags: []string{"1.4.2", "1.4"}},
	}

	var queried []string
	digestOf := func(ctx context.Context, tgt Target, ref string) (string, error) {
		queried = append(queried, ref)
		return testDigest, nil
	}

	digest, err := VerifyDigests(context.Background(), targets, digestOf)
	if err != nil {
		t.Fatalf("VerifyDigests: %v", err)
	}
	if digest != testDigest {
		t.Fatalf("digest: got %q", digest)
	}
	if len(queried) != 4 {
		t.Fatalf("queried %d refs, want all 4: %v", len(queried), queried)
	}
}

func TestVerifyDigests_Mismatch(t *testing.T) {
	targets := []Target{
		{Host: "a.example.com", Path: "org/app", Tags: []string{"1.4.2"}},
		{Host: "b.example.com", Path: "org/app", Tags: []string{"1.4.2"}},
	}

	digestOf := func(ctx context.Context, tgt Target, ref string) (string, error) {
		if tgt.Host == "b.example.com" {
			return "sha256:beef", nil
		}
		return testDigest, nil
	}

	_, err := VerifyDigests(context.Background(), targets, digestOf)
	if err == nil || !strings.Contains(err.Error(), "digest mismatch") {
		t.Fatalf("expected mismatch error, got %v", err)
	}
}

func TestVerifyDigests_QueryError(t *testing.T) {
	targets := []Target{{Host: "a.example.com", Path: "org/app", Tags: []string{"main"}}}

	digestOf := func(ctx context.Context, tgt Target, ref string) (string, error) {
		return "", context.DeadlineExceeded
	}

	if _, err := VerifyDigests(context.Background(), targets, digestOf); err == nil {
		t.Fatal("expected error")
	}
}
