package registry

import (
	"context"
	"fmt"

	"github.com/google/go-containerregistry/pkg/authn"
	"github.com/google/go-containerregistry/pkg/crane"
)

// DigestFunc resolves the manifest digest of a remote image ref.
// The default implementation queries the registry; tests inject fakes.
type DigestFunc func(ctx context.Context, t Target, ref string) (string, error)

// RemoteDigest queries the registry for the digest a ref points at,
// authenticating with the target's credentials.
func RemoteDigest(ctx context.Context, t Target, ref string) (string, error) {
	user, pass, err := t.Credentials()
	if err != nil {
		return "", err
	}

	opts := []crane.Option{
		crane.WithContext(ctx),
		crane.WithUserAgent(userAgent),
		crane.WithAuth(authn.FromConfig(authn.AuthConfig{
			Username: user,
			Password: pass,
		})),
	}

	digest, err := crane.Digest(ref, opts...)
	if err != nil {
		return "", fmt.Errorf("resolving digest of %s: %w", ref, err)
	}
	return digest, nil
}

// VerifyDigests confirms that every (tag, target) pair pushed in this run
// points at one identical image digest — the cross-target consistency
// contract of a single logical publish. Returns the common digest.
func VerifyDigests(ctx context.Context, targets []Target, digestOf DigestFunc) (string, error) {
	if digestOf == nil {
		digestOf = RemoteDigest
	}

	var common string
	var first string
	for _, t := range targets {
		for _, ref := range t.Refs() {
			d, err := digestOf(ctx, t, ref)
			if err != nil {
				return "", err
			}
			if common == "" {
				common = d
				first = ref
				continue
			}
			if d != common {
				return "", fmt.Errorf("digest mismatch: %s has %s but %s has %s", first, common, ref, d)
			}
		}
	}

	return common, nil
}
