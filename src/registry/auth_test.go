package registry

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/google/go-containerregistry/pkg/authn"
	"github.com/google/go-containerregistry/pkg/name"
)

func authTarget(t *testing.T) Target {
	t.Helper()
	t.Setenv("ACME_USER", "ci-bot")
	t.Setenv("ACME_PASS", "hunter2")
	return Target{
		Host:       "registry.example.com",
		Path:       "org/app",
		Tags:       []string{"1.4.2"},
		credPrefix: "ACME",
	}
}

func TestAuthenticate(t *testing.T) {
	target := authTarget(t)

	var probed, loggedIn bool
	a := &Authenticator{
		DaemonLogin: func(ctx context.Context, host, user, pass string) error {
			loggedIn = true
			if host != "registry.example.com" || user != "ci-bot" || pass != "hunter2" {
				t.Errorf("daemon login got %s/%s", host, user)
			}
			return nil
		},
		checkPush: func(ref name.Reference, kc authn.Keychain, rt http.RoundTripper) error {
			probed = true
			if got := ref.String(); got != "registry.example.com/org/app:1.4.2" {
				t.Errorf("probe ref: got %q", got)
			}
			auth, err := kc.Resolve(ref.Context())
			if err != nil {
				t.Fatalf("keychain resolve: %v", err)
			}
			cfg, err := auth.Authorization()
			if err != nil {
				t.Fatalf("authorization: %v", err)
			}
			if cfg.Username != "ci-bot" || cfg.Password != "hunter2" {
				t.Errorf("keychain carries wrong credentials")
			}
			return nil
		},
	}

	if err := a.Authenticate(context.Background(), target); err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if !probed || !loggedIn {
		t.Fatalf("probe=%v login=%v, want both", probed, loggedIn)
	}
}

func TestAuthenticate_PermissionDenied(t *testing.T) {
	target := authTarget(t)

	a := &Authenticator{
		DaemonLogin: func(context.Context, string, string, string) error {
			t.Fatal("daemon login must not run after a denied probe")
			return nil
		},
		checkPush: func(name.Reference, authn.Keychain, http.RoundTripper) error {
			return errors.New("401 Unauthorized")
		},
	}

	err := a.Authenticate(context.Background(), target)
	if err == nil {
		t.Fatal("expected error")
	}
	if strings.Contains(err.Error(), "hunter2") {
		t.Fatalf("error leaks the secret: %v", err)
	}
}

func TestAuthenticate_MissingCredentials(t *testing.T) {
	t.Setenv("ACME_USER", "")
	t.Setenv("ACME_PASS", "")
	target := Target{Host: "registry.example.com", Path: "org/app", Tags: []string{"main"}, credPrefix: "ACME"}

	a := &Authenticator{
		checkPush: func(name.Reference, authn.Keychain, http.RoundTripper) error {
			t.Fatal("probe must not run without credentials")
			return nil
		},
	}
	if err := a.Authenticate(context.Background(), target); err == nil {
		t.Fatal("expected error for missing credentials")
	}
}
