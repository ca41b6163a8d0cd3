package registry

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/go-containerregistry/pkg/authn"
	"github.com/google/go-containerregistry/pkg/name"
	"github.com/google/go-containerregistry/pkg/v1/remote"
)

// userAgent identifies dockhand to registry APIs.
const userAgent = "dockhand"

// Authenticator establishes per-target registry sessions prior to push.
// Each target is authenticated independently; a failure against one target
// is a fatal configuration error for the whole run, and no push happens to
// any target unless all declared targets authenticate.
type Authenticator struct {
	// DaemonLogin feeds the credentials to the docker daemon so the buildx
	// push phase can use them. Injected so tests run without a daemon.
	DaemonLogin func(ctx context.Context, host, user, pass string) error

	// checkPush probes push permission against the registry API.
	// Overridable in tests; defaults to remote.CheckPushPermission.
	checkPush func(ref name.Reference, kc authn.Keychain, t http.RoundTripper) error
}

// NewAuthenticator returns an authenticator using the real registry API and
// the given daemon login function.
func NewAuthenticator(daemonLogin func(ctx context.Context, host, user, pass string) error) *Authenticator {
	return &Authenticator{
		DaemonLogin: daemonLogin,
		checkPush:   remote.CheckPushPermission,
	}
}

// Authenticate exchanges the target's credential reference for a usable
// session: it resolves the secret from the environment, probes push
// permission against the registry, and logs the daemon in. The secret value
// never appears in any error or log line.
func (a *Authenticator) Authenticate(ctx context.Context, t Target) error {
	user, pass, err := t.Credentials()
	if err != nil {
		return err
	}

	ref, err := name.ParseReference(fmt.Sprintf("%s/%s:%s", t.Host, t.Path, t.Tags[0]))
	if err != nil {
		return fmt.Errorf("registry %s: invalid reference: %w", t, err)
	}

	check := a.checkPush
	if check == nil {
		check = remote.CheckPushPermission
	}
	kc := staticKeychain{user: user, pass: pass}
	if err := check(ref, kc, remote.DefaultTransport); err != nil {
		return fmt.Errorf("registry %s: push permission denied for user %s: %w", t, user, err)
	}

	if a.DaemonLogin != nil {
		if err := a.DaemonLogin(ctx, t.Host, user, pass); err != nil {
			return fmt.Errorf("registry %s: %w", t, err)
		}
	}

	return nil
}

// staticKeychain resolves every resource to one fixed credential pair.
type staticKeychain struct {
	user string
	pass string
}

func (k staticKeychain) Resolve(authn.Resource) (authn.Authenticator, error) {
	return authn.FromConfig(authn.AuthConfig{
		Username: k.user,
		Password: k.pass,
	}), nil
}
