package auth

import (
	"context"
	"testing"
)

func TestIdentityContextRoundTrip(t *testing.T) {
	ctx := context.Background()
	if _, ok := IdentityFromContext(ctx); ok {
		t.Fatal("empty context must not carry an identity")
	}

	identity := Identity{ID: 7, Email: "u@example.com", Role: RoleTeamlead}
	ctx = ContextWithIdentity(ctx, identity)

	got, ok := IdentityFromContext(ctx)
	if !ok {
		t.Fatal("expected identity in context")
	}
	if got != identity {
		t.Fatalf("identity mangled: %+v", got)
	}
}
