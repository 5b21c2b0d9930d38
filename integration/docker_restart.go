//go:build integration
// +build integration

package integration

import (
	"context"
	"os/exec"
	"testing"
)

// restartStorefront bounces the storefront container; carts must survive it
// when a persistent backend and a fixed VISITOR_SECRET are configured.
func restartStorefront(t *testing.T, ctx context.Context) {
	t.Helper()

	cmd := exec.CommandContext(ctx, "docker", "compose", "restart", "storefront")
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("docker compose restart storefront failed: %v\n%s", err, string(out))
	}
}
