package platform_test

import (
	"context"
	"errors"
	"testing"

	"github.com/ashaw315/hotdog-diaries-sub008/internal/domain"
	"github.com/ashaw315/hotdog-diaries-sub008/internal/platform"
)

type stubAdapter struct {
	platform domain.Platform
}

func (s *stubAdapter) Platform() domain.Platform               { return s.platform }
func (s *stubAdapter) TestConnection(_ context.Context) error  { return nil }
func (s *stubAdapter) Scan(_ context.Context, _ platform.ScanConfig) ([]platform.Item, error) {
	return nil, nil
}

func TestRegistry_Register(t *testing.T) {
	registry := platform.NewRegistry()

	if err := registry.Register(&stubAdapter{platform: domain.PlatformReddit}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := registry.Register(&stubAdapter{platform: domain.PlatformReddit}); err == nil {
		t.Error("Register() accepted a duplicate platform")
	}
	if err := registry.Register(&stubAdapter{platform: "myspace"}); err == nil {
		t.Error("Register() accepted an unknown platform")
	}
}

func TestRegistry_EnabledOrder(t *testing.T) {
	registry := platform.NewRegistry()

	// Register out of order; Enabled must return canonical order.
	for _, p := range []domain.Platform{domain.PlatformPixabay, domain.PlatformReddit, domain.PlatformGiphy} {
		if err := registry.Register(&stubAdapter{platform: p}); err != nil {
			t.Fatalf("Register(%s) error = %v", p, err)
		}
	}

	want := []domain.Platform{domain.PlatformReddit, domain.PlatformGiphy, domain.PlatformPixabay}
	got := registry.Enabled()
	if len(got) != len(want) {
		t.Fatalf("Enabled() returned %d platforms, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Enabled()[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestRegistry_SetEnabled(t *testing.T) {
	registry := platform.NewRegistry()
	if err := registry.Register(&stubAdapter{platform: domain.PlatformMastodon}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	registry.SetEnabled(domain.PlatformMastodon, false)

	if _, err := registry.Get(domain.PlatformMastodon); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Get() on disabled platform error = %v, want ErrNotFound", err)
	}
	if len(registry.Enabled()) != 0 {
		t.Error("Enabled() still lists a disabled platform")
	}

	registry.SetEnabled(domain.PlatformMastodon, true)
	if _, err := registry.Get(domain.PlatformMastodon); err != nil {
		t.Errorf("Get() after re-enable error = %v", err)
	}
}
