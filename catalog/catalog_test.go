package catalog

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"mcpchat/provider/testutil"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func TestCatalogExpiry(t *testing.T) {
	tests := []struct {
		name      string
		elapsed   time.Duration
		wantCalls int
	}{
		{name: "299 seconds serves cache", elapsed: 299 * time.Second, wantCalls: 1},
		{name: "301 seconds refetches", elapsed: 301 * time.Second, wantCalls: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := newClock()
			provider := testutil.NewMockToolProvider(testutil.TestMCPTools(), nil)
			c := New(provider, WithClock(clock.Now))

			if _, err := c.Tools(context.Background()); err != nil {
				t.Fatalf("first fetch: %v", err)
			}

			clock.Advance(tt.elapsed)
			tools, err := c.Tools(context.Background())
			if err != nil {
				t.Fatalf("second fetch: %v", err)
			}

			if got := provider.ListCalls(); got != tt.wantCalls {
				t.Errorf("provider called %d times, want %d", got, tt.wantCalls)
			}
			if len(tools) != len(testutil.TestMCPTools()) {
				t.Errorf("got %d tools, want %d", len(tools), len(testutil.TestMCPTools()))
			}
		})
	}
}

func TestCatalogInvalidate(t *testing.T) {
	provider := testutil.NewMockToolProvider(testutil.TestMCPTools(), nil)
	c := New(provider, WithClock(newClock().Now))

	c.Tools(context.Background())
	c.Invalidate()
	c.Tools(context.Background())

	if got := provider.ListCalls(); got != 2 {
		t.Errorf("provider called %d times after invalidate, want 2", got)
	}
}

func TestCatalogSetProviderInvalidates(t *testing.T) {
	clock := newClock()
	first := testutil.NewMockToolProvider(testutil.TestMCPTools()[:1], nil)
	second := testutil.NewMockToolProvider(testutil.TestMCPTools(), nil)
	c := New(first, WithClock(clock.Now))

	c.Tools(context.Background())
	before := c.Current().Version()

	c.SetProvider(second)

	if c.Current().Version() == before {
		t.Error("version should change on provider swap")
	}

	tools, err := c.Tools(context.Background())
	if err != nil {
		t.Fatalf("Tools: %v", err)
	}
	if len(tools) != 3 {
		t.Errorf("got %d tools, want the new provider's 3", len(tools))
	}
	if second.ListCalls() != 1 {
		t.Errorf("new provider called %d times, want 1", second.ListCalls())
	}
}

func TestHandleKeepsCapturedProvider(t *testing.T) {
	first := testutil.NewMockToolProvider(testutil.TestMCPTools()[:1], testutil.NewMockToolExecutor(nil))
	second := testutil.NewMockToolProvider(testutil.TestMCPTools(), nil)
	c := New(first, WithClock(newClock().Now))

	h := c.Current()
	c.SetProvider(second)

	tools, err := h.Tools(context.Background())
	if err != nil {
		t.Fatalf("Tools: %v", err)
	}
	if len(tools) != 1 {
		t.Errorf("stale handle got %d tools, want 1 from its own provider", len(tools))
	}
	if h.Executor() == nil {
		t.Error("handle should expose the captured provider as executor")
	}
	if second.ListCalls() != 0 {
		t.Error("stale handle must not touch the new provider")
	}

	// The stale fetch must not have populated the new provider's cache.
	c.Tools(context.Background())
	if second.ListCalls() != 1 {
		t.Errorf("new provider called %d times, want 1", second.ListCalls())
	}
}

func TestCatalogProviderErrors(t *testing.T) {
	boom := errors.New("connection refused")

	t.Run("no cache returns error", func(t *testing.T) {
		provider := &testutil.MockToolProvider{
			ListFunc: func(ctx context.Context) ([]mcptypes.Tool, error) { return nil, boom },
		}
		c := New(provider)

		_, err := c.Tools(context.Background())
		if !errors.Is(err, ErrProviderUnavailable) {
			t.Errorf("err = %v, want ErrProviderUnavailable", err)
		}
	})

	t.Run("expired cache is served on failure", func(t *testing.T) {
		clock := newClock()
		fail := false
		provider := &testutil.MockToolProvider{
			ListFunc: func(ctx context.Context) ([]mcptypes.Tool, error) {
				if fail {
					return nil, boom
				}
				return testutil.TestMCPTools(), nil
			},
		}
		c := New(provider, WithClock(clock.Now))

		c.Tools(context.Background())
		fail = true
		clock.Advance(10 * time.Minute)

		tools, err := c.Tools(context.Background())
		if err != nil {
			t.Fatalf("expected stale list, got error %v", err)
		}
		if len(tools) != 3 {
			t.Errorf("got %d tools, want 3", len(tools))
		}
	})
}

func TestCatalogNilProvider(t *testing.T) {
	c := New(nil)
	tools, err := c.Tools(context.Background())
	if err != nil || len(tools) != 0 {
		t.Errorf("nil provider: got %v, %v", tools, err)
	}
}

func TestCatalogExcluded(t *testing.T) {
	provider := testutil.NewMockToolProvider(testutil.TestMCPTools(), nil)
	c := New(provider, WithExcluded("delete_repo"))

	tools, _ := c.Tools(context.Background())
	for _, tool := range tools {
		if tool.Name == "delete_repo" {
			t.Error("excluded tool was returned")
		}
	}
	if len(tools) != 2 {
		t.Errorf("got %d tools, want 2", len(tools))
	}
}

func TestCatalogFind(t *testing.T) {
	provider := testutil.NewMockToolProvider(testutil.TestMCPTools(), nil)
	c := New(provider)

	if got := c.Find("weather"); len(got) != 0 {
		t.Errorf("Find before any fetch should be empty, got %d", len(got))
	}

	c.Tools(context.Background())

	got := c.Find("lsfl")
	if len(got) == 0 || got[0].Name != "list_files" {
		t.Errorf("Find(lsfl) = %v, want list_files first", got)
	}
	if all := c.Find(""); len(all) != 3 {
		t.Errorf("empty query returned %d tools, want 3", len(all))
	}
}
