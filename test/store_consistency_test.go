//go:build integration
// +build integration

package test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/MrEthical07/goSession/registry"
)

// Index consistency under concurrent register/dispose churn: every token the
// group lists must resolve, and every disposed token must be gone from the
// group.
func TestGroupIndexConsistencyUnderChurn(t *testing.T) {
	eng, _, cleanup := newIntegrationEngine(t)
	defer cleanup()

	reg := registry.New(eng, "")
	ctx := context.Background()

	const workers = 8
	const perWorker = 25

	var mu sync.Mutex
	kept := make(map[string]struct{})

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				identity := fmt.Sprintf("user-%d", w%2)
				token, err := reg.Register(ctx, "", makeSubject(identity))
				if err != nil {
					t.Errorf("Register failed: %v", err)
					return
				}
				if i%3 == 0 {
					if err := reg.Dispose(ctx, token); err != nil {
						t.Errorf("Dispose failed: %v", err)
						return
					}
					continue
				}
				mu.Lock()
				kept[token] = struct{}{}
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()

	total := 0
	for _, identity := range []string{"user-0", "user-1"} {
		group, err := reg.RetrieveGroup(ctx, registry.CategoryFor(identity))
		if err != nil {
			t.Fatalf("RetrieveGroup failed: %v", err)
		}
		for token, sub := range group {
			if _, ok := kept[token]; !ok {
				t.Fatalf("group lists disposed or unknown token %q", token)
			}
			if sub.IdentityID != identity {
				t.Fatalf("token %q filed under wrong identity %q", token, sub.IdentityID)
			}
			live, err := reg.Retrieve(ctx, token)
			if err != nil {
				t.Fatalf("Retrieve failed: %v", err)
			}
			if live == nil {
				t.Fatalf("group member %q does not resolve", token)
			}
		}
		total += len(group)
	}

	if total != len(kept) {
		t.Fatalf("groups list %d tokens, want %d", total, len(kept))
	}
}
