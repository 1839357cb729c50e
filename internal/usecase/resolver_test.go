package usecase

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/ryu-qqq/AuthHub-sub012/internal/core/domain"
)

func permission(service, method, pattern string) domain.EndpointPermission {
	return domain.EndpointPermission{
		ID:          fmt.Sprintf("%s-%s-%s", service, method, pattern),
		ServiceName: service,
		HTTPMethod:  method,
		PathPattern: pattern,
	}
}

func TestPermissionResolver_LiteralMatch(t *testing.T) {
	resolver := NewPermissionResolver(nil, nil, nil)

	if err := resolver.Replace([]domain.EndpointPermission{
		permission("catalog", "GET", "/api/v1/users"),
	}); err != nil {
		t.Fatalf("Replace returned error: %v", err)
	}

	if _, ok := resolver.Resolve("catalog", "GET", "/api/v1/users"); !ok {
		t.Fatalf("expected literal pattern to match its own path")
	}

	for _, path := range []string{"/api/v1/user", "/api/v1/users/42", "/api/v2/users"} {
		if _, ok := resolver.Resolve("catalog", "GET", path); ok {
			t.Fatalf("expected %s not to match", path)
		}
	}
}

func TestPermissionResolver_ParameterizedMatch(t *testing.T) {
	resolver := NewPermissionResolver(nil, nil, nil)

	if err := resolver.Replace([]domain.EndpointPermission{
		permission("catalog", "GET", "/api/v1/users/{id}"),
	}); err != nil {
		t.Fatalf("Replace returned error: %v", err)
	}

	if _, ok := resolver.Resolve("catalog", "GET", "/api/v1/users/42"); !ok {
		t.Fatalf("expected parameterized pattern to match one segment")
	}
	if _, ok := resolver.Resolve("catalog", "GET", "/api/v1/users"); ok {
		t.Fatalf("expected missing segment not to match")
	}
	if _, ok := resolver.Resolve("catalog", "GET", "/api/v1/users/42/roles"); ok {
		t.Fatalf("expected extra segment not to match")
	}
}

func TestPermissionResolver_FiltersByServiceAndMethod(t *testing.T) {
	resolver := NewPermissionResolver(nil, nil, nil)

	if err := resolver.Replace([]domain.EndpointPermission{
		permission("catalog", "GET", "/api/v1/items"),
	}); err != nil {
		t.Fatalf("Replace returned error: %v", err)
	}

	if _, ok := resolver.Resolve("catalog", "POST", "/api/v1/items"); ok {
		t.Fatalf("expected method mismatch to miss")
	}
	if _, ok := resolver.Resolve("billing", "GET", "/api/v1/items"); ok {
		t.Fatalf("expected service mismatch to miss")
	}
	if _, ok := resolver.Resolve("catalog", "get", "/api/v1/items"); !ok {
		t.Fatalf("expected method matching to be case-insensitive")
	}
}

func TestPermissionResolver_LiteralBeatsParameterized(t *testing.T) {
	resolver := NewPermissionResolver(nil, nil, nil)

	// Parameterized rule registered first; the literal one must still win on its
	// exact path.
	if err := resolver.Replace([]domain.EndpointPermission{
		permission("catalog", "GET", "/api/v1/users/{id}"),
		permission("catalog", "GET", "/api/v1/users/me"),
	}); err != nil {
		t.Fatalf("Replace returned error: %v", err)
	}

	matched, ok := resolver.Resolve("catalog", "GET", "/api/v1/users/me")
	if !ok {
		t.Fatalf("expected a match")
	}
	if matched.PathPattern != "/api/v1/users/me" {
		t.Fatalf("expected literal pattern to win, got %s", matched.PathPattern)
	}

	matched, ok = resolver.Resolve("catalog", "GET", "/api/v1/users/42")
	if !ok {
		t.Fatalf("expected a match")
	}
	if matched.PathPattern != "/api/v1/users/{id}" {
		t.Fatalf("expected parameterized pattern for non-literal path, got %s", matched.PathPattern)
	}
}

func TestPermissionResolver_RegistrationOrderBreaksTies(t *testing.T) {
	resolver := NewPermissionResolver(nil, nil, nil)

	if err := resolver.Replace([]domain.EndpointPermission{
		permission("catalog", "GET", "/api/{version}/users"),
		permission("catalog", "GET", "/api/{v}/users"),
	}); err != nil {
		t.Fatalf("Replace returned error: %v", err)
	}

	matched, ok := resolver.Resolve("catalog", "GET", "/api/v1/users")
	if !ok {
		t.Fatalf("expected a match")
	}
	if matched.PathPattern != "/api/{version}/users" {
		t.Fatalf("expected first registered pattern to win ties, got %s", matched.PathPattern)
	}
}

func TestPermissionResolver_ReplaceValidatesRules(t *testing.T) {
	resolver := NewPermissionResolver(nil, nil, nil)

	err := resolver.Replace([]domain.EndpointPermission{
		permission("catalog", "GET", "no-leading-slash"),
	})
	if err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestPermissionResolver_ReloadFromSource(t *testing.T) {
	source := &stubPermissionSource{permissions: []domain.EndpointPermission{
		permission("catalog", "GET", "/api/v1/items"),
		permission("billing", "POST", "/api/v1/invoices"),
	}}
	resolver := NewPermissionResolver(source, nil, nil)

	if err := resolver.Reload(context.Background()); err != nil {
		t.Fatalf("Reload returned error: %v", err)
	}
	if resolver.Len() != 2 {
		t.Fatalf("expected 2 rules loaded, got %d", resolver.Len())
	}

	listed := resolver.ListByService("billing")
	if len(listed) != 1 || listed[0].PathPattern != "/api/v1/invoices" {
		t.Fatalf("unexpected billing rules: %+v", listed)
	}
}

func TestPermissionResolver_ConcurrentResolveAndReplace(t *testing.T) {
	resolver := NewPermissionResolver(nil, nil, nil)

	rules := []domain.EndpointPermission{
		permission("catalog", "GET", "/api/v1/items"),
		permission("catalog", "GET", "/api/v1/items/{id}"),
	}
	if err := resolver.Replace(rules); err != nil {
		t.Fatalf("Replace returned error: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 500; j++ {
				if _, ok := resolver.Resolve("catalog", "GET", "/api/v1/items/7"); !ok {
					t.Error("expected match under concurrent replace")
					return
				}
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for j := 0; j < 200; j++ {
			if err := resolver.Replace(rules); err != nil {
				t.Errorf("Replace returned error: %v", err)
				return
			}
		}
	}()

	wg.Wait()
}
