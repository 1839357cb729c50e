package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/ryu-qqq/AuthHub-sub012/internal/core/domain"
	"github.com/ryu-qqq/AuthHub-sub012/internal/core/port"
)

// PermissionResolver matches inbound requests against registered endpoint
// permission rules. Reads are lock-free: the whole candidate set is swapped
// atomically on sync, so a reader never observes a partially updated set.
type PermissionResolver struct {
	source  port.PermissionSource
	metrics port.ResolverMetrics
	logger  *zap.Logger
	index   atomic.Pointer[permissionIndex]
}

type routeKey struct {
	service string
	method  string
}

type permissionIndex struct {
	routes    map[routeKey][]domain.EndpointPermission
	byService map[string][]domain.EndpointPermission
	total     int
}

// NewPermissionResolver constructs a resolver. The source feeds Reload and may be
// nil when rules are only pushed through Replace; metrics are optional.
func NewPermissionResolver(source port.PermissionSource, metrics port.ResolverMetrics, logger *zap.Logger) *PermissionResolver {
	if logger == nil {
		logger = zap.NewNop()
	}

	resolver := &PermissionResolver{
		source:  source,
		metrics: metrics,
		logger:  logger,
	}
	resolver.index.Store(newPermissionIndex(nil))
	return resolver
}

// Replace swaps the full candidate set. Registration order is preserved, but
// within one (service, method) group candidates with more literal segments are
// tried first, so a literal pattern beats a parameterized one regardless of the
// order an administrator registered them in.
func (r *PermissionResolver) Replace(permissions []domain.EndpointPermission) error {
	for i, permission := range permissions {
		if err := permission.Validate(); err != nil {
			return fmt.Errorf("permission %d (%s %s): %w", i, permission.HTTPMethod, permission.PathPattern, err)
		}
	}

	r.index.Store(newPermissionIndex(permissions))
	return nil
}

// Resolve returns the single matching rule for a concrete request, or false when
// nothing matches. Callers treat no-match as deny-by-default.
func (r *PermissionResolver) Resolve(serviceName, httpMethod, requestPath string) (domain.EndpointPermission, bool) {
	index := r.index.Load()

	key := routeKey{
		service: strings.TrimSpace(serviceName),
		method:  strings.ToUpper(strings.TrimSpace(httpMethod)),
	}

	for _, candidate := range index.routes[key] {
		if candidate.MatchesPath(requestPath) {
			if r.metrics != nil {
				r.metrics.IncMatch()
			}
			return candidate, true
		}
	}

	if r.metrics != nil {
		r.metrics.IncNoMatch()
	}
	return domain.EndpointPermission{}, false
}

// ListByService returns the registered rules for one service in registration order.
func (r *PermissionResolver) ListByService(serviceName string) []domain.EndpointPermission {
	index := r.index.Load()
	permissions := index.byService[strings.TrimSpace(serviceName)]

	out := make([]domain.EndpointPermission, len(permissions))
	copy(out, permissions)
	return out
}

// Len returns how many rules the active candidate set holds.
func (r *PermissionResolver) Len() int {
	return r.index.Load().total
}

// Reload pulls the current rule set from the source and swaps it in.
func (r *PermissionResolver) Reload(ctx context.Context) error {
	if r.source == nil {
		return fmt.Errorf("permission source not configured")
	}

	permissions, err := r.source.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("load endpoint permissions: %w", err)
	}

	if err := r.Replace(permissions); err != nil {
		return fmt.Errorf("replace endpoint permissions: %w", err)
	}

	r.logger.Info("endpoint permissions reloaded", zap.Int("count", len(permissions)))
	return nil
}

// StartSync reloads the rule set on the supplied interval until the context ends.
// A failed reload keeps serving the previous snapshot.
func (r *PermissionResolver) StartSync(ctx context.Context, interval time.Duration) {
	if r.source == nil || interval <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := r.Reload(ctx); err != nil {
					r.logger.Warn("endpoint permission sync failed", zap.Error(err))
				}
			}
		}
	}()
}

func newPermissionIndex(permissions []domain.EndpointPermission) *permissionIndex {
	index := &permissionIndex{
		routes:    make(map[routeKey][]domain.EndpointPermission),
		byService: make(map[string][]domain.EndpointPermission),
		total:     len(permissions),
	}

	for _, permission := range permissions {
		key := routeKey{
			service: strings.TrimSpace(permission.ServiceName),
			method:  strings.ToUpper(strings.TrimSpace(permission.HTTPMethod)),
		}
		index.routes[key] = append(index.routes[key], permission)
		index.byService[key.service] = append(index.byService[key.service], permission)
	}

	for key, candidates := range index.routes {
		sort.SliceStable(candidates, func(i, j int) bool {
			return candidates[i].LiteralSegments() > candidates[j].LiteralSegments()
		})
		index.routes[key] = candidates
	}

	return index
}
