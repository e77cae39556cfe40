package simulation

import (
	"context"
	"regexp"
	"sync"

	"go.uber.org/zap"

	"github.com/06wuuntt/NTUT-Coursesystem/internal/schedule"
	"github.com/06wuuntt/NTUT-Coursesystem/pkg/kvstore"
)

// DefaultProfile is used when a client supplies no profile header.
const DefaultProfile = "default"

var profilePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// Registry hands out one Store per simulation profile, creating and
// rehydrating stores lazily. Profiles isolate browsers sharing one server.
type Registry struct {
	kv        kvstore.Store
	catalog   *schedule.Catalog
	keyPrefix string
	logger    *zap.Logger

	mu       sync.Mutex
	stores   map[string]*Store
	onCreate []func(profile string, snapshot Snapshot)
}

// NewRegistry builds an empty registry.
func NewRegistry(kv kvstore.Store, catalog *schedule.Catalog, keyPrefix string, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		kv:        kv,
		catalog:   catalog,
		keyPrefix: keyPrefix,
		logger:    logger,
		stores:    make(map[string]*Store),
	}
}

// Get returns the store for a profile, creating it on first use. Invalid
// profile names fall back to the default profile rather than erroring; the
// header is a convenience, not a security boundary.
func (r *Registry) Get(ctx context.Context, profile string) *Store {
	if !profilePattern.MatchString(profile) {
		profile = DefaultProfile
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if store, ok := r.stores[profile]; ok {
		return store
	}

	store := NewStore(ctx, r.kv, r.catalog, r.keyPrefix, profile, r.logger.With(zap.String("profile", profile)))
	for _, fn := range r.onCreate {
		fn := fn
		p := profile
		store.Subscribe(func(snapshot Snapshot) { fn(p, snapshot) })
	}
	r.stores[profile] = store
	return store
}

// Subscribe attaches the callback to every current and future store.
func (r *Registry) Subscribe(fn func(profile string, snapshot Snapshot)) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for profile, store := range r.stores {
		p := profile
		store.Subscribe(func(snapshot Snapshot) { fn(p, snapshot) })
	}
	r.onCreate = append(r.onCreate, fn)
}
