package manager

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"craftd/pkg/codec"
	"craftd/pkg/logger"
	"craftd/pkg/utils/constants"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"go.uber.org/zap"
)

var namePattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_-]{0,31}$`)

// Registry holds all known server instances keyed by id, preserving
// creation order for listing. Lookups hand out the shared *ServerInstance;
// the instance's own locking takes over from there.
type Registry struct {
	mu       sync.Mutex
	servers  *orderedmap.OrderedMap[string, *ServerInstance]
	basePath string
	logger   *zap.SugaredLogger
}

func NewRegistry(basePath string) *Registry {
	return &Registry{
		servers:  orderedmap.New[string, *ServerInstance](),
		basePath: basePath,
		logger:   logger.Logging("registry"),
	}
}

// Create provisions a new instance directory with default properties and an
// accepted EULA, then registers it. The id must match the allowed name
// pattern and be unused.
func (r *Registry) Create(id string) (*ServerInstance, error) {
	if !namePattern.MatchString(id) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidName, id)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.servers.Get(id); ok {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyExists, id)
	}

	dir := filepath.Join(r.basePath, id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", id, err)
	}

	props := defaultProperties()
	props["motd"] = fmt.Sprintf("Welcome to %s", id)
	if err := props.Write(dir); err != nil {
		return nil, fmt.Errorf("create %s: %w", id, err)
	}

	eula := filepath.Join(dir, "eula.txt")
	if err := os.WriteFile(eula, []byte("eula=true\n"), 0o644); err != nil {
		return nil, fmt.Errorf("create %s: %w", id, err)
	}

	inst := NewInstance(id, dir)
	r.servers.Set(id, inst)
	r.logger.Infof("Created server %s at %s", id, dir)
	return inst, nil
}

// Get returns the registered instance or ErrNotFound.
func (r *Registry) Get(id string) (*ServerInstance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	inst, ok := r.servers.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return inst, nil
}

// Remove force-stops the instance if needed and unregisters it. The
// directory on disk is left alone; only the registration goes away.
func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	inst, ok := r.servers.Get(id)
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	// Stop can block for the full escalation window, so it runs outside
	// the registry lock.
	if inst.Status().Active() {
		if err := inst.Stop(true); err != nil {
			return err
		}
	}

	r.mu.Lock()
	r.servers.Delete(id)
	r.mu.Unlock()

	r.logger.Infof("Removed server %s", id)
	return nil
}

// List returns one summary per instance in creation order.
func (r *Registry) List() []codec.ServerInfo {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]codec.ServerInfo, 0, r.servers.Len())
	for pair := r.servers.Oldest(); pair != nil; pair = pair.Next() {
		inst := pair.Value
		out = append(out, codec.ServerInfo{
			ID:      inst.ID,
			Status:  inst.Status(),
			Players: inst.PlayerCount(),
		})
	}
	return out
}

// All returns the registered instances in creation order.
func (r *Registry) All() []*ServerInstance {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*ServerInstance, 0, r.servers.Len())
	for pair := r.servers.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Value)
	}
	return out
}

// LoadExisting scans the base path and registers every directory that
// contains a server artifact. Directories without one are skipped.
func (r *Registry) LoadExisting() error {
	entries, err := os.ReadDir(r.basePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("scan %s: %w", r.basePath, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		id := entry.Name()
		if !namePattern.MatchString(id) {
			continue
		}
		if _, ok := r.servers.Get(id); ok {
			continue
		}

		dir := filepath.Join(r.basePath, id)
		jar := filepath.Join(dir, constants.ServerJarName)
		if _, err := os.Stat(jar); err != nil {
			continue
		}

		r.servers.Set(id, NewInstance(id, dir))
		r.logger.Infof("Discovered server %s at %s", id, dir)
	}

	return nil
}
