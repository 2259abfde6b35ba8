package chainrpc

import (
	"sync"

	"github.com/pkg/errors"
)

var ErrBackendNotRegistered = errors.New("no chain rpc registered for backend")

// Registry maps backend codes to their chain rpc, populated once at
// startup. It replaces per-call dynamic lookup of backend adapters.
type Registry struct {
	mux  *sync.RWMutex
	rpcs map[string]IChainRpc
}

func NewRegistry() *Registry {
	return &Registry{
		mux:  &sync.RWMutex{},
		rpcs: map[string]IChainRpc{},
	}
}

func (r *Registry) Register(backendCode string, rpc IChainRpc) {
	r.mux.Lock()
	defer r.mux.Unlock()
	r.rpcs[backendCode] = rpc
}

func (r *Registry) Get(backendCode string) (IChainRpc, error) {
	r.mux.RLock()
	defer r.mux.RUnlock()

	rpc, ok := r.rpcs[backendCode]
	if !ok {
		return nil, errors.Wrap(ErrBackendNotRegistered, backendCode)
	}
	return rpc, nil
}
