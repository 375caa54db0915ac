/*

This file contains the authorized-rebalancer set gating the manual
rebalance entry point.

The trust chain is self-extending: any authorized address may add or remove
any other, including the bootstrap owner. Nothing protects the owner from
deauthorization; first-mover trust is assumed.

*/

package access

import (
	"fmt"
	"sync"

	"github.com/Ternder001/AutoRebalancingHook/internal/types"
)

// List is the set of addresses allowed to trigger a manual rebalance.
type List struct {
	mu      sync.RWMutex
	members map[string]struct{}
}

// New creates a list seeded with the deploying owner.
func New(owner string) *List {
	return &List{
		members: map[string]struct{}{owner: {}},
	}
}

// Authorized reports whether addr may trigger a manual rebalance.
func (l *List) Authorized(addr string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.members[addr]
	return ok
}

// Add grants rebalance rights to addr. The caller must already hold them.
func (l *List) Add(caller, addr string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.members[caller]; !ok {
		return fmt.Errorf("%w: %s is not an authorized rebalancer", types.ErrUnauthorized, caller)
	}
	l.members[addr] = struct{}{}
	return nil
}

// Remove revokes rebalance rights from addr. The caller must be authorized;
// removing yourself or the bootstrap owner is allowed.
func (l *List) Remove(caller, addr string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.members[caller]; !ok {
		return fmt.Errorf("%w: %s is not an authorized rebalancer", types.ErrUnauthorized, caller)
	}
	delete(l.members, addr)
	return nil
}

// Members returns a snapshot of the authorized set.
func (l *List) Members() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]string, 0, len(l.members))
	for m := range l.members {
		out = append(out, m)
	}
	return out
}
