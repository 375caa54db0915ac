/*

This file contains the position ledger: an append-only arena of LP positions
per pool addressed by stable integer handles.

Entries are never deleted or compacted. Removal tombstones an entry by
flipping Active to false, and the flip is terminal. The per-pool cap counts
all-time entries, tombstoned ones included. The owner index is maintained on
creation only and may reference tombstoned entries; consumers must check
Active when iterating. External callers hold indexes as identity, so none of
this is safe to "fix".

The Book is not internally locked. The engine serializes all access to a
pool's book behind the pool's shard mutex.

*/

package ledger

import (
	"fmt"
	"time"

	sdkmath "cosmossdk.io/math"

	"github.com/Ternder001/AutoRebalancingHook/internal/types"
)

// Config bounds position creation.
type Config struct {
	MaxPositionsPerPool int
	MinLiquidityAmount  sdkmath.Int
}

// Book holds one pool's positions and the owner secondary index.
type Book struct {
	cfg     Config
	entries []types.Position
	byOwner map[string][]int
}

// NewBook creates an empty position book for a single pool.
func NewBook(cfg Config) *Book {
	return &Book{
		cfg:     cfg,
		byOwner: make(map[string][]int),
	}
}

// Len returns the all-time number of entries, tombstoned ones included.
func (b *Book) Len() int {
	return len(b.entries)
}

// CanAppend checks the creation constraints without mutating the book.
func (b *Book) CanAppend(liquidity sdkmath.Int) error {
	if liquidity.LT(b.cfg.MinLiquidityAmount) {
		return fmt.Errorf("%w: %s < minimum %s",
			types.ErrInsufficientLiquidityAmount, liquidity, b.cfg.MinLiquidityAmount)
	}
	if len(b.entries) >= b.cfg.MaxPositionsPerPool {
		return fmt.Errorf("%w: pool holds %d all-time entries",
			types.ErrMaxPositionsReached, len(b.entries))
	}
	return nil
}

// Append records a new active position and indexes it under its owner,
// returning the position's stable index. Callers are expected to have run
// CanAppend first; Append re-checks anyway.
func (b *Book) Append(owner string, tickLower, tickUpper int64, liquidity sdkmath.Int, now time.Time) (int, error) {
	if err := b.CanAppend(liquidity); err != nil {
		return 0, err
	}
	idx := len(b.entries)
	b.entries = append(b.entries, types.Position{
		Owner:         owner,
		Liquidity:     liquidity,
		TickLower:     tickLower,
		TickUpper:     tickUpper,
		EntryTime:     now,
		LastRebalance: now,
		FeesClaimed:   sdkmath.LegacyZeroDec(),
		Active:        true,
	})
	b.byOwner[owner] = append(b.byOwner[owner], idx)
	return idx, nil
}

// At returns a copy of the position at idx.
func (b *Book) At(idx int) (types.Position, error) {
	if idx < 0 || idx >= len(b.entries) {
		return types.Position{}, fmt.Errorf("%w: index %d", types.ErrPositionNotFound, idx)
	}
	return b.entries[idx], nil
}

// Authorize verifies the position exists and belongs to owner.
func (b *Book) Authorize(owner string, idx int) (types.Position, error) {
	pos, err := b.At(idx)
	if err != nil {
		return types.Position{}, err
	}
	if pos.Owner != owner {
		return types.Position{}, fmt.Errorf("%w: position %d is not owned by %s",
			types.ErrUnauthorized, idx, owner)
	}
	return pos, nil
}

// Deactivate tombstones the position at idx. Tombstoning is terminal.
func (b *Book) Deactivate(idx int) error {
	if idx < 0 || idx >= len(b.entries) {
		return fmt.Errorf("%w: index %d", types.ErrPositionNotFound, idx)
	}
	if !b.entries[idx].Active {
		return fmt.Errorf("%w: position %d", types.ErrPositionNotActive, idx)
	}
	b.entries[idx].Active = false
	return nil
}

// Reposition moves an active position to a new tick range after the
// external liquidity legs have completed.
func (b *Book) Reposition(idx int, tickLower, tickUpper int64, now time.Time) error {
	if idx < 0 || idx >= len(b.entries) {
		return fmt.Errorf("%w: index %d", types.ErrPositionNotFound, idx)
	}
	p := &b.entries[idx]
	p.TickLower = tickLower
	p.TickUpper = tickUpper
	p.LastRebalance = now
	return nil
}

// SettleFees computes the position's pro-rata share of the pool's fee
// revenue accumulator and pays out the portion not yet claimed.
//
//	share       = liquidity / liquidityDepth
//	entitlement = feeRevenue * share
//	delta       = entitlement - feesClaimed
//
// A zero liquidity depth fails with ErrInsufficientLiquidity. When the
// entitlement has shrunk below what was already claimed (liquidity share
// diluted between settlements), the delta clamps to zero and the claimed
// amount is left untouched, so claims stay monotonic.
func (b *Book) SettleFees(owner string, idx int, feeRevenue, liquidityDepth sdkmath.LegacyDec) (sdkmath.LegacyDec, error) {
	if _, err := b.Authorize(owner, idx); err != nil {
		return sdkmath.LegacyZeroDec(), err
	}
	if liquidityDepth.IsZero() {
		return sdkmath.LegacyZeroDec(), fmt.Errorf("%w: pool has zero liquidity depth",
			types.ErrInsufficientLiquidity)
	}
	p := &b.entries[idx]
	share := sdkmath.LegacyNewDecFromInt(p.Liquidity).Quo(liquidityDepth)
	entitlement := feeRevenue.Mul(share)
	if entitlement.LTE(p.FeesClaimed) {
		return sdkmath.LegacyZeroDec(), nil
	}
	delta := entitlement.Sub(p.FeesClaimed)
	p.FeesClaimed = entitlement
	return delta, nil
}

// Positions returns a copy of the full position list, tombstones included.
func (b *Book) Positions() []types.Position {
	out := make([]types.Position, len(b.entries))
	copy(out, b.entries)
	return out
}

// ActiveIndexes returns the indexes of all active positions in order.
func (b *Book) ActiveIndexes() []int {
	var idxs []int
	for i := range b.entries {
		if b.entries[i].Active {
			idxs = append(idxs, i)
		}
	}
	return idxs
}

// IndexesOf returns a copy of the owner's position index list. The list may
// reference tombstoned positions; it is never compacted.
func (b *Book) IndexesOf(owner string) []int {
	idxs := b.byOwner[owner]
	out := make([]int, len(idxs))
	copy(out, idxs)
	return out
}
