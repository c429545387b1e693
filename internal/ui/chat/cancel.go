// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"sync"
)

// =============================================================================
// CANCEL FUNCTION MANAGEMENT
// =============================================================================

// cancelManager holds the cancel function of the turn in flight.
// IMPORTANT: keep it behind a pointer in Model so bubbletea's value copies
// of the model share one mutex.
type cancelManager struct {
	mu         sync.Mutex
	cancelFunc context.CancelFunc
}

func newCancelManager() *cancelManager {
	return &cancelManager{}
}

// set stores fn, cancelling any function it replaces.
func (cm *cancelManager) set(fn context.CancelFunc) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	if cm.cancelFunc != nil {
		cm.cancelFunc()
	}
	cm.cancelFunc = fn
}

// cancel invokes the stored function and clears it. Safe to call with none
// set.
func (cm *cancelManager) cancel() bool {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	if cm.cancelFunc == nil {
		return false
	}
	cm.cancelFunc()
	cm.cancelFunc = nil
	return true
}

// =============================================================================
// MODEL METHODS
// =============================================================================

// newTurnContext returns the context for a new turn and registers its
// cancel function.
func (m *Model) newTurnContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancelMgr.set(cancel)
	return ctx
}

// cancelTurn cancels the turn in flight, if any. A finished turn must also
// call it so its context is released.
func (m *Model) cancelTurn() bool {
	return m.cancelMgr.cancel()
}
