package nrppa

import (
	"sort"
	"sync"

	"github.com/danmuck/nrppa/internal/protocol/messages"
)

// TRPEntry is what the CU-CP knows about one TRP.
type TRPEntry struct {
	ID   messages.TRPID
	DU   DUIndex
	Info messages.TRPInformation
}

// TRPMap maps TRP ids to the DU that owns them and their last reported information.
type TRPMap struct {
	mu      sync.RWMutex
	entries map[messages.TRPID]TRPEntry
}

func NewTRPMap() *TRPMap {
	return &TRPMap{entries: make(map[messages.TRPID]TRPEntry)}
}

// Merge records every TRP of infos as owned by du, replacing older information.
func (m *TRPMap) Merge(du DUIndex, infos []messages.TRPInformation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, info := range infos {
		m.entries[info.ID] = TRPEntry{ID: info.ID, DU: du, Info: info}
	}
}

func (m *TRPMap) Lookup(id messages.TRPID) (TRPEntry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[id]
	return e, ok
}

// ContainsAll reports whether every id is known. It is false for an empty list.
func (m *TRPMap) ContainsAll(ids []messages.TRPID) bool {
	if len(ids) == 0 {
		return false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, id := range ids {
		if _, ok := m.entries[id]; !ok {
			return false
		}
	}
	return true
}

// Infos returns the stored information for ids, skipping unknown ones.
func (m *TRPMap) Infos(ids []messages.TRPID) []messages.TRPInformation {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]messages.TRPInformation, 0, len(ids))
	for _, id := range ids {
		if e, ok := m.entries[id]; ok {
			out = append(out, e.Info)
		}
	}
	return out
}

func (m *TRPMap) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Snapshot returns every entry ordered by TRP id.
func (m *TRPMap) Snapshot() []TRPEntry {
	m.mu.RLock()
	out := make([]TRPEntry, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e)
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// NotifierRegistry maps DU indexes to their F1 notifiers.
type NotifierRegistry struct {
	mu        sync.RWMutex
	notifiers map[DUIndex]DUNotifier
}

func NewNotifierRegistry() *NotifierRegistry {
	return &NotifierRegistry{notifiers: make(map[DUIndex]DUNotifier)}
}

// Register stores n for du. A nil notifier is ignored.
func (r *NotifierRegistry) Register(du DUIndex, n DUNotifier) {
	if n == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifiers[du] = n
}

func (r *NotifierRegistry) Lookup(du DUIndex) (DUNotifier, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n, ok := r.notifiers[du]
	return n, ok
}

// DUs returns the registered DU indexes in ascending order.
func (r *NotifierRegistry) DUs() []DUIndex {
	r.mu.RLock()
	out := make([]DUIndex, 0, len(r.notifiers))
	for du := range r.notifiers {
		out = append(out, du)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// RegisteredDU is one row of a NotifierRegistry snapshot.
type RegisteredDU struct {
	Index    DUIndex `json:"index"`
	Notifier string  `json:"notifier"`
}

// Snapshot returns every registered DU with its notifier name, read under one lock.
func (r *NotifierRegistry) Snapshot() []RegisteredDU {
	r.mu.RLock()
	out := make([]RegisteredDU, 0, len(r.notifiers))
	for du, n := range r.notifiers {
		out = append(out, RegisteredDU{Index: du, Notifier: n.Name()})
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}
