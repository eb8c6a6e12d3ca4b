package lsp

import (
	"context"
	"fmt"
	"sync"
)

// Manager owns one Bridge per (root, language) pair and starts them
// lazily, the way the Builder needs them (§4.2: "subprocess-per-(root,
// language)").
type Manager struct {
	servers map[string]ServerCommand
	mu      sync.Mutex
	bridges map[string]*Bridge
}

// NewManager builds a Manager over the given server commands, keyed by
// language.
func NewManager(servers []ServerCommand) *Manager {
	byLang := make(map[string]ServerCommand, len(servers))
	for _, s := range servers {
		byLang[s.Language] = s
	}
	return &Manager{servers: byLang, bridges: map[string]*Bridge{}}
}

// Bridge returns the running bridge for (root, language), starting it on
// first use. Returns ErrNoLanguageServer if the language has no
// configured executable -- callers must treat that as a Resolve-class
// degrade, not a fatal error (§7).
func (m *Manager) Bridge(ctx context.Context, root, language string) (*Bridge, error) {
	key := root + "\x1f" + language
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.bridges[key]; ok {
		return b, nil
	}
	sc, ok := m.servers[language]
	if !ok {
		return nil, ErrNoLanguageServer
	}
	b, err := Start(ctx, root, sc)
	if err != nil {
		return nil, fmt.Errorf("lsp: starting %s bridge for %s: %w", language, root, err)
	}
	m.bridges[key] = b
	return b, nil
}

// StopAll shuts down every bridge the manager has started.
func (m *Manager) StopAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.bridges {
		_ = b.Stop()
	}
	m.bridges = map[string]*Bridge{}
}
