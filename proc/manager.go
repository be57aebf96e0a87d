// File: proc/manager.go
// Package proc supervises local processes for a discovery node: named
// commands loaded from a config file, started and stopped as a group.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package proc

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/momentics/landisco/internal/logx"
)

// configFile mirrors the on-disk layout:
//
//	{"localhost": {"printer": {"cmd": "python printer.py"}}}
type configFile struct {
	Localhost map[string]struct {
		Cmd string `json:"cmd"`
	} `json:"localhost"`
}

// Manager owns a set of named processes. Closing the manager stops all
// of them.
type Manager struct {
	mu    sync.Mutex
	procs map[string]*Process
	log   *logx.Logger
}

func NewManager() *Manager {
	return &Manager{
		procs: make(map[string]*Process),
		log:   logx.New("proc"),
	}
}

// LoadConfig reads process definitions from a JSON config file.
func (m *Manager) LoadConfig(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	var cfg configFile
	if err := json.Unmarshal(b, &cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	for name, p := range cfg.Localhost {
		if err := m.Create(name, p.Cmd); err != nil {
			return err
		}
	}
	return nil
}

// Create registers a process under a name unique to this manager.
func (m *Manager) Create(name, cmd string) error {
	if cmd == "" {
		return fmt.Errorf("process %s: empty command", name)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.procs[name]; ok {
		return fmt.Errorf("process with the same name exists: %s", name)
	}
	m.procs[name] = NewProcess(name, cmd)
	return nil
}

// Empty reports whether no processes are registered.
func (m *Manager) Empty() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.procs) == 0
}

// Names returns the registered process names, sorted.
func (m *Manager) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.procs))
	for name := range m.procs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Start starts the named processes, or all of them when no names are
// given. Unknown names are skipped.
func (m *Manager) Start(names ...string) {
	for _, p := range m.selected(names) {
		m.log.Infof("starting: %s", p.Name())
		if err := p.Start(); err != nil {
			m.log.Errorf("start %s: %v", p.Name(), err)
		}
	}
}

// Stop stops the named processes, or all of them when no names are
// given. Unknown names are skipped.
func (m *Manager) Stop(names ...string) {
	for _, p := range m.selected(names) {
		m.log.Infof("stopping: %s", p.Name())
		if err := p.Stop(); err != nil {
			m.log.Errorf("stop %s: %v", p.Name(), err)
		}
	}
}

// Running reports whether the named process is registered and alive.
func (m *Manager) Running(name string) bool {
	m.mu.Lock()
	p := m.procs[name]
	m.mu.Unlock()
	return p != nil && p.Running()
}

// Close stops every process.
func (m *Manager) Close() error {
	m.Stop()
	return nil
}

func (m *Manager) selected(names []string) []*Process {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(names) == 0 {
		for name := range m.procs {
			names = append(names, name)
		}
		sort.Strings(names)
	}
	out := make([]*Process, 0, len(names))
	for _, name := range names {
		if p, ok := m.procs[name]; ok {
			out = append(out, p)
		}
	}
	return out
}
