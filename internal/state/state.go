// Package state tracks grove-managed environments in a JSON file at the
// repository root. The file is rewritten after every mutation; concurrent
// grove invocations are not coordinated, the last writer wins.
package state

import (
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"sync"
	"time"

	groveerrors "github.com/zhubert/grove/internal/errors"
)

// FileName is the state file name, relative to the repository root.
const FileName = ".grove.state.json"

// Environment is one managed worktree environment.
type Environment struct {
	Path         string         `json:"path"`
	Branch       string         `json:"branch"`
	CreatedAt    time.Time      `json:"created_at"`
	PortMappings map[string]int `json:"port_mappings"`
}

// Record pairs an environment with its identifier for listing.
type Record struct {
	ID string
	Environment
}

// State holds every managed environment plus the ports they occupy.
type State struct {
	Environments   map[string]Environment `json:"environments"`
	AllocatedPorts []int                  `json:"allocated_ports"`

	mu       sync.RWMutex
	filePath string
}

// Load reads the state file from the repository root, or returns an empty
// state if the file does not exist yet.
func Load(repoRoot string) (*State, error) {
	path := filepath.Join(repoRoot, FileName)

	st := &State{
		Environments:   make(map[string]Environment),
		AllocatedPorts: []int{},
		filePath:       path,
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return st, nil
	}
	if err != nil {
		return nil, groveerrors.StateLoadFailed(path, err)
	}

	if err := json.Unmarshal(data, st); err != nil {
		return nil, groveerrors.StateLoadFailed(path, err)
	}

	st.ensureInitialized()
	return st, nil
}

// ensureInitialized ensures the map and slice are initialized (not nil)
// after unmarshaling. Only called from Load before the State is shared.
func (s *State) ensureInitialized() {
	if s.Environments == nil {
		s.Environments = make(map[string]Environment)
	}
	if s.AllocatedPorts == nil {
		s.AllocatedPorts = []int{}
	}
}

// Path returns the state file location.
func (s *State) Path() string {
	return s.filePath
}

// Save writes the state to disk.
func (s *State) Save() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.persist()
}

// persist writes the file. Callers must hold the mutex.
func (s *State) persist() error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return groveerrors.StateSaveFailed(s.filePath, err)
	}
	if err := os.WriteFile(s.filePath, data, 0644); err != nil {
		return groveerrors.StateSaveFailed(s.filePath, err)
	}
	return nil
}

// Add records an environment under id, marks its ports as allocated, and
// saves. An existing record under the same id is replaced.
func (s *State) Add(id string, env Environment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Environments[id] = env
	for _, port := range env.PortMappings {
		if !slices.Contains(s.AllocatedPorts, port) {
			s.AllocatedPorts = append(s.AllocatedPorts, port)
		}
	}

	return s.persist()
}

// Remove deletes the environment under id, releases its ports, and saves.
// Returns false if no such environment was recorded.
func (s *State) Remove(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	env, ok := s.Environments[id]
	if !ok {
		return false, nil
	}

	delete(s.Environments, id)
	for _, port := range env.PortMappings {
		if i := slices.Index(s.AllocatedPorts, port); i >= 0 {
			s.AllocatedPorts = append(s.AllocatedPorts[:i], s.AllocatedPorts[i+1:]...)
		}
	}

	return true, s.persist()
}

// Get returns the environment recorded under id.
func (s *State) Get(id string) (Environment, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	env, ok := s.Environments[id]
	return env, ok
}

// List returns every environment sorted by id.
func (s *State) List() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]Record, 0, len(s.Environments))
	for id, env := range s.Environments {
		records = append(records, Record{ID: id, Environment: env})
	}
	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })
	return records
}

// Ports returns a copy of the allocated port list.
func (s *State) Ports() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ports := make([]int, len(s.AllocatedPorts))
	copy(ports, s.AllocatedPorts)
	return ports
}

// IsPortAllocated reports whether port is held by any environment.
func (s *State) IsPortAllocated(port int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Contains(s.AllocatedPorts, port)
}
