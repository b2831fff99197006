// Package settings defines where the calibrator keeps its persisted state.
// System settings (calibration) and user settings (output configuration)
// are stored separately; the byte layout belongs to each Store.
package settings

import (
	"sync"

	"loopcal-go/errcode"
	"loopcal-go/types"
)

// ErrNotFound is returned when nothing has been stored yet.
var ErrNotFound = &errcode.E{C: errcode.NotConfigured, Op: "settings", Msg: "nothing stored"}

type Store interface {
	LoadSystem() (types.SystemSettings, error)
	SaveSystem(types.SystemSettings) error
	LoadUser() (types.UserSettings, error)
	SaveUser(types.UserSettings) error
}

// Memory keeps settings in RAM. Values are copied in and out.
type Memory struct {
	mu     sync.Mutex
	system *types.SystemSettings
	user   *types.UserSettings
}

func NewMemory() *Memory { return &Memory{} }

func (m *Memory) LoadSystem() (types.SystemSettings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.system == nil {
		return types.SystemSettings{}, ErrNotFound
	}
	return *m.system, nil
}

func (m *Memory) SaveSystem(s types.SystemSettings) error {
	m.mu.Lock()
	m.system = &s
	m.mu.Unlock()
	return nil
}

func (m *Memory) LoadUser() (types.UserSettings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.user == nil {
		return types.UserSettings{}, ErrNotFound
	}
	return copyUser(*m.user), nil
}

func (m *Memory) SaveUser(u types.UserSettings) error {
	u = copyUser(u)
	m.mu.Lock()
	m.user = &u
	m.mu.Unlock()
	return nil
}

func copyUser(u types.UserSettings) types.UserSettings {
	u.Setpoints = append([]int32(nil), u.Setpoints...)
	return u
}
