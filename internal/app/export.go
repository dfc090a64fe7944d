package app

import (
	"time"

	"github.com/doree-nobuu/adventures/internal/stats"
	"github.com/doree-nobuu/adventures/internal/types"
)

// Export is a full dump of the app's data.
type Export struct {
	ExportedAt   time.Time           `json:"exportedAt" yaml:"exportedAt"`
	Mode         string              `json:"mode" yaml:"mode"`
	Adventures   []types.Adventure   `json:"adventures" yaml:"adventures"`
	Surprises    []types.Surprise    `json:"surprises" yaml:"surprises"`
	Tasks        []types.Task        `json:"tasks" yaml:"tasks"`
	Achievements []types.Achievement `json:"achievements" yaml:"achievements"`
	Stats        stats.Stats         `json:"stats" yaml:"stats"`
}

// Export collects every collection.
func (a *App) Export() Export {
	return Export{
		ExportedAt:   a.clock(),
		Mode:         a.Session.Mode().String(),
		Adventures:   a.Adventures.List(),
		Surprises:    a.Surprises.List(),
		Tasks:        a.Tasks.List(),
		Achievements: a.Tracker.All(),
		Stats:        a.Stats(),
	}
}
