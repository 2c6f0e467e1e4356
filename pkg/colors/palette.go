// Package colors hands out calendar colour ids to projects, recycling the
// least recently used one once all eleven are taken.
package colors

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"
)

const (
	paletteFile = "project_colors.json"
	// NoProject is the graphite colour used for items without a project.
	NoProject = "8"
	paletteSize = 11
)

// hex holds the Google Calendar event colours by id.
var hex = map[string]string{
	"1":  "#7986cb",
	"2":  "#33b679",
	"3":  "#8e24aa",
	"4":  "#e67c73",
	"5":  "#f6bf26",
	"6":  "#f4511e",
	"7":  "#039be5",
	"8":  "#616161",
	"9":  "#3f51b5",
	"10": "#0b8043",
	"11": "#d50000",
}

// Hex returns the display colour of a calendar colour id.
func Hex(id string) string {
	if h, ok := hex[id]; ok {
		return h
	}
	return hex[NoProject]
}

type ProjectState struct {
	ColorID  string    `json:"color_id"`
	LastUsed time.Time `json:"last_used"`
}

type Palette struct {
	Path     string                   `json:"-"`
	Projects map[string]*ProjectState `json:"projects"`
	now      func() time.Time
	mu       sync.Mutex
	dirty    bool
}

// NewPalette loads the palette stored under dir, if any.
func NewPalette(dir string) (*Palette, error) {
	p := &Palette{
		Path:     filepath.Join(dir, paletteFile),
		Projects: make(map[string]*ProjectState),
		now:      time.Now,
	}
	if _, err := os.Stat(p.Path); err == nil {
		if err := p.Load(); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (p *Palette) Load() error {
	f, err := os.Open(p.Path)
	if err != nil {
		return err
	}
	defer f.Close()
	p.mu.Lock()
	defer p.mu.Unlock()
	return json.NewDecoder(f).Decode(&p.Projects)
}

func (p *Palette) Save() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.dirty {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(p.Path), 0700); err != nil {
		return err
	}
	f, err := os.Create(p.Path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := json.NewEncoder(f).Encode(p.Projects); err != nil {
		return err
	}
	p.dirty = false
	return nil
}

// ColorID returns the colour of a project, assigning one on first use.
func (p *Palette) ColorID(project string) string {
	if project == "" {
		return NoProject
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if state, ok := p.Projects[project]; ok {
		state.LastUsed = p.now()
		p.dirty = true
		return state.ColorID
	}
	return p.assign(project)
}

func (p *Palette) assign(project string) string {
	used := make(map[string]bool)
	for _, s := range p.Projects {
		used[s.ColorID] = true
	}
	for i := 1; i <= paletteSize; i++ {
		id := strconv.Itoa(i)
		if id == NoProject || used[id] {
			continue
		}
		p.Projects[project] = &ProjectState{ColorID: id, LastUsed: p.now()}
		p.dirty = true
		return id
	}

	// Full: recycle the least recently used colour.
	var oldest string
	var oldestTime time.Time
	for name, s := range p.Projects {
		if oldest == "" || s.LastUsed.Before(oldestTime) {
			oldest, oldestTime = name, s.LastUsed
		}
	}
	id := p.Projects[oldest].ColorID
	delete(p.Projects, oldest)
	p.Projects[project] = &ProjectState{ColorID: id, LastUsed: p.now()}
	p.dirty = true
	return id
}
