package prompt

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// Entry is a named template stored in the library.
type Entry struct {
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Text        string    `json:"text"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Library manages named templates stored on disk.
type Library struct {
	Dir     string  `json:"dir"`
	Entries []Entry `json:"templates"`
}

const libraryFile = "templates.json"

// LoadLibrary loads the template library from dir. A missing library is empty.
func LoadLibrary(dir string) (*Library, error) {
	lib := &Library{Dir: dir}
	path := filepath.Join(dir, libraryFile)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return lib, nil
		}
		return nil, fmt.Errorf("could not read library: %w", err)
	}

	if err := json.Unmarshal(data, &lib.Entries); err != nil {
		return nil, fmt.Errorf("could not parse library: %w", err)
	}
	return lib, nil
}

// Save persists the library to disk.
func (lib *Library) Save() error {
	if err := os.MkdirAll(lib.Dir, 0755); err != nil {
		return fmt.Errorf("could not create library directory: %w", err)
	}

	data, err := json.MarshalIndent(lib.Entries, "", "  ")
	if err != nil {
		return fmt.Errorf("could not marshal library: %w", err)
	}

	return os.WriteFile(filepath.Join(lib.Dir, libraryFile), data, 0644)
}

// Add stores a template under name, replacing the text of an existing entry.
func (lib *Library) Add(name, description, text string) (*Entry, error) {
	if name == "" {
		return nil, fmt.Errorf("template name is required")
	}

	now := time.Now()
	for i := range lib.Entries {
		if lib.Entries[i].Name == name {
			lib.Entries[i].Text = text
			if description != "" {
				lib.Entries[i].Description = description
			}
			lib.Entries[i].UpdatedAt = now
			if err := lib.Save(); err != nil {
				return nil, err
			}
			return &lib.Entries[i], nil
		}
	}

	lib.Entries = append(lib.Entries, Entry{
		Name:        name,
		Description: description,
		Text:        text,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err := lib.Save(); err != nil {
		return nil, err
	}
	return &lib.Entries[len(lib.Entries)-1], nil
}

// Remove deletes a template from the library by name.
func (lib *Library) Remove(name string) error {
	for i, e := range lib.Entries {
		if e.Name == name {
			lib.Entries = append(lib.Entries[:i], lib.Entries[i+1:]...)
			return lib.Save()
		}
	}
	return fmt.Errorf("template %q not found", name)
}

// Get returns a template by name.
func (lib *Library) Get(name string) (*Entry, error) {
	for i := range lib.Entries {
		if lib.Entries[i].Name == name {
			e := lib.Entries[i]
			return &e, nil
		}
	}
	return nil, fmt.Errorf("template %q not found", name)
}

// List returns all templates sorted by name.
func (lib *Library) List() []Entry {
	sorted := make([]Entry, len(lib.Entries))
	copy(sorted, lib.Entries)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Name < sorted[j].Name
	})
	return sorted
}

// DefaultLibraryDir returns the default template library directory.
func DefaultLibraryDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".xlprompt", "templates")
}
