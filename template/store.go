package template

import (
	"sort"
	"sync"
)

// Store keeps named templates and owns their CRUD operations.
type Store struct {
	mu        sync.RWMutex
	templates map[string]string
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{templates: map[string]string{}}
}

// BuiltinStore returns a store seeded with the built-in cover-letter
// templates.
func BuiltinStore() *Store {
	s := NewStore()
	for name, text := range builtinTemplates {
		s.Put(name, text)
	}
	return s
}

// Put stores template text under name, replacing any previous entry.
func (s *Store) Put(name, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.templates[name] = text
}

// Get returns the template text stored under name.
func (s *Store) Get(name string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	text, ok := s.templates[name]
	return text, ok
}

// Remove deletes the template stored under name.
func (s *Store) Remove(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.templates, name)
}

// List returns all template names in lexical order.
func (s *Store) List() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.templates))
	for name := range s.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var builtinTemplates = map[string]string{
	"classic": `Dear Hiring Manager,

I am writing to express my interest in the {{position}} position at {{company}}. With my background in {{techstack}}, I am confident I would be a valuable addition to your team.

Throughout my career I have focused on writing maintainable software and shipping it reliably. I would welcome the chance to bring that experience to {{company}}.

Thank you for your time and consideration. I look forward to hearing from you.

Sincerely,`,

	"short": `Dear Hiring Manager,

I would like to apply for the {{position}} role at {{company}}. My experience with {{techstack}} matches what you are looking for, and I would be glad to discuss how I can contribute.

Best regards,`,

	"enthusiastic": `Dear Hiring Manager,

When I saw the opening for a {{position}} at {{company}}, I knew I had to apply. I have followed {{company}} for some time and admire the work your team ships.

My day-to-day toolbox is {{techstack}}, and I enjoy using it to turn rough ideas into dependable products. I would love to do that work with you.

Sincerely,`,
}
