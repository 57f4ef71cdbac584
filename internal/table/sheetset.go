package table

// Sheet pairs a sheet name with its loaded table.
type Sheet struct {
	Name  string
	Table *Table
}

// SheetSet maps sheet names to tables, remembering insertion order.
type SheetSet struct {
	names  []string
	tables map[string]*Table
}

// NewSheetSet returns an empty set.
func NewSheetSet() *SheetSet {
	return &SheetSet{tables: make(map[string]*Table)}
}

// Add stores t under name. Adding a name twice replaces the table but keeps
// the position of the first insertion.
func (s *SheetSet) Add(name string, t *Table) {
	if _, ok := s.tables[name]; !ok {
		s.names = append(s.names, name)
	}
	s.tables[name] = t
}

// Get returns the table stored under name.
func (s *SheetSet) Get(name string) (*Table, bool) {
	t, ok := s.tables[name]
	return t, ok
}

// Len returns the number of sheets.
func (s *SheetSet) Len() int {
	return len(s.names)
}

// Names returns sheet names in insertion order.
func (s *SheetSet) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Sheets returns the sheets in insertion order.
func (s *SheetSet) Sheets() []Sheet {
	out := make([]Sheet, len(s.names))
	for i, name := range s.names {
		out[i] = Sheet{Name: name, Table: s.tables[name]}
	}
	return out
}

// FirstNonEmpty returns the first sheet that has at least one row.
func (s *SheetSet) FirstNonEmpty() (Sheet, bool) {
	for _, name := range s.names {
		if t := s.tables[name]; t.NumRows() > 0 {
			return Sheet{Name: name, Table: t}, true
		}
	}
	return Sheet{}, false
}
