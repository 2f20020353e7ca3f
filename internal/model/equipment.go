package model

// ComputerType classifies a computer as a workstation or a server
type ComputerType string

const (
	ComputerDesktop ComputerType = "desktop"
	ComputerServer  ComputerType = "server"
)

// Document is the whole equipment tree, persisted as a single JSON document.
// Nested nodes decode leniently: content that does not fit the typed fields
// is carried along and written back unchanged.
type Document struct {
	Areas []Area `json:"areas" yaml:"areas"`
	state nodeState
}

// Area is a top-level organizational grouping
type Area struct {
	ID        string     `json:"id,omitempty" yaml:"id,omitempty"`
	Name      string     `json:"name" yaml:"name"`
	Locations []Location `json:"locations" yaml:"locations"`
	state     nodeState
}

// Location ("sede") groups the computers of one site inside an area
type Location struct {
	ID        string     `json:"id,omitempty" yaml:"id,omitempty"`
	Name      string     `json:"name" yaml:"name"`
	Computers []Computer `json:"computers" yaml:"computers"`
	state     nodeState
}

// Computer is a leaf of the tree. ID is the only stable identifier and is
// assigned once, at creation.
type Computer struct {
	ID       int64        `json:"id" yaml:"id"`
	Name     string       `json:"name" yaml:"name"`
	Hostname string       `json:"hostname" yaml:"hostname"`
	Type     ComputerType `json:"type" yaml:"type"`
	Status   bool         `json:"status" yaml:"status"`
	state    nodeState
}

// ComputerFields holds the editable fields of a computer
type ComputerFields struct {
	Name     string       `json:"name" validate:"required"`
	Hostname string       `json:"hostname"`
	Type     ComputerType `json:"type" validate:"oneof=desktop server"`
	Status   bool         `json:"status"`
}

// NameFields is the body used to create or rename an area or a location
type NameFields struct {
	Name string `json:"name" validate:"required"`
}

func (d *Document) fields() []field {
	return []field{{key: "areas", ptr: &d.Areas, children: true}}
}

func (d *Document) UnmarshalJSON(data []byte) error {
	decodeNode(data, &d.state, d.fields())
	return nil
}

func (d Document) MarshalJSON() ([]byte, error) {
	if d.Areas == nil {
		d.Areas = []Area{}
	}
	return encodeNode(&d.state, d.fields())
}

func (a *Area) fields() []field {
	return []field{
		{key: "id", ptr: &a.ID, optional: true},
		{key: "name", ptr: &a.Name},
		{key: "locations", ptr: &a.Locations, children: true},
	}
}

func (a *Area) UnmarshalJSON(data []byte) error {
	decodeNode(data, &a.state, a.fields())
	return nil
}

func (a Area) MarshalJSON() ([]byte, error) {
	return encodeNode(&a.state, a.fields())
}

// Rename sets the area name. An area stored as something other than an
// object becomes a regular, empty area.
func (a *Area) Rename(name string) {
	if a.state.raw != nil {
		a.state.raw = nil
		a.Locations = []Location{}
	}
	a.Name = name
	a.state.set("name")
}

func (l *Location) fields() []field {
	return []field{
		{key: "id", ptr: &l.ID, optional: true},
		{key: "name", ptr: &l.Name},
		{key: "computers", ptr: &l.Computers, children: true},
	}
}

func (l *Location) UnmarshalJSON(data []byte) error {
	decodeNode(data, &l.state, l.fields())
	return nil
}

func (l Location) MarshalJSON() ([]byte, error) {
	return encodeNode(&l.state, l.fields())
}

// Rename sets the location name, like Area.Rename
func (l *Location) Rename(name string) {
	if l.state.raw != nil {
		l.state.raw = nil
		l.Computers = []Computer{}
	}
	l.Name = name
	l.state.set("name")
}

func (c *Computer) fields() []field {
	return []field{
		{key: "id", ptr: &c.ID},
		{key: "name", ptr: &c.Name},
		{key: "hostname", ptr: &c.Hostname},
		{key: "type", ptr: &c.Type},
		{key: "status", ptr: &c.Status},
	}
}

func (c *Computer) UnmarshalJSON(data []byte) error {
	decodeNode(data, &c.state, c.fields())
	return nil
}

func (c Computer) MarshalJSON() ([]byte, error) {
	return encodeNode(&c.state, c.fields())
}

// SetFields overwrites the editable fields. Kept values for those keys are
// dropped; the id and any unknown keys stay.
func (c *Computer) SetFields(f ComputerFields) {
	c.state.raw = nil
	c.Name = f.Name
	c.Hostname = f.Hostname
	c.Type = f.Type
	c.Status = f.Status
	c.state.set("name", "hostname", "type", "status")
}

// Clone returns a deep copy of the document. Child slices keep their nil or
// empty state so the copy encodes exactly like the original.
func (d *Document) Clone() *Document {
	if d == nil {
		return &Document{Areas: []Area{}}
	}
	out := &Document{Areas: make([]Area, len(d.Areas)), state: d.state.clone()}
	for i, area := range d.Areas {
		out.Areas[i] = Area{
			ID:    area.ID,
			Name:  area.Name,
			state: area.state.clone(),
		}
		if area.Locations == nil {
			continue
		}
		out.Areas[i].Locations = make([]Location, len(area.Locations))
		for j, loc := range area.Locations {
			clone := Location{ID: loc.ID, Name: loc.Name, state: loc.state.clone()}
			if loc.Computers != nil {
				clone.Computers = make([]Computer, len(loc.Computers))
				for k, c := range loc.Computers {
					c.state = c.state.clone()
					clone.Computers[k] = c
				}
			}
			out.Areas[i].Locations[j] = clone
		}
	}
	return out
}

// ComputerCount returns the number of computers in the whole tree
func (d *Document) ComputerCount() int {
	n := 0
	for _, area := range d.Areas {
		for _, loc := range area.Locations {
			n += len(loc.Computers)
		}
	}
	return n
}
