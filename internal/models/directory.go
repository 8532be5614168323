package models

// Directory maps Todoist identifiers to names and back for one request.
// It is built from a Task Store snapshot and may be extended in place as
// the importer creates projects, sections and labels.
type Directory struct {
	Projects []Project `json:"projects"`
	Sections []Section `json:"sections"`
	Labels   []Label   `json:"labels"`

	projectByID   map[string]string
	projectByName map[string]string
	sectionByKey  map[sectionKey]string
	sectionByName map[sectionKey]string
	labelByID     map[string]string
	labelByName   map[string]string
}

type sectionKey struct {
	projectID string
	value     string
}

// NewDirectory indexes the given snapshot
func NewDirectory(projects []Project, sections []Section, labels []Label) *Directory {
	d := &Directory{}
	for _, p := range projects {
		d.AddProject(p)
	}
	for _, s := range sections {
		d.AddSection(s)
	}
	for _, l := range labels {
		d.AddLabel(l)
	}
	return d
}

func (d *Directory) ensureIndex() {
	if d.projectByID != nil {
		return
	}
	d.projectByID = make(map[string]string)
	d.projectByName = make(map[string]string)
	d.sectionByKey = make(map[sectionKey]string)
	d.sectionByName = make(map[sectionKey]string)
	d.labelByID = make(map[string]string)
	d.labelByName = make(map[string]string)
	for _, p := range d.Projects {
		d.projectByID[p.ID] = p.Name
		d.projectByName[p.Name] = p.ID
	}
	for _, s := range d.Sections {
		d.sectionByKey[sectionKey{s.ProjectID, s.ID}] = s.Name
		d.sectionByName[sectionKey{s.ProjectID, s.Name}] = s.ID
	}
	for _, l := range d.Labels {
		d.labelByID[l.ID] = l.Name
		d.labelByName[l.Name] = l.ID
	}
}

// Clone returns an independent copy so callers can mutate it per request
func (d *Directory) Clone() *Directory {
	if d == nil {
		return NewDirectory(nil, nil, nil)
	}
	return NewDirectory(
		append([]Project(nil), d.Projects...),
		append([]Section(nil), d.Sections...),
		append([]Label(nil), d.Labels...),
	)
}

// AddProject records a project
func (d *Directory) AddProject(p Project) {
	d.ensureIndex()
	if _, ok := d.projectByID[p.ID]; !ok {
		d.Projects = append(d.Projects, p)
	}
	d.projectByID[p.ID] = p.Name
	d.projectByName[p.Name] = p.ID
}

// AddSection records a section
func (d *Directory) AddSection(s Section) {
	d.ensureIndex()
	key := sectionKey{s.ProjectID, s.ID}
	if _, ok := d.sectionByKey[key]; !ok {
		d.Sections = append(d.Sections, s)
	}
	d.sectionByKey[key] = s.Name
	d.sectionByName[sectionKey{s.ProjectID, s.Name}] = s.ID
}

// AddLabel records a label
func (d *Directory) AddLabel(l Label) {
	d.ensureIndex()
	if _, ok := d.labelByID[l.ID]; !ok {
		d.Labels = append(d.Labels, l)
	}
	d.labelByID[l.ID] = l.Name
	d.labelByName[l.Name] = l.ID
}

// ProjectName resolves a project id
func (d *Directory) ProjectName(id string) (string, bool) {
	d.ensureIndex()
	name, ok := d.projectByID[id]
	return name, ok
}

// ProjectID resolves a project name
func (d *Directory) ProjectID(name string) (string, bool) {
	d.ensureIndex()
	id, ok := d.projectByName[name]
	return id, ok
}

// SectionName resolves a section id within a project
func (d *Directory) SectionName(projectID, sectionID string) (string, bool) {
	d.ensureIndex()
	name, ok := d.sectionByKey[sectionKey{projectID, sectionID}]
	return name, ok
}

// SectionID resolves a section name within a project
func (d *Directory) SectionID(projectID, name string) (string, bool) {
	d.ensureIndex()
	id, ok := d.sectionByName[sectionKey{projectID, name}]
	return id, ok
}

// LabelName resolves a label id
func (d *Directory) LabelName(id string) (string, bool) {
	d.ensureIndex()
	name, ok := d.labelByID[id]
	return name, ok
}

// LabelID resolves a label name
func (d *Directory) LabelID(name string) (string, bool) {
	d.ensureIndex()
	id, ok := d.labelByName[name]
	return id, ok
}
