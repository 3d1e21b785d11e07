package models

// Asana resources as decoded from the API's "data" envelope. Only the
// fields this service reads are declared.

type Task struct {
	GID          string             `json:"gid"`
	Name         string             `json:"name"`
	Notes        string             `json:"notes,omitempty"`
	HTMLNotes    string             `json:"html_notes,omitempty"`
	Completed    bool               `json:"completed"`
	PermalinkURL string             `json:"permalink_url,omitempty"`
	Assignee     *User              `json:"assignee,omitempty"`
	Parent       *TaskRef           `json:"parent,omitempty"`
	CustomFields []CustomFieldValue `json:"custom_fields,omitempty"`
	Memberships  []Membership       `json:"memberships,omitempty"`
	Followers    []User             `json:"followers,omitempty"`
}

// CustomFieldValue returns the task's value for the field gid, or nil if
// the field is not set on the task.
func (t *Task) CustomFieldValue(fieldGID string) *CustomFieldValue {
	for i := range t.CustomFields {
		if t.CustomFields[i].GID == fieldGID {
			return &t.CustomFields[i]
		}
	}
	return nil
}

type TaskRef struct {
	GID string `json:"gid"`
}

type User struct {
	GID   string `json:"gid"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

type CustomField struct {
	GID         string       `json:"gid"`
	Name        string       `json:"name"`
	Type        string       `json:"resource_subtype,omitempty"`
	EnumOptions []EnumOption `json:"enum_options,omitempty"`
}

type EnumOption struct {
	GID  string `json:"gid"`
	Name string `json:"name"`
}

type CustomFieldValue struct {
	GID          string      `json:"gid"`
	Name         string      `json:"name,omitempty"`
	TextValue    string      `json:"text_value,omitempty"`
	DisplayValue string      `json:"display_value,omitempty"`
	EnumValue    *EnumOption `json:"enum_value,omitempty"`
}

type Membership struct {
	Project *Project `json:"project,omitempty"`
	Section *Section `json:"section,omitempty"`
}

type Project struct {
	GID  string `json:"gid"`
	Name string `json:"name,omitempty"`
}

type Section struct {
	GID  string `json:"gid"`
	Name string `json:"name,omitempty"`
}

// TaskRequest is the write shape for task create and update calls.
// Custom field values are keyed by field gid; enum fields take the option
// gid as the value.
type TaskRequest struct {
	Name         string            `json:"name,omitempty"`
	Notes        string            `json:"notes,omitempty"`
	HTMLNotes    string            `json:"html_notes,omitempty"`
	Completed    *bool             `json:"completed,omitempty"`
	Assignee     string            `json:"assignee,omitempty"`
	Followers    []string          `json:"followers,omitempty"`
	Projects     []string          `json:"projects,omitempty"`
	CustomFields map[string]string `json:"custom_fields,omitempty"`
}
