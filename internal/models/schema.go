package models

import "sort"

// AttributeType is the type of a content attribute.
type AttributeType string

const (
	AttrString    AttributeType = "string"
	AttrText      AttributeType = "text"
	AttrRichText  AttributeType = "richtext"
	AttrUID       AttributeType = "uid"
	AttrEmail     AttributeType = "email"
	AttrInteger   AttributeType = "integer"
	AttrDecimal   AttributeType = "decimal"
	AttrBoolean   AttributeType = "boolean"
	AttrDateTime  AttributeType = "datetime"
	AttrJSON      AttributeType = "json"
	AttrRelation  AttributeType = "relation"
	AttrMedia     AttributeType = "media"
	AttrComponent AttributeType = "component"
)

// Textual reports whether values of t are stored as text.
func (t AttributeType) Textual() bool {
	switch t {
	case AttrString, AttrText, AttrRichText, AttrUID, AttrEmail:
		return true
	}
	return false
}

// Attribute describes one field of a content type or component.
type Attribute struct {
	Name       string        `json:"-"`
	Type       AttributeType `json:"type"`
	Column     string        `json:"-"`
	Required   bool          `json:"required,omitempty"`
	Private    bool          `json:"private,omitempty"`
	Relation   string        `json:"relation,omitempty"`
	Target     string        `json:"target,omitempty"`
	Component  string        `json:"component,omitempty"`
	Repeatable bool          `json:"repeatable,omitempty"`
	Multiple   bool          `json:"multiple,omitempty"`
	Allowed    []string      `json:"allowedTypes,omitempty"`
}

// Scalar reports whether the attribute is a column of the type's own table.
func (a Attribute) Scalar() bool {
	return a.Type != AttrRelation && a.Type != AttrMedia && a.Type != AttrComponent
}

// ContentType describes a collection and how it maps to its table.
type ContentType struct {
	UID             string      `json:"uid"`
	Kind            string      `json:"kind"`
	Table           string      `json:"collectionName"`
	SingularName    string      `json:"singularName"`
	PluralName      string      `json:"pluralName"`
	DisplayName     string      `json:"displayName"`
	DraftAndPublish bool        `json:"draftAndPublish"`
	Attributes      []Attribute `json:"-"`
}

// Attribute looks up an attribute by API name.
func (ct *ContentType) Attribute(name string) (Attribute, bool) {
	for _, a := range ct.Attributes {
		if a.Name == name {
			return a, true
		}
	}
	return Attribute{}, false
}

// AttributeMap renders the attributes keyed by name for schema responses.
func (ct *ContentType) AttributeMap() map[string]Attribute {
	out := make(map[string]Attribute, len(ct.Attributes))
	for _, a := range ct.Attributes {
		out[a.Name] = a
	}
	return out
}

// Component is a reusable group of attributes.
type Component struct {
	UID         string      `json:"uid"`
	Category    string      `json:"category"`
	Table       string      `json:"collectionName"`
	DisplayName string      `json:"displayName"`
	Icon        string      `json:"icon,omitempty"`
	Attributes  []Attribute `json:"-"`
}

// Registry indexes content types and components.
type Registry struct {
	types      map[string]*ContentType
	components map[string]*Component
}

// NewRegistry indexes the given schemas.
func NewRegistry(types []ContentType, components []Component) *Registry {
	r := &Registry{
		types:      make(map[string]*ContentType, len(types)),
		components: make(map[string]*Component, len(components)),
	}
	for i := range types {
		ct := &types[i]
		r.types[ct.UID] = ct
	}
	for i := range components {
		c := &components[i]
		r.components[c.UID] = c
	}
	return r
}

// ContentType returns the content type registered under uid.
func (r *Registry) ContentType(uid string) (*ContentType, bool) {
	ct, ok := r.types[uid]
	return ct, ok
}

// Component returns the component registered under uid.
func (r *Registry) Component(uid string) (*Component, bool) {
	c, ok := r.components[uid]
	return c, ok
}

// ContentTypes lists content types ordered by uid.
func (r *Registry) ContentTypes() []*ContentType {
	out := make([]*ContentType, 0, len(r.types))
	for _, ct := range r.types {
		out = append(out, ct)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UID < out[j].UID })
	return out
}

// Components lists components ordered by uid.
func (r *Registry) Components() []*Component {
	out := make([]*Component, 0, len(r.components))
	for _, c := range r.components {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UID < out[j].UID })
	return out
}
