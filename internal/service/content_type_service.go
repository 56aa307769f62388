package service

import (
	"strings"

	"github.com/samber/lo"

	"github.com/cmc-renewal/cms-api/internal/models"
	appErrors "github.com/cmc-renewal/cms-api/pkg/errors"
)

// ContentTypeSchema is a content type as exposed by the content-type builder.
type ContentTypeSchema struct {
	UID    string            `json:"uid"`
	Plugin string            `json:"plugin,omitempty"`
	APIID  string            `json:"apiID"`
	Schema ContentTypeDetail `json:"schema"`
}

// ContentTypeDetail is the schema body of a content type.
type ContentTypeDetail struct {
	*models.ContentType
	Visible    bool                        `json:"visible"`
	Attributes map[string]models.Attribute `json:"attributes"`
}

// ComponentSchema is a component as exposed by the content-type builder.
type ComponentSchema struct {
	UID      string          `json:"uid"`
	Category string          `json:"category"`
	APIID    string          `json:"apiId"`
	Schema   ComponentDetail `json:"schema"`
}

// ComponentDetail is the schema body of a component.
type ComponentDetail struct {
	*models.Component
	Attributes map[string]models.Attribute `json:"attributes"`
}

// ContentTypeService exposes the registered schemas read-only.
type ContentTypeService struct {
	registry *models.Registry
}

// NewContentTypeService constructs a ContentTypeService.
func NewContentTypeService(registry *models.Registry) *ContentTypeService {
	return &ContentTypeService{registry: registry}
}

// ContentTypes lists every content type.
func (s *ContentTypeService) ContentTypes() []ContentTypeSchema {
	return lo.Map(s.registry.ContentTypes(), func(ct *models.ContentType, _ int) ContentTypeSchema {
		return contentTypeSchema(ct)
	})
}

// ContentType returns the content type registered under uid.
func (s *ContentTypeService) ContentType(uid string) (ContentTypeSchema, error) {
	ct, ok := s.registry.ContentType(uid)
	if !ok {
		return ContentTypeSchema{}, appErrors.Clone(appErrors.ErrNotFound, "contentType.notFound")
	}
	return contentTypeSchema(ct), nil
}

// Components lists every component.
func (s *ContentTypeService) Components() []ComponentSchema {
	return lo.Map(s.registry.Components(), func(c *models.Component, _ int) ComponentSchema {
		return componentSchema(c)
	})
}

// Component returns the component registered under uid.
func (s *ContentTypeService) Component(uid string) (ComponentSchema, error) {
	c, ok := s.registry.Component(uid)
	if !ok {
		return ComponentSchema{}, appErrors.Clone(appErrors.ErrNotFound, "component.notFound")
	}
	return componentSchema(c), nil
}

func contentTypeSchema(ct *models.ContentType) ContentTypeSchema {
	out := ContentTypeSchema{
		UID:    ct.UID,
		APIID:  ct.SingularName,
		Schema: ContentTypeDetail{ContentType: ct, Visible: true, Attributes: ct.AttributeMap()},
	}
	if plugin, ok := strings.CutPrefix(ct.UID, "plugin::"); ok {
		out.Plugin, _, _ = strings.Cut(plugin, ".")
		out.Schema.Visible = false
	}
	return out
}

func componentSchema(c *models.Component) ComponentSchema {
	attrs := make(map[string]models.Attribute, len(c.Attributes))
	for _, a := range c.Attributes {
		attrs[a.Name] = a
	}
	_, name, _ := strings.Cut(c.UID, ".")
	return ComponentSchema{
		UID:      c.UID,
		Category: c.Category,
		APIID:    name,
		Schema:   ComponentDetail{Component: c, Attributes: attrs},
	}
}
