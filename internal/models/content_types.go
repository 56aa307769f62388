package models

// Content type UIDs.
const (
	NoticeUID     = "api::notice.notice"
	NoticeEnUID   = "api::notice-en.notice-en"
	CategoryUID   = "api::category.category"
	CategoryEnUID = "api::category-en.category-en"
	FileUID       = "plugin::upload.file"
)

func systemAttributes(draftAndPublish bool) []Attribute {
	attrs := []Attribute{
		{Name: "id", Type: AttrInteger, Column: "id"},
		{Name: "documentId", Type: AttrUID, Column: "document_id"},
		{Name: "createdAt", Type: AttrDateTime, Column: "created_at"},
		{Name: "updatedAt", Type: AttrDateTime, Column: "updated_at"},
	}
	if draftAndPublish {
		attrs = append(attrs, Attribute{Name: "publishedAt", Type: AttrDateTime, Column: "published_at"})
	}
	return attrs
}

func noticeType(uid, table, singular, plural, display, relation, categoryUID string) ContentType {
	return ContentType{
		UID:             uid,
		Kind:            "collectionType",
		Table:           table,
		SingularName:    singular,
		PluralName:      plural,
		DisplayName:     display,
		DraftAndPublish: true,
		Attributes: append(systemAttributes(true),
			Attribute{Name: "title", Type: AttrString, Column: "title", Required: true},
			Attribute{Name: "summary", Type: AttrText, Column: "summary"},
			Attribute{Name: "content", Type: AttrRichText, Column: "content"},
			Attribute{Name: "views", Type: AttrInteger, Column: "views"},
			Attribute{Name: relation, Type: AttrRelation, Column: relation + "_id", Relation: "manyToOne", Target: categoryUID},
		),
	}
}

func categoryType(uid, table, singular, plural, display string) ContentType {
	return ContentType{
		UID:          uid,
		Kind:         "collectionType",
		Table:        table,
		SingularName: singular,
		PluralName:   plural,
		DisplayName:  display,
		Attributes: append(systemAttributes(false),
			Attribute{Name: "code", Type: AttrUID, Column: "code", Required: true},
			Attribute{Name: "name", Type: AttrString, Column: "name", Required: true},
			Attribute{Name: "description", Type: AttrText, Column: "description"},
		),
	}
}

// FileContentType is the upload plugin's media collection.
func FileContentType() ContentType {
	return ContentType{
		UID:          FileUID,
		Kind:         "collectionType",
		Table:        "files",
		SingularName: "file",
		PluralName:   "files",
		DisplayName:  "File",
		Attributes: append(systemAttributes(false),
			Attribute{Name: "name", Type: AttrString, Column: "name", Required: true},
			Attribute{Name: "alternativeText", Type: AttrString, Column: "alternative_text"},
			Attribute{Name: "caption", Type: AttrString, Column: "caption"},
			Attribute{Name: "width", Type: AttrInteger, Column: "width"},
			Attribute{Name: "height", Type: AttrInteger, Column: "height"},
			Attribute{Name: "hash", Type: AttrString, Column: "hash", Required: true},
			Attribute{Name: "ext", Type: AttrString, Column: "ext"},
			Attribute{Name: "mime", Type: AttrString, Column: "mime", Required: true},
			Attribute{Name: "size", Type: AttrDecimal, Column: "size", Required: true},
			Attribute{Name: "url", Type: AttrString, Column: "url", Required: true},
			Attribute{Name: "provider", Type: AttrString, Column: "provider", Required: true},
			Attribute{Name: "folderPath", Type: AttrString, Column: "folder_path", Private: true},
			Attribute{Name: "objectKey", Type: AttrString, Column: "object_key", Private: true},
		),
	}
}

func sharedComponents() []Component {
	media := func(name string, multiple bool, allowed ...string) Attribute {
		return Attribute{Name: name, Type: AttrMedia, Multiple: multiple, Allowed: allowed}
	}
	return []Component{
		{UID: "shared.category-items", Category: "shared", Table: "components_shared_category_items", DisplayName: "category_items",
			Attributes: []Attribute{{Name: "item", Type: AttrString}}},
		{UID: "shared.media", Category: "shared", Table: "components_shared_media", DisplayName: "Media", Icon: "file-video",
			Attributes: []Attribute{media("file", false, "images", "files", "videos")}},
		{UID: "shared.outline", Category: "shared", Table: "components_shared_outlines", DisplayName: "outline",
			Attributes: []Attribute{
				{Name: "dateText", Type: AttrString},
				{Name: "location", Type: AttrString},
				{Name: "organizer", Type: AttrString},
				{Name: "target", Type: AttrText},
				{Name: "topics", Type: AttrComponent, Component: "shared.topics", Repeatable: true},
			}},
		{UID: "shared.quote", Category: "shared", Table: "components_shared_quotes", DisplayName: "Quote", Icon: "indent",
			Attributes: []Attribute{{Name: "body", Type: AttrText}, {Name: "title", Type: AttrString}}},
		{UID: "shared.rich-text", Category: "shared", Table: "components_shared_rich_texts", DisplayName: "Rich text", Icon: "align-justify",
			Attributes: []Attribute{{Name: "body", Type: AttrRichText}}},
		{UID: "shared.seo", Category: "shared", Table: "components_shared_seos", DisplayName: "Seo", Icon: "allergies",
			Attributes: []Attribute{
				{Name: "metaDescription", Type: AttrText, Required: true},
				{Name: "metaTitle", Type: AttrString, Required: true},
				media("shareImage", false, "images"),
			}},
		{UID: "shared.slider", Category: "shared", Table: "components_shared_sliders", DisplayName: "Slider", Icon: "address-book",
			Attributes: []Attribute{media("files", true, "images")}},
		{UID: "shared.status", Category: "shared", Table: "components_shared_statuses", DisplayName: "Status",
			Attributes: []Attribute{{Name: "status_name", Type: AttrString}}},
		{UID: "shared.topics", Category: "shared", Table: "components_shared_topics", DisplayName: "topics",
			Attributes: []Attribute{{Name: "content", Type: AttrText}}},
	}
}

// DefaultRegistry returns the schemas served by the content API.
func DefaultRegistry() *Registry {
	return NewRegistry([]ContentType{
		noticeType(NoticeUID, "notices", "notice", "notices", "Notice", "category_ko", CategoryUID),
		noticeType(NoticeEnUID, "notice_ens", "notice-en", "notice-ens", "Notice (EN)", "category_en", CategoryEnUID),
		categoryType(CategoryUID, "categories", "category", "categories", "Category"),
		categoryType(CategoryEnUID, "category_ens", "category-en", "category-ens", "Category (EN)"),
		FileContentType(),
	}, sharedComponents())
}
