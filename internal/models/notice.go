package models

// NoticeFeed binds a notice collection to the category collection it is filtered by.
type NoticeFeed struct {
	Name             string
	NoticeUID        string
	CategoryUID      string
	CategoryRelation string
}

// CategoryNameField is the dotted filter path of the related category name.
func (f NoticeFeed) CategoryNameField() string {
	return f.CategoryRelation + ".name"
}

var (
	// NoticeFeedKo serves /api/notices.
	NoticeFeedKo = NoticeFeed{Name: "notice", NoticeUID: NoticeUID, CategoryUID: CategoryUID, CategoryRelation: "category_ko"}
	// NoticeFeedEn serves /api/notice-ens.
	NoticeFeedEn = NoticeFeed{Name: "notice-en", NoticeUID: NoticeEnUID, CategoryUID: CategoryEnUID, CategoryRelation: "category_en"}
)

// Category resolution modes, used as metric labels.
const (
	CategoryModeGeneral      = "general"
	CategoryModeRecruit      = "recruit"
	CategoryModeUnrecognized = "unrecognized"
)
