package searchindex

// DocumentRef points at one page of the documentation build.
type DocumentRef struct {
	Index      int    `json:"index"`
	DocName    string `json:"docname"`
	Document   string `json:"document"`
	Title      string `json:"title,omitempty"`
	TitleMatch bool   `json:"title_match"`
}

// ObjectName is an objnames entry: the domain, the object type and its
// human readable label.
type ObjectName struct {
	Domain    string `json:"domain"`
	Type      string `json:"type"`
	Localized string `json:"localized"`
}

// ObjectRef is a documented domain object such as a function or a class.
type ObjectRef struct {
	Prefix   string      `json:"prefix"`
	Name     string      `json:"name"`
	FullName string      `json:"full_name"`
	Type     string      `json:"type"`
	TypeName string      `json:"type_name"`
	Priority int         `json:"priority"`
	Anchor   string      `json:"anchor"`
	Document DocumentRef `json:"document"`
}

type object struct {
	prefix   string
	name     string
	docIndex int
	typeID   int
	priority int
	anchor   string
}

func (o object) fullName() string {
	if o.prefix == "" {
		return o.name
	}
	return o.prefix + "." + o.name
}
