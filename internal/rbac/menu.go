package rbac

// MenuItem is a rendered navigation link.
type MenuItem struct {
	Segment string `json:"segment"`
	Label   string `json:"label"`
	Href    string `json:"href"`
	Access  Access `json:"access"`
}

// ResolveMenu lists the role's sections in table order with hrefs of the
// form /{role}/{segment}.
func ResolveMenu(t *Table, role Role) []MenuItem {
	entries := t.PermittedEntries(role)
	items := make([]MenuItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, MenuItem{
			Segment: e.Segment,
			Label:   e.Label,
			Href:    Href(role, e.Segment),
			Access:  e.Access,
		})
	}
	return items
}

func Href(role Role, segment string) string {
	return "/" + string(role) + "/" + segment
}
