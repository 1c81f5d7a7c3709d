package vndbclient

import "fmt"

const basicFlags = "basic"

// getByID builds a "get <kind> basic (id = <id>)" request.
func getByID(kind Kind, id int64) request {
	return getRequest(kind, basicFlags, fmt.Sprintf("id = %d", id), "")
}

// vnByID looks up a VN by its numeric id.
func vnByID(id int64) request {
	return getByID(KindVN, id)
}

// vnByExactTitle matches a VN whose title or original title is exactly equal
// to title, per original_source/actors/src/vndb.rs's Get::vn_by_exact_title.
func vnByExactTitle(title string) request {
	filters := fmt.Sprintf(`title = %q or original = %q`, title, title)
	return getRequest(KindVN, basicFlags, filters, "")
}

// vnByFuzzyTitle matches a VN whose title or original title contains title,
// per Get::vn_by_title's "~" (substring) operator.
func vnByFuzzyTitle(title string) request {
	filters := fmt.Sprintf(`title ~ %q or original ~ %q`, title, title)
	return getRequest(KindVN, basicFlags, filters, "")
}
