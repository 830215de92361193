package httpx

import (
	"net/http"
	"net/url"
	"strconv"
)

// PageMeta contains metadata for page rendering.
type PageMeta struct {
	Title       string
	CurrentPage string
}

// basePageData constructs the common page data map with user context.
func basePageData(r *http.Request, meta PageMeta) map[string]any {
	data := map[string]any{
		"Title":       meta.Title,
		"CurrentPage": meta.CurrentPage,
	}

	if csrfToken := GetCSRFToken(r); csrfToken != "" {
		data["CSRFToken"] = csrfToken
	}

	if session := GetSessionFromContext(r.Context()); session != nil {
		data["IsAuthenticated"] = true
		data["UserName"] = session.Name
		data["UserRole"] = string(session.Role)
	} else {
		data["IsAuthenticated"] = false
	}

	return data
}

// pageOpts represents pagination options for list views.
type pageOpts struct {
	Page     int
	PageSize int
}

// LimitAndOffset returns limit/offset used for pagination fetches,
// always fetching one extra item to detect next-page availability.
func (p pageOpts) LimitAndOffset() (int, int) {
	page := p.Page
	if page <= 0 {
		page = 1
	}
	pageSize := p.PageSize
	if pageSize <= 0 {
		pageSize = 10
	}
	limit := pageSize + 1
	offset := (page - 1) * pageSize
	return limit, offset
}

// getPageParams parses pagination params from URL query with sane defaults.
func getPageParams(q url.Values) (int, int) {
	page := 1
	pageSize := 10
	if p := q.Get("page"); p != "" {
		if n, err := strconv.Atoi(p); err == nil && n > 0 {
			page = n
		}
	}
	if s := q.Get("page_size"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 && n <= 100 {
			pageSize = n
		}
	}
	return page, pageSize
}

// buildPageURL builds a list URL preserving existing query params while
// replacing the pagination ones.
func buildPageURL(basePath string, q url.Values, p pageOpts) string {
	qq := url.Values{}
	for k, vs := range q {
		for _, v := range vs {
			qq.Add(k, v)
		}
	}
	qq.Set("page", strconv.Itoa(p.Page))
	qq.Set("page_size", strconv.Itoa(p.PageSize))

	if enc := qq.Encode(); enc != "" {
		return basePath + "?" + enc
	}
	return basePath
}
