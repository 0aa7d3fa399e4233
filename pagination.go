package slicekit

// ReconcilePage applies explicit page data to sub and returns the result.
//
// A missing page, page 1 or non-slice results replace Results outright (a
// non-slice value leaves Results nil). When sub.Page is a string token equal
// to the incoming page the results were already seen and nothing is
// appended. Otherwise incoming results are appended as-is; duplicates are
// only removed on the fulfilled path.
func ReconcilePage(sub ListState, payload Payload) ListState {
	next := sub.clone()
	incoming, isSlice := asItems(payload.Results)

	switch {
	case payload.Page == nil || isFirstPage(payload.Page) || !isSlice:
		next.Results = cloneItems(incoming)
	case isToken(sub.Page) && sub.Page == payload.Page:
		next.Results = appendItems(next.Results, nil)
	default:
		next.Results = appendItems(next.Results, incoming)
	}

	next.HasMore = true
	if isSlice {
		next.HasMore = len(incoming) > 0
	}
	if payload.Page != nil {
		next.Page = payload.Page
	}
	if payload.IsLoading != nil {
		next.IsLoading = *payload.IsLoading
	}
	return next
}

func isToken(page any) bool {
	_, ok := page.(string)
	return ok
}

func appendItems(current, incoming []any) []any {
	out := make([]any, 0, len(current)+len(incoming))
	out = append(out, current...)
	return append(out, incoming...)
}
