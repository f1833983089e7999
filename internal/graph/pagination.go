package graph

import "github.com/graphcrm/graphcrm/internal/model"

// Page size bounds for connection fields.
const (
	DefaultPageSize = 100
	MaxPageSize     = 100
)

// window is the resolved slice of a listing a connection field returns.
type window struct {
	start int
	limit int
}

// page asks the store for one extra row to detect a following page.
func (w window) page() model.Page {
	return model.Page{Offset: w.start, Limit: w.limit + 1}
}

// windowFromArgs resolves first/offset/after into a window. Offset and the
// after cursor are additive, matching relay offset connections.
func windowFromArgs(args map[string]interface{}) (window, error) {
	w := window{limit: DefaultPageSize}

	if first, ok := args["first"].(int); ok {
		if first < 0 {
			return window{}, validationError("first", "first must not be negative")
		}
		w.limit = min(first, MaxPageSize)
	}

	if offset, ok := args["offset"].(int); ok {
		if offset < 0 {
			return window{}, validationError("offset", "offset must not be negative")
		}
		w.start = offset
	}

	if after, ok := args["after"].(string); ok && after != "" {
		pos, err := cursorToOffset(after)
		if err != nil {
			return window{}, validationError("after", "Invalid cursor")
		}
		w.start += pos + 1
	}

	return w, nil
}

// newConnection shapes items, fetched with window.page, into a relay
// connection value.
func newConnection[T any](items []T, w window) map[string]interface{} {
	hasNext := len(items) > w.limit
	if hasNext {
		items = items[:w.limit]
	}

	edges := make([]map[string]interface{}, 0, len(items))
	for i, item := range items {
		edges = append(edges, map[string]interface{}{
			"cursor": offsetToCursor(w.start + i),
			"node":   item,
		})
	}

	pageInfo := map[string]interface{}{
		"hasNextPage":     hasNext,
		"hasPreviousPage": w.start > 0,
		"startCursor":     nil,
		"endCursor":       nil,
	}
	if len(edges) > 0 {
		pageInfo["startCursor"] = edges[0]["cursor"]
		pageInfo["endCursor"] = edges[len(edges)-1]["cursor"]
	}

	return map[string]interface{}{
		"edges":    edges,
		"pageInfo": pageInfo,
	}
}
