package projections

import (
	"context"
	"errors"
	"log/slog"

	"outreach/internal/adapters/storage"
	"outreach/internal/application/listutil"
)

// ListResult is one page of a searchable list view.
type ListResult[T any] struct {
	Items  []T
	Page   listutil.PageInfo
	Search string
	Errors []string // set when the list could not be read
}

// ReadFailed logs a failed read and returns the "error fetching <name>"
// message shown in its place.
func ReadFailed(name string, err error) string {
	slog.Warn("read_failed", "what", name,
		"unavailable", errors.Is(err, storage.ErrStoreUnavailable), "error", err)
	return "error fetching " + name
}

// listPage counts matching rows, clamps the requested page, then loads it.
// Count and list must apply the same search so totals agree with the rows.
// PRE: params.Page >= 1
// POST: Never fails; a read error yields an empty first page and one message in Errors
func listPage[T any](
	ctx context.Context,
	name string,
	params listutil.ListParams,
	count func(ctx context.Context) (int, error),
	list func(ctx context.Context, page listutil.PageInfo) ([]T, error),
) (ListResult[T], error) {
	empty := func(err error) ListResult[T] {
		return ListResult[T]{
			Page:   listutil.NewPageInfo(1, 0),
			Search: params.Search,
			Errors: []string{ReadFailed(name, err)},
		}
	}
	total, err := count(ctx)
	if err != nil {
		return empty(err), nil
	}
	page := listutil.NewPageInfo(params.Page, total)
	items, err := list(ctx, page)
	if err != nil {
		return empty(err), nil
	}
	return ListResult[T]{Items: items, Page: page, Search: params.Search}, nil
}
