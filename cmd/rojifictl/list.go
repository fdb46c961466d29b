package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"

	rojifi "github.com/AntimonyIQ/rojifiadmin-sub001"
	"github.com/AntimonyIQ/rojifiadmin-sub001/query"
)

// filterFlags collects repeated -filter name=value flags.
type filterFlags query.Filters

func (f *filterFlags) String() string {
	parts := make([]string, 0, len(*f))
	for _, flt := range *f {
		parts = append(parts, fmt.Sprintf("%s=%v", flt.Name, flt.Value))
	}
	return strings.Join(parts, ",")
}

func (f *filterFlags) Set(s string) error {
	name, value, ok := strings.Cut(s, "=")
	if !ok || strings.TrimSpace(name) == "" {
		return fmt.Errorf("filter %q is not name=value", s)
	}
	(*query.Filters)(f).Set(strings.TrimSpace(name), value)
	return nil
}

type listOutput[T any] struct {
	Records    []T                `json:"records"`
	Pagination *rojifi.Pagination `json:"pagination,omitempty"`
}

func (a *app) list(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	fs.SetOutput(a.streams.Stderr)
	resource := fs.String("resource", "", "contacts, newsletters, providers, access-requests, senders, teams, staff or members")
	page := fs.Int("page", 1, "page number")
	limit := fs.Int("limit", a.cfg.View.Limit, "page size")
	search := fs.String("search", "", "search term")
	team := fs.String("team", "", "team id, for -resource members")
	var filters filterFlags
	fs.Var(&filters, "filter", "name=value, repeatable")
	if err := fs.Parse(args); err != nil {
		return err
	}

	state := query.State{
		Page:    *page,
		Limit:   *limit,
		Search:  *search,
		Filters: query.Filters(filters),
	}

	path, err := listPath(*resource, *team)
	if err != nil {
		return err
	}

	c, err := a.client(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	switch path {
	case rojifi.PathContacts:
		return printPage[rojifi.Contact](ctx, a, c, path, state)
	case rojifi.PathNewsletters:
		return printPage[rojifi.Newsletter](ctx, a, c, path, state)
	case rojifi.PathProviders:
		return printPage[rojifi.Provider](ctx, a, c, path, state)
	case rojifi.PathAccessRequests:
		return printPage[rojifi.AccessRequest](ctx, a, c, path, state)
	case rojifi.PathSenders:
		return printPage[rojifi.Sender](ctx, a, c, path, state)
	case rojifi.PathTeams:
		return printPage[rojifi.Team](ctx, a, c, path, state)
	case rojifi.PathStaff:
		return printPage[rojifi.Staff](ctx, a, c, path, state)
	default:
		return printPage[rojifi.TeamMember](ctx, a, c, path, state)
	}
}

func listPath(resource, team string) (string, error) {
	if resource == "members" {
		if team == "" {
			return "", errors.New("-team is required for members")
		}
		return rojifi.TeamMembersPath(team), nil
	}
	path, ok := rojifi.ResourcePath(resource)
	if !ok {
		return "", fmt.Errorf("unknown resource %q", resource)
	}
	return path, nil
}

// printPage fetches one page through a list view, so the page bound is
// checked against the pagination the server reports.
func printPage[T any](ctx context.Context, a *app, c *rojifi.Client, path string, state query.State) error {
	view := rojifi.NewListView[T](c, path, a.viewOptions(state)...)
	defer view.Close()

	var err error
	if state.Page > 1 {
		if err = view.Refresh(ctx); err == nil {
			err = view.SetPage(ctx, state.Page)
		}
	} else {
		err = view.Refresh(ctx)
	}
	if err != nil {
		return present(err)
	}

	snap := view.Snapshot()
	records := snap.Records
	if records == nil {
		records = []T{}
	}
	return writeJSON(a.streams.Stdout, listOutput[T]{Records: records, Pagination: snap.Pagination})
}

// viewOptions starts a view on page 1 of state with the configured debounce.
func (a *app) viewOptions(state query.State) []rojifi.ViewOption {
	return []rojifi.ViewOption{
		rojifi.WithInitialQuery(state.WithPage(1)),
		rojifi.WithDebounce(a.cfg.View.Debounce),
	}
}
