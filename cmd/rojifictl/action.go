package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"sort"
	"strings"

	rojifi "github.com/AntimonyIQ/rojifiadmin-sub001"
)

// bulkLimit caps concurrent mutations when several ids are given.
const bulkLimit = 4

type mutation func(ctx context.Context, c *rojifi.Client, id string) error

func (a *app) action(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("action", flag.ContinueOnError)
	fs.SetOutput(a.streams.Stderr)
	resource := fs.String("resource", "", "access-requests, contacts, providers, newsletters or members")
	verb := fs.String("verb", "", "approve, reject, archive, activate, deactivate, subscribe, unsubscribe or remove")
	ids := fs.String("id", "", "comma separated ids, or emails for newsletters and members")
	reason := fs.String("reason", "", "rejection reason")
	team := fs.String("team", "", "team id, for -resource members")
	if err := fs.Parse(args); err != nil {
		return err
	}

	fn, err := resolveMutation(*resource, *verb, *reason, *team)
	if err != nil {
		return err
	}

	targets := splitIDs(*ids)
	if len(targets) == 0 {
		return errors.New("-id is required")
	}

	c, err := a.client(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	keyOf := func(id string) string { return id }
	if *resource == "members" {
		keyOf = func(email string) string { return rojifi.TeamMemberKey(*team, email) }
	}
	byKey := make(map[string]string, len(targets))
	keys := make([]string, 0, len(targets))
	for _, id := range targets {
		k := keyOf(id)
		byKey[k] = id
		keys = append(keys, k)
	}

	failed := rojifi.RunBulk(ctx, rojifi.NewActionTracker(), keys, bulkLimit, func(ctx context.Context, key string) error {
		return fn(ctx, c, byKey[key])
	})

	for _, id := range targets {
		if _, bad := failed[keyOf(id)]; !bad {
			fmt.Fprintf(a.streams.Stdout, "%s %s: ok\n", *verb, id)
		}
	}
	if len(failed) == 0 {
		return nil
	}

	msgs := make([]string, 0, len(failed))
	for key, err := range failed {
		msgs = append(msgs, fmt.Sprintf("%s %s: %s", *verb, byKey[key], rojifi.UserMessage(err)))
	}
	sort.Strings(msgs)
	for _, m := range msgs {
		fmt.Fprintln(a.streams.Stdout, m)
	}
	return fmt.Errorf("%d of %d actions failed", len(failed), len(keys))
}

func resolveMutation(resource, verb, reason, team string) (mutation, error) {
	switch resource + ":" + verb {
	case "access-requests:approve", "requests:approve":
		return func(ctx context.Context, c *rojifi.Client, id string) error {
			return c.ApproveAccessRequest(ctx, id)
		}, nil
	case "access-requests:reject", "requests:reject":
		return func(ctx context.Context, c *rojifi.Client, id string) error {
			return c.RejectAccessRequest(ctx, id, reason)
		}, nil
	case "contacts:archive":
		return func(ctx context.Context, c *rojifi.Client, id string) error {
			return c.ArchiveContact(ctx, id)
		}, nil
	case "providers:activate", "providers:deactivate":
		active := verb == "activate"
		return func(ctx context.Context, c *rojifi.Client, id string) error {
			return c.SetProviderActive(ctx, id, active)
		}, nil
	case "newsletters:subscribe":
		return func(ctx context.Context, c *rojifi.Client, email string) error {
			return c.SubscribeNewsletter(ctx, email)
		}, nil
	case "newsletters:unsubscribe":
		return func(ctx context.Context, c *rojifi.Client, email string) error {
			return c.UnsubscribeNewsletter(ctx, email)
		}, nil
	case "members:remove":
		if team == "" {
			return nil, errors.New("-team is required for members")
		}
		return func(ctx context.Context, c *rojifi.Client, email string) error {
			return c.RemoveTeamMember(ctx, team, email)
		}, nil
	}
	return nil, fmt.Errorf("unsupported action %q on %q", verb, resource)
}

func splitIDs(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
