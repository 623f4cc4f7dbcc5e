package graph

import (
	"context"
	"fmt"
	"strings"

	"github.com/nullgraph/brain/internal/storage"
	"github.com/nullgraph/brain/pkg/types"
)

// ResolvePerson resolves an author string into a Person node ID, creating
// the node on first use. author may be:
//   - a bare email ("jane@example.com") or canonical "name@domain" form,
//     keyed person-<email>;
//   - a legacy "@username" alias, resolved against existing Person nodes'
//     props.aliases and reused if a match is found, otherwise keyed
//     person-<username> and recorded as its own alias going forward.
func (a *API) ResolvePerson(ctx context.Context, author string) (string, error) {
	author = strings.TrimSpace(author)
	if author == "" {
		return "", fmt.Errorf("graph: empty author")
	}

	if strings.HasPrefix(author, "@") {
		return a.resolveAliasPerson(ctx, strings.TrimPrefix(author, "@"))
	}

	return a.ensurePerson(ctx, types.PersonID(author), author, "")
}

// resolveAliasPerson looks for an existing Person node whose props.aliases
// contains username. If none is found, a new Person node is created keyed
// on the username itself, since a legacy alias with no known canonical
// identity is the best available identity.
func (a *API) resolveAliasPerson(ctx context.Context, username string) (string, error) {
	result, err := a.store.GetByLabel(ctx, types.LabelPerson, storage.ListOptions{Limit: 1000})
	if err != nil {
		return "", err
	}
	for _, node := range result.Items {
		for _, alias := range stringSliceProp(node.Properties, "aliases") {
			if alias == username {
				return node.ID, nil
			}
		}
	}
	return a.ensurePerson(ctx, types.PersonID(username), username, username)
}

// ensurePerson upserts a Person node for the given id/name, recording alias
// (if non-empty) in props.aliases the first time the node is created.
func (a *API) ensurePerson(ctx context.Context, id, name, alias string) (string, error) {
	existing, err := a.store.GetNode(ctx, id)
	if err != nil && err != storage.ErrNotFound {
		return "", err
	}
	if existing != nil {
		if alias != "" && !containsString(stringSliceProp(existing.Properties, "aliases"), alias) {
			aliases := append(stringSliceProp(existing.Properties, "aliases"), alias)
			if err := a.store.AddLabels(ctx, id, types.LabelPerson); err != nil {
				return "", err
			}
			props := cloneProps(existing.Properties)
			props["aliases"] = aliases
			existing.Properties = props
			if err := a.store.UpsertNode(ctx, existing); err != nil {
				return "", err
			}
		}
		return id, nil
	}

	props := map[string]interface{}{
		"title": name,
		"name":  name,
	}
	if alias != "" {
		props["aliases"] = []string{alias}
	}
	node := &types.Node{
		ID:         id,
		Labels:     []string{types.LabelPerson},
		Properties: props,
		Memory:     types.NewMemory(a.now(), types.DecayRateForLabels([]string{types.LabelPerson})),
	}
	if err := a.store.UpsertNode(ctx, node); err != nil {
		return "", err
	}
	return id, nil
}

func stringSliceProp(props map[string]interface{}, key string) []string {
	v, ok := props[key]
	if !ok {
		return nil
	}
	switch s := v.(type) {
	case []string:
		return s
	case []interface{}:
		out := make([]string, 0, len(s))
		for _, item := range s {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
		return out
	default:
		return nil
	}
}

func containsString(list []string, needle string) bool {
	for _, s := range list {
		if s == needle {
			return true
		}
	}
	return false
}
