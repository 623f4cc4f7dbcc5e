package brain

import (
	"context"
	"strings"

	"github.com/nullgraph/brain/pkg/types"
)

// DevState is a Person node's reserved developer-context properties
// (spec.md §3: focus, last_session, expertise, sessions_count, email, name,
// aliases), surfaced as its own shape rather than a raw property map so
// callers (the brain CLI's dev-state/update-dev-state subcommands) don't
// need to know the reserved keys.
type DevState struct {
	ID            string   `json:"id"`
	Email         string   `json:"email"`
	Name          string   `json:"name"`
	Aliases       []string `json:"aliases,omitempty"`
	Focus         string   `json:"focus,omitempty"`
	LastSession   string   `json:"last_session,omitempty"`
	Expertise     []string `json:"expertise,omitempty"`
	SessionsCount int      `json:"sessions_count"`
}

// GetDevState returns the Person node keyed by email's developer-context
// properties (spec.md §6 "get_dev_state(email)"). Returns storage.ErrNotFound
// if no Person node has been resolved for that email yet.
func (b *Brain) GetDevState(ctx context.Context, email string) (*DevState, error) {
	id := types.PersonID(strings.TrimSpace(email))
	node, err := b.graphAPI.GetNode(ctx, id)
	if err != nil {
		return nil, err
	}
	return devStateFromNode(node), nil
}

// UpdateDevState resolves (creating if necessary) the Person node keyed by
// email and merges the given fields into its reserved properties (spec.md
// §6 "update_dev_state(email, focus?, last_session?, name?)"). A non-empty
// lastSession increments sessions_count, matching a session actually having
// occurred.
func (b *Brain) UpdateDevState(ctx context.Context, email string, focus, lastSession, name string) (*DevState, error) {
	id, err := b.graphAPI.ResolvePerson(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, err
	}

	node, err := b.graphAPI.GetNode(ctx, id)
	if err != nil {
		return nil, err
	}

	props := make(map[string]interface{}, len(node.Properties)+4)
	for k, v := range node.Properties {
		props[k] = v
	}
	props["email"] = email
	if focus != "" {
		props["focus"] = focus
	}
	if name != "" {
		props["name"] = name
		props["title"] = name
	}
	if lastSession != "" {
		props["last_session"] = lastSession
		props["sessions_count"] = devStateFromNode(node).SessionsCount + 1
	}
	node.Properties = props

	if err := b.graphAPI.AddNodeRaw(ctx, node); err != nil {
		return nil, err
	}
	return devStateFromNode(node), nil
}

func devStateFromNode(n *types.Node) *DevState {
	return &DevState{
		ID:            n.ID,
		Email:         stringProp(n.Properties, "email"),
		Name:          n.Title(),
		Aliases:       stringSliceProp(n.Properties, "aliases"),
		Focus:         stringProp(n.Properties, "focus"),
		LastSession:   stringProp(n.Properties, "last_session"),
		Expertise:     stringSliceProp(n.Properties, "expertise"),
		SessionsCount: intProp(n.Properties, "sessions_count"),
	}
}

func stringProp(props map[string]interface{}, key string) string {
	if v, ok := props[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
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

func intProp(props map[string]interface{}, key string) int {
	v, ok := props[key]
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}
