package interactions

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnrecognizedComponent = errors.New("unrecognized component")

type ComponentKind int

const (
	ComponentAccept ComponentKind = iota + 1
	ComponentSelect
	ComponentCancel
)

var componentPrefixes = []struct {
	kind   ComponentKind
	prefix string
}{
	{ComponentAccept, "accept_button_"},
	{ComponentSelect, "select_choice_"},
	{ComponentCancel, "cancel_button_"},
}

// ComponentID is the custom_id carried by the bot's buttons and menus:
// an action prefix followed by the session id it acts on.
type ComponentID struct {
	Kind      ComponentKind
	SessionID string
}

func (c ComponentID) String() string {
	for _, p := range componentPrefixes {
		if p.kind == c.Kind {
			return p.prefix + c.SessionID
		}
	}
	return ""
}

func ParseComponentID(customID string) (ComponentID, error) {
	for _, p := range componentPrefixes {
		id, ok := strings.CutPrefix(customID, p.prefix)
		if !ok {
			continue
		}
		if id == "" {
			return ComponentID{}, fmt.Errorf("%w: %q has no session id", ErrUnrecognizedComponent, customID)
		}
		return ComponentID{Kind: p.kind, SessionID: id}, nil
	}
	return ComponentID{}, fmt.Errorf("%w: %q", ErrUnrecognizedComponent, customID)
}
