package conditionals

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Kind identifies which profile fact a Requirement checks.
type Kind int

const (
	KindInvalid Kind = iota - 1
	KindQuestComplete
	KindQuestNotComplete
	KindConversationSeen
	KindConversationNotSeen
	KindChoiceMade
	KindChoiceNotMade
)

// kindKeys maps document keys to requirement kinds, in lookup order.
var kindKeys = []struct {
	key  string
	kind Kind
}{
	{"questComplete", KindQuestComplete},
	{"questNotComplete", KindQuestNotComplete},
	{"conversationSeen", KindConversationSeen},
	{"conversationNotSeen", KindConversationNotSeen},
	{"choiceMade", KindChoiceMade},
	{"choiceNotMade", KindChoiceNotMade},
}

// String returns the document key for the kind.
func (k Kind) String() string {
	for _, kk := range kindKeys {
		if kk.kind == k {
			return kk.key
		}
	}
	return "invalid"
}

// Valid reports whether k is one of the six known kinds.
func (k Kind) Valid() bool {
	return k >= KindQuestComplete && k <= KindChoiceNotMade
}

// Requirement is a single guard predicate over player state.
type Requirement struct {
	Kind         Kind
	ComparisonID string
}

// UnmarshalJSON reads the single-key object form, e.g. {"questComplete": "rescue_cat"}.
// Objects without a known key decode to KindInvalid so the caller can report them.
func (r *Requirement) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("requirement: expected object: %w", err)
	}
	*r = fromMap(raw)
	return nil
}

// UnmarshalYAML is the YAML counterpart of UnmarshalJSON.
func (r *Requirement) UnmarshalYAML(node *yaml.Node) error {
	var raw map[string]any
	if err := node.Decode(&raw); err != nil {
		return fmt.Errorf("requirement: expected mapping: %w", err)
	}
	*r = fromMap(raw)
	return nil
}

// MarshalJSON writes the single-key object form.
func (r Requirement) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{r.Kind.String(): r.ComparisonID})
}

func fromMap(raw map[string]any) Requirement {
	for _, kk := range kindKeys {
		if v, ok := raw[kk.key]; ok {
			id, _ := v.(string)
			return Requirement{Kind: kk.kind, ComparisonID: id}
		}
	}
	return Requirement{Kind: KindInvalid}
}

// ProfileView provides the minimal interface needed to evaluate requirements.
// This avoids an import cycle with the profile package.
type ProfileView interface {
	QuestComplete(id string) bool
	ConversationSeen(id string) bool
	ChoiceMade(id string) bool
}

// UnknownKindError is returned when a requirement of an unrecognised kind is evaluated.
type UnknownKindError struct {
	Kind         Kind
	ComparisonID string
}

func (e *UnknownKindError) Error() string {
	return fmt.Sprintf("unknown requirement kind %d (comparison id %q)", int(e.Kind), e.ComparisonID)
}

// Evaluate checks one requirement. Unknown kinds fail closed.
func Evaluate(req Requirement, view ProfileView) (bool, error) {
	switch req.Kind {
	case KindQuestComplete:
		return view.QuestComplete(req.ComparisonID), nil
	case KindQuestNotComplete:
		return !view.QuestComplete(req.ComparisonID), nil
	case KindConversationSeen:
		return view.ConversationSeen(req.ComparisonID), nil
	case KindConversationNotSeen:
		return !view.ConversationSeen(req.ComparisonID), nil
	case KindChoiceMade:
		return view.ChoiceMade(req.ComparisonID), nil
	case KindChoiceNotMade:
		return !view.ChoiceMade(req.ComparisonID), nil
	default:
		return false, &UnknownKindError{Kind: req.Kind, ComparisonID: req.ComparisonID}
	}
}

// Meets reports whether every requirement passes. An empty list always passes.
// Evaluation stops at the first failing or unknown requirement.
func Meets(reqs []Requirement, view ProfileView) (bool, error) {
	for _, req := range reqs {
		ok, err := Evaluate(req, view)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}
