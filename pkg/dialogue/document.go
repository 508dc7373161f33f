package dialogue

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/jwebster45206/dialogue-engine/pkg/conditionals"
	"gopkg.in/yaml.v3"
)

// Format is the encoding of a dialogue document.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

func (f Format) String() string {
	if f == FormatYAML {
		return "yaml"
	}
	return "json"
}

// FormatFromPath picks a format from a file extension. Unknown extensions are JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// IsDocumentPath reports whether path has an extension the loader understands.
func IsDocumentPath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}

// The *Doc types mirror the document schema. Pointer fields distinguish
// "not set" from a zero value so defaults can cascade.

type linkDoc struct {
	LinkedConversation string                     `json:"linkedConversation" yaml:"linkedConversation"`
	LinkedFrame        string                     `json:"linkedFrame" yaml:"linkedFrame"`
	Text               string                     `json:"text" yaml:"text"`
	SaveChoice         *Bool                      `json:"saveChoice" yaml:"saveChoice"`
	ChoiceID           string                     `json:"choiceId" yaml:"choiceId"`
	Requirements       []conditionals.Requirement `json:"requirements" yaml:"requirements"`
}

type sectionDoc struct {
	PortraitSettings *PortraitOverride `json:"portraitSettings" yaml:"portraitSettings"`
	TextSettings     *TextOverride     `json:"textSettings" yaml:"textSettings"`
	TriggerAnimation string            `json:"triggerAnimation" yaml:"triggerAnimation"`
	TriggerEffect    string            `json:"triggerEffect" yaml:"triggerEffect"`
	ForceIdle        *Bool             `json:"forceIdle" yaml:"forceIdle"`
	Text             string            `json:"text" yaml:"text"`
}

type frameDoc struct {
	ID               string            `json:"id" yaml:"id"`
	EndOnThisFrame   *Bool             `json:"endOnThisFrame" yaml:"endOnThisFrame"`
	DisplayChoices   *Bool             `json:"displayChoices" yaml:"displayChoices"`
	Links            []linkDoc         `json:"links" yaml:"links"`
	NPCSettings      string            `json:"npcSettings" yaml:"npcSettings"`
	AllowSkip        *Bool             `json:"allowSkip" yaml:"allowSkip"`
	WaitForInput     *Bool             `json:"waitForInput" yaml:"waitForInput"`
	PortraitSettings *PortraitOverride `json:"portraitSettings" yaml:"portraitSettings"`
	TextSettings     *TextOverride     `json:"textSettings" yaml:"textSettings"`
	Sections         []sectionDoc      `json:"sections" yaml:"sections"`
}

type conversationDoc struct {
	ID               string                     `json:"id" yaml:"id"`
	Autoload         *Bool                      `json:"autoload" yaml:"autoload"`
	AllowSkip        *Bool                      `json:"allowSkip" yaml:"allowSkip"`
	WaitForInput     *Bool                      `json:"waitForInput" yaml:"waitForInput"`
	PortraitSettings *PortraitOverride          `json:"portraitSettings" yaml:"portraitSettings"`
	TextSettings     *TextOverride              `json:"textSettings" yaml:"textSettings"`
	Requirements     []conditionals.Requirement `json:"requirements" yaml:"requirements"`
	StartingFrame    string                     `json:"startingFrame" yaml:"startingFrame"`
	Frames           []frameDoc                 `json:"frames" yaml:"frames"`
}

// entry is one undecoded list item of a document. Entries decode
// independently so a bad conversation does not spoil its neighbours.
type entry func(v any) error

// identify pulls the id out of an entry that may not fully decode.
func (e entry) identify() string {
	var probe struct {
		ID any `json:"id" yaml:"id"`
	}
	if err := e(&probe); err != nil {
		return ""
	}
	if id, ok := probe.ID.(string); ok {
		return id
	}
	return ""
}

var errEmptyDocument = errors.New("document is empty")

// splitDocument decodes the top level of a document into its NPC and conversation entries.
func splitDocument(data []byte, format Format) (npcs, conversations []entry, err error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil, errEmptyDocument
	}

	switch format {
	case FormatYAML:
		var doc struct {
			NPCs          []yaml.Node `yaml:"NPCs"`
			Conversations []yaml.Node `yaml:"conversations"`
		}
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, nil, fmt.Errorf("invalid yaml: %w", err)
		}
		for i := range doc.NPCs {
			node := doc.NPCs[i]
			npcs = append(npcs, node.Decode)
		}
		for i := range doc.Conversations {
			node := doc.Conversations[i]
			conversations = append(conversations, node.Decode)
		}
	default:
		var doc struct {
			NPCs          []json.RawMessage `json:"NPCs"`
			Conversations []json.RawMessage `json:"conversations"`
		}
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, nil, fmt.Errorf("invalid json: %w", err)
		}
		for _, raw := range doc.NPCs {
			npcs = append(npcs, jsonEntry(raw))
		}
		for _, raw := range doc.Conversations {
			conversations = append(conversations, jsonEntry(raw))
		}
	}
	return npcs, conversations, nil
}

func jsonEntry(raw json.RawMessage) entry {
	return func(v any) error {
		return json.Unmarshal(raw, v)
	}
}
