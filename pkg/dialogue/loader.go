package dialogue

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/jwebster45206/dialogue-engine/pkg/conditionals"
	"golang.org/x/text/unicode/norm"
)

// Report summarises one document load. Errors are conversations that were
// dropped; Warnings are problems that loading worked around.
type Report struct {
	Source        string
	Conversations []string
	NPCs          []string
	Errors        []error
	Warnings      []error
}

// Err joins the report's errors, or returns nil if there were none.
func (r *Report) Err() error {
	return errors.Join(r.Errors...)
}

// Loader parses dialogue documents into a Registry.
type Loader struct {
	registry *Registry
	logger   *slog.Logger
}

// NewLoader creates a loader with an empty registry.
func NewLoader(logger *slog.Logger) *Loader {
	return NewLoaderFor(NewRegistry(), logger)
}

// NewLoaderFor creates a loader that adds to an existing registry.
func NewLoaderFor(registry *Registry, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		registry: registry,
		logger:   logger,
	}
}

// Registry returns the registry the loader fills.
func (l *Loader) Registry() *Registry {
	return l.registry
}

// LoadFile reads and loads a document, choosing the format from the extension.
func (l *Loader) LoadFile(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		lerr := &LoadError{Source: path, Err: err}
		l.logger.Error("Failed to read dialogue file", "path", path, "error", err)
		return &Report{Source: path, Errors: []error{lerr}}, lerr
	}
	return l.Load(path, data, FormatFromPath(path))
}

// Load parses one document. NPC entries are added before the document's
// conversations so frames in the same document can name them. A malformed
// document returns a *LoadError and adds nothing; a malformed conversation
// is dropped and recorded in the report.
func (l *Loader) Load(source string, data []byte, format Format) (*Report, error) {
	report := &Report{Source: source}

	npcEntries, convEntries, err := l.split(source, data, format, report)
	if err != nil {
		return report, err
	}
	l.loadNPCs(source, npcEntries, report)
	l.loadConversations(source, convEntries, report)
	l.logWarnings(report)

	return report, nil
}

// Document is a raw document waiting to be loaded.
type Document struct {
	Source string
	Data   []byte
	Format Format
}

// LoadBatch loads several documents, adding the NPC entries of all of them
// before building any conversation. Frames may therefore name speakers
// defined in any document of the batch. Malformed documents are reported
// and skipped.
func (l *Loader) LoadBatch(docs []Document) []*Report {
	reports := make([]*Report, len(docs))
	convEntries := make([][]entry, len(docs))

	for i, doc := range docs {
		reports[i] = &Report{Source: doc.Source}
		npcs, convs, err := l.split(doc.Source, doc.Data, doc.Format, reports[i])
		if err != nil {
			continue
		}
		l.loadNPCs(doc.Source, npcs, reports[i])
		convEntries[i] = convs
	}

	for i, doc := range docs {
		l.loadConversations(doc.Source, convEntries[i], reports[i])
		l.logWarnings(reports[i])
	}

	return reports
}

func (l *Loader) split(source string, data []byte, format Format, report *Report) (npcs, convs []entry, err error) {
	npcs, convs, err = splitDocument(data, format)
	if err != nil {
		lerr := &LoadError{Source: source, Err: err}
		report.Errors = append(report.Errors, lerr)
		l.logger.Error("Failed to parse dialogue document", "source", source, "format", format, "error", err)
		return nil, nil, lerr
	}
	return npcs, convs, nil
}

func (l *Loader) loadNPCs(source string, entries []entry, report *Report) {
	for i, e := range entries {
		var npc NPCSettings
		if err := e(&npc); err != nil {
			id := e.identify()
			if id == "" {
				id = fmt.Sprintf("NPCs[%d]", i)
			}
			report.Errors = append(report.Errors, &LoadError{Source: source, Err: fmt.Errorf("npc %q: %w", id, err)})
			l.logger.Error("Failed to load NPC settings", "source", source, "npc", id, "error", err)
			continue
		}
		l.registry.AddNPC(&npc)
		report.NPCs = append(report.NPCs, npc.ID)
	}
	if len(report.NPCs) > 0 {
		l.logger.Debug("Loaded NPC settings", "source", source, "count", len(report.NPCs))
	}
}

func (l *Loader) loadConversations(source string, entries []entry, report *Report) {
	for i, e := range entries {
		var doc conversationDoc
		if err := e(&doc); err != nil {
			id := e.identify()
			if id == "" {
				id = fmt.Sprintf("conversations[%d]", i)
			}
			report.Errors = append(report.Errors, &LoadError{Source: source, Conversation: id, Err: err})
			l.logger.Error("Failed to load conversation", "source", source, "conversation", id, "error", err)
			continue
		}

		conv := l.buildConversation(source, &doc, report)
		l.registry.Add(conv)
		report.Conversations = append(report.Conversations, conv.ID)
		l.logger.Debug("Conversation loaded",
			"source", source,
			"conversation", conv.ID,
			"frames", len(conv.Frames),
			"starting_frame", conv.StartingFrame)
	}
}

func (l *Loader) logWarnings(report *Report) {
	for _, w := range report.Warnings {
		l.logger.Warn("Dialogue load warning", "source", report.Source, "warning", w.Error())
	}
}

// buildConversation applies the default cascade and auto-chains frames.
func (l *Loader) buildConversation(source string, doc *conversationDoc, report *Report) *Conversation {
	conv := &Conversation{
		ID:               doc.ID,
		Autoload:         boolOr(doc.Autoload, true),
		AllowSkip:        boolOr(doc.AllowSkip, true),
		WaitForInput:     boolOr(doc.WaitForInput, true),
		PortraitSettings: DefaultPortraitSettings().Merge(doc.PortraitSettings),
		TextSettings:     DefaultTextSettings().Merge(doc.TextSettings),
		Requirements:     doc.Requirements,
		StartingFrame:    doc.StartingFrame,
		Frames:           make(map[string]*Frame, len(doc.Frames)),
	}
	l.checkRequirements(source, conv.ID, "", conv.Requirements, report)

	var last *Frame
	lastNeedsLink := false

	for i := range doc.Frames {
		frame := l.buildFrame(source, conv, &doc.Frames[i], report)

		if _, dup := conv.Frames[frame.ID]; dup {
			report.Warnings = append(report.Warnings, fmt.Errorf("%s: conversation %q: duplicate frame %q replaces earlier definition", source, conv.ID, frame.ID))
		} else {
			conv.FrameOrder = append(conv.FrameOrder, frame.ID)
		}
		conv.Frames[frame.ID] = frame

		if lastNeedsLink {
			last.Links = []Link{{
				Frame:    frame.ID,
				ChoiceID: choiceID(conv.ID, last.ID, 0),
			}}
			l.logger.Debug("Frame auto-linked", "conversation", conv.ID, "from", last.ID, "to", frame.ID)
		}

		lastNeedsLink = !frame.EndOnThisFrame && len(frame.Links) == 0
		last = frame

		if conv.StartingFrame == "" {
			conv.StartingFrame = frame.ID
		}
	}

	if lastNeedsLink {
		last.EndOnThisFrame = true
	}

	return conv
}

func (l *Loader) buildFrame(source string, conv *Conversation, doc *frameDoc, report *Report) *Frame {
	frame := &Frame{
		ID:               doc.ID,
		Speaker:          doc.NPCSettings,
		EndOnThisFrame:   boolOr(doc.EndOnThisFrame, false),
		DisplayChoices:   boolOr(doc.DisplayChoices, false),
		AllowSkip:        boolOr(doc.AllowSkip, conv.AllowSkip),
		WaitForInput:     boolOr(doc.WaitForInput, conv.WaitForInput),
		PortraitSettings: conv.PortraitSettings,
		TextSettings:     conv.TextSettings,
	}

	if doc.NPCSettings != "" {
		if npc, ok := l.registry.NPC(doc.NPCSettings); ok {
			frame.PortraitSettings = frame.PortraitSettings.Merge(npc.PortraitSettings)
			frame.TextSettings = frame.TextSettings.Merge(npc.TextSettings)
		} else {
			report.Warnings = append(report.Warnings, &MissingReferenceWarning{
				Source:       source,
				Conversation: conv.ID,
				Frame:        doc.ID,
				Kind:         "speaker",
				ID:           doc.NPCSettings,
			})
		}
	}

	frame.PortraitSettings = frame.PortraitSettings.Merge(doc.PortraitSettings)
	frame.TextSettings = frame.TextSettings.Merge(doc.TextSettings)

	if len(doc.Links) > 0 {
		frame.Links = make([]Link, 0, len(doc.Links))
		for i, ld := range doc.Links {
			link := Link{
				Conversation: ld.LinkedConversation,
				Frame:        ld.LinkedFrame,
				Text:         norm.NFC.String(ld.Text),
				SaveChoice:   boolOr(ld.SaveChoice, false),
				ChoiceID:     ld.ChoiceID,
				Requirements: ld.Requirements,
			}
			if link.ChoiceID == "" {
				link.ChoiceID = choiceID(conv.ID, frame.ID, i)
			}
			l.checkRequirements(source, conv.ID, frame.ID, link.Requirements, report)
			frame.Links = append(frame.Links, link)
		}
	}

	frame.Sections = make([]Section, 0, len(doc.Sections))
	for _, sd := range doc.Sections {
		frame.Sections = append(frame.Sections, Section{
			PortraitSettings: frame.PortraitSettings.Merge(sd.PortraitSettings),
			TextSettings:     frame.TextSettings.Merge(sd.TextSettings),
			TriggerAnimation: sd.TriggerAnimation,
			TriggerEffect:    sd.TriggerEffect,
			ForceIdle:        boolOr(sd.ForceIdle, false),
			Text:             norm.NFC.String(sd.Text),
		})
	}

	return frame
}

// checkRequirements records requirements of unknown kind. They are kept and fail at evaluation.
func (l *Loader) checkRequirements(source, convID, frameID string, reqs []conditionals.Requirement, report *Report) {
	for _, req := range reqs {
		if !req.Kind.Valid() {
			report.Warnings = append(report.Warnings, fmt.Errorf("%s: conversation %q frame %q: %w",
				source, convID, frameID, &conditionals.UnknownKindError{Kind: req.Kind, ComparisonID: req.ComparisonID}))
		}
	}
}

func choiceID(convID, frameID string, index int) string {
	return fmt.Sprintf("%s/%s/%d", convID, frameID, index)
}

func boolOr(b *Bool, fallback bool) bool {
	if b == nil {
		return fallback
	}
	return bool(*b)
}
