package dialogue

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/jwebster45206/dialogue-engine/pkg/conditionals"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError, // Reduce noise in tests
	}))
}

const greetDoc = `{
	"conversations": [
		{
			"id": "greet",
			"frames": [
				{
					"id": "F_start",
					"sections": [
						{"text": "Hello there."},
						{"text": "Nice weather today."}
					]
				},
				{
					"id": "F_end",
					"endOnThisFrame": true,
					"sections": [{"text": "Goodbye."}]
				}
			]
		}
	]
}`

func load(t *testing.T, docs ...string) (*Registry, []*Report) {
	t.Helper()
	loader := NewLoader(testLogger())
	var reports []*Report
	for i, doc := range docs {
		report, err := loader.Load(filepath.Join("mem", string(rune('a'+i))+".json"), []byte(doc), FormatJSON)
		require.NoError(t, err)
		reports = append(reports, report)
	}
	return loader.Registry(), reports
}

func TestLoad_GreetScenario(t *testing.T) {
	reg, reports := load(t, greetDoc)
	require.Empty(t, reports[0].Errors)
	assert.Equal(t, []string{"greet"}, reports[0].Conversations)

	conv, ok := reg.Conversation("greet")
	require.True(t, ok)
	assert.True(t, conv.Autoload, "autoload defaults to true")
	assert.Equal(t, "F_start", conv.StartingFrame, "starting frame defaults to first frame")
	assert.Equal(t, []string{"F_start", "F_end"}, conv.FrameOrder)

	start := conv.Frames["F_start"]
	require.Len(t, start.Links, 1)
	assert.Equal(t, "F_end", start.Links[0].Frame)
	assert.Empty(t, start.Links[0].Conversation)
	assert.Empty(t, start.Links[0].Requirements)
	assert.Len(t, start.Sections, 2)

	end := conv.Frames["F_end"]
	assert.True(t, end.EndOnThisFrame)
	assert.Empty(t, end.Links)
}

func TestLoad_AutoChain(t *testing.T) {
	reg, _ := load(t, `{"conversations":[{"id":"c","frames":[
		{"id":"F1","sections":[{"text":"one"}]},
		{"id":"F2","sections":[{"text":"two"}]},
		{"id":"F3","sections":[{"text":"three"}]}
	]}]}`)

	conv, ok := reg.Conversation("c")
	require.True(t, ok)

	f1, f2, f3 := conv.Frames["F1"], conv.Frames["F2"], conv.Frames["F3"]
	require.Len(t, f1.Links, 1)
	assert.Equal(t, "F2", f1.Links[0].Frame)
	require.Len(t, f2.Links, 1)
	assert.Equal(t, "F3", f2.Links[0].Frame)
	assert.Empty(t, f3.Links)
	assert.True(t, f3.EndOnThisFrame)
	assert.False(t, f1.EndOnThisFrame)
	assert.False(t, f2.EndOnThisFrame)
}

func TestLoad_AutoChainSkipsLinkedAndTerminalFrames(t *testing.T) {
	reg, _ := load(t, `{"conversations":[{"id":"c","frames":[
		{"id":"A","links":[{"linkedFrame":"C"}],"sections":[{"text":"a"}]},
		{"id":"B","endOnThisFrame":true,"sections":[{"text":"b"}]},
		{"id":"C","links":[],"sections":[{"text":"c"}]},
		{"id":"D","sections":[{"text":"d"}]}
	]}]}`)

	conv, _ := reg.Conversation("c")
	require.Len(t, conv.Frames["A"].Links, 1)
	assert.Equal(t, "C", conv.Frames["A"].Links[0].Frame, "explicit links are kept verbatim")
	assert.Empty(t, conv.Frames["B"].Links, "terminal frames are not chained")
	require.Len(t, conv.Frames["C"].Links, 1, "an empty links list is chained")
	assert.Equal(t, "D", conv.Frames["C"].Links[0].Frame)
	assert.True(t, conv.Frames["D"].EndOnThisFrame)
}

func TestLoad_NoDeadEndFrames(t *testing.T) {
	reg, _ := load(t, greetDoc, `{"conversations":[
		{"id":"x","frames":[
			{"id":"a","displayChoices":true,"links":[{"linkedFrame":"b","text":"go"}],"sections":[{"text":"?"}]},
			{"id":"b","sections":[{"text":"b"}]},
			{"id":"c","links":[],"sections":[]}
		]},
		{"id":"single","frames":[{"id":"only","sections":[{"text":"hi"}]}]}
	]}`)

	for _, conv := range reg.Conversations() {
		for _, frame := range conv.Frames {
			assert.True(t, frame.EndOnThisFrame || len(frame.Links) > 0,
				"conversation %s frame %s is a dead end", conv.ID, frame.ID)
		}
	}
}

func TestLoad_ExplicitStartingFrame(t *testing.T) {
	reg, _ := load(t, `{"conversations":[{"id":"c","startingFrame":"b","frames":[
		{"id":"a","sections":[{"text":"a"}]},
		{"id":"b","sections":[{"text":"b"}]}
	]}]}`)
	conv, _ := reg.Conversation("c")
	assert.Equal(t, "b", conv.StartingFrame)
}

func TestLoad_SettingsPrecedence(t *testing.T) {
	reg, reports := load(t, `{
		"NPCs": [
			{"id": "smith", "portraitSettings": {"image": "smith.png", "position": "right"}, "textSettings": {"textPitch": 0.8}}
		],
		"conversations": [{
			"id": "c",
			"portraitSettings": {"displayName": "Narrator", "large": true},
			"textSettings": {"textSpeed": 2, "textAudio": "Blip"},
			"frames": [
				{
					"id": "f1",
					"npcSettings": "smith",
					"textSettings": {"textPitchVariation": 0.5},
					"sections": [
						{"text": "plain"},
						{"text": "override", "portraitSettings": {"image": "smith_angry.png"}, "textSettings": {"textSpeed": 0.5}}
					]
				},
				{
					"id": "f2",
					"portraitSettings": {"image": "other.png"},
					"sections": [{"text": "other"}]
				}
			]
		}]
	}`)
	require.Empty(t, reports[0].Errors)
	require.Empty(t, reports[0].Warnings)

	conv, _ := reg.Conversation("c")

	// Conversation level merges over package defaults
	assert.Equal(t, "Narrator", conv.PortraitSettings.DisplayName)
	assert.True(t, conv.PortraitSettings.Large)
	assert.True(t, conv.PortraitSettings.Active)
	assert.Equal(t, "Neutral", conv.PortraitSettings.IdleAnimation)
	assert.Equal(t, 2.0, conv.TextSettings.Speed)
	assert.Equal(t, 1.0, conv.TextSettings.Pitch)

	f1 := conv.Frames["f1"]
	assert.Equal(t, "smith", f1.Speaker)
	assert.Equal(t, "smith.png", f1.PortraitSettings.Image, "npc table overrides conversation")
	assert.Equal(t, SideRight, f1.PortraitSettings.Position)
	assert.Equal(t, "Narrator", f1.PortraitSettings.DisplayName, "npc table inherits conversation")
	assert.Equal(t, 0.8, f1.TextSettings.Pitch)
	assert.Equal(t, 0.5, f1.TextSettings.PitchVariation, "frame overrides apply last")
	assert.Equal(t, "Blip", f1.TextSettings.Audio)

	plain := f1.Sections[0]
	assert.Equal(t, f1.PortraitSettings, plain.PortraitSettings, "section inherits frame")
	assert.Equal(t, f1.TextSettings, plain.TextSettings)

	override := f1.Sections[1]
	assert.Equal(t, "smith_angry.png", override.PortraitSettings.Image)
	assert.Equal(t, SideRight, override.PortraitSettings.Position)
	assert.Equal(t, 0.5, override.TextSettings.Speed)
	assert.Equal(t, 0.8, override.TextSettings.Pitch)

	f2 := conv.Frames["f2"]
	assert.Equal(t, "other.png", f2.PortraitSettings.Image)
	assert.Equal(t, SideLeft, f2.PortraitSettings.Position, "npc settings of f1 do not leak into f2")
	assert.Empty(t, conv.PortraitSettings.Image, "frame overrides do not alter conversation defaults")

	// Mutating a merged copy never reaches the shared defaults
	f2.PortraitSettings.DisplayName = "changed"
	f2.TextSettings.Speed = 99
	assert.Equal(t, "Narrator", conv.PortraitSettings.DisplayName)
	assert.Equal(t, "Narrator", f1.PortraitSettings.DisplayName)
	assert.Equal(t, 2.0, conv.TextSettings.Speed)
}

func TestLoad_MissingSpeakerKeepsDefaults(t *testing.T) {
	reg, reports := load(t, `{"conversations":[{"id":"c","textSettings":{"textPitch":1.5},"frames":[
		{"id":"f","npcSettings":"ghost","sections":[{"text":"boo"}]}
	]}]}`)

	require.Len(t, reports[0].Warnings, 1)
	var missing *MissingReferenceWarning
	require.True(t, errors.As(reports[0].Warnings[0], &missing))
	assert.Equal(t, "speaker", missing.Kind)
	assert.Equal(t, "ghost", missing.ID)

	conv, ok := reg.Conversation("c")
	require.True(t, ok, "missing speaker must not abort the load")
	assert.Equal(t, 1.5, conv.Frames["f"].TextSettings.Pitch)
}

func TestLoad_StringScalars(t *testing.T) {
	reg, reports := load(t, `{"conversations":[{"id":"c","autoload":"False","allowSkip":"false",
		"textSettings":{"textSpeed":"2.5"},
		"frames":[{"id":"f","endOnThisFrame":"true","sections":[{"text":"x","forceIdle":"True"}]}]}]}`)
	require.Empty(t, reports[0].Errors)

	conv, _ := reg.Conversation("c")
	assert.False(t, conv.Autoload)
	assert.False(t, conv.AllowSkip)
	assert.False(t, conv.Frames["f"].AllowSkip, "frame inherits conversation allowSkip")
	assert.Equal(t, 2.5, conv.TextSettings.Speed)
	assert.True(t, conv.Frames["f"].EndOnThisFrame)
	assert.True(t, conv.Frames["f"].Sections[0].ForceIdle)
}

func TestLoad_MalformedScalarDropsOnlyThatConversation(t *testing.T) {
	reg, reports := load(t, `{"conversations":[
		{"id":"good","frames":[{"id":"f","sections":[{"text":"ok"}]}]},
		{"id":"bad","frames":[{"id":"f","sections":[{"text":"x","textSettings":{"textSpeed":"fast"}}]}]},
		{"id":"also_good","frames":[{"id":"f","sections":[{"text":"ok"}]}]}
	]}`)

	require.Len(t, reports[0].Errors, 1)
	var lerr *LoadError
	require.True(t, errors.As(reports[0].Errors[0], &lerr))
	assert.Equal(t, "bad", lerr.Conversation)

	assert.Equal(t, 2, reg.Len())
	_, ok := reg.Conversation("bad")
	assert.False(t, ok)
	assert.Equal(t, []string{"good", "also_good"}, reports[0].Conversations)
}

func TestLoad_MalformedDocument(t *testing.T) {
	loader := NewLoader(testLogger())

	_, err := loader.Load("broken.json", []byte(`{"conversations": [`), FormatJSON)
	var lerr *LoadError
	require.True(t, errors.As(err, &lerr))
	assert.Equal(t, "broken.json", lerr.Source)
	assert.Empty(t, lerr.Conversation)

	_, err = loader.Load("empty.json", []byte("  \n"), FormatJSON)
	assert.Error(t, err)

	// Later documents still load
	report, err := loader.Load("greet.json", []byte(greetDoc), FormatJSON)
	require.NoError(t, err)
	assert.Empty(t, report.Errors)
	assert.Equal(t, 1, loader.Registry().Len())
}

func TestLoad_UnknownRequirementIsReported(t *testing.T) {
	reg, reports := load(t, `{"conversations":[{"id":"c","requirements":[{"levelAbove":"3"}],"frames":[
		{"id":"f","links":[{"linkedFrame":"f","requirements":[{"questComplete":"q"}]}],"sections":[{"text":"x"}]}
	]}]}`)

	require.Len(t, reports[0].Warnings, 1)
	var unknown *conditionals.UnknownKindError
	assert.True(t, errors.As(reports[0].Warnings[0], &unknown))

	conv, _ := reg.Conversation("c")
	require.Len(t, conv.Requirements, 1)
	assert.Equal(t, conditionals.KindInvalid, conv.Requirements[0].Kind)
	assert.Equal(t, conditionals.Requirement{Kind: conditionals.KindQuestComplete, ComparisonID: "q"},
		conv.Frames["f"].Links[0].Requirements[0])
}

func TestLoad_LinkFields(t *testing.T) {
	reg, _ := load(t, `{"conversations":[{"id":"c","frames":[
		{"id":"ask","displayChoices":true,"links":[
			{"linkedFrame":"yes","text":"Yes","saveChoice":true,"choiceId":"said_yes"},
			{"linkedConversation":"other","text":"Elsewhere","saveChoice":"true"}
		],"sections":[{"text":"Well?"}]},
		{"id":"yes","endOnThisFrame":true,"sections":[{"text":"Good."}]}
	]}]}`)

	conv, _ := reg.Conversation("c")
	links := conv.Frames["ask"].Links
	require.Len(t, links, 2)
	assert.Equal(t, Link{Frame: "yes", Text: "Yes", SaveChoice: true, ChoiceID: "said_yes"}, links[0])
	assert.Equal(t, "other", links[1].Conversation)
	assert.True(t, links[1].SaveChoice)
	assert.Equal(t, "c/ask/1", links[1].ChoiceID, "missing choice ids are synthesised")
}

func TestLoad_LoadingTwiceIsStructurallyEqual(t *testing.T) {
	first, _ := load(t, greetDoc)
	second, _ := load(t, greetDoc)

	a, _ := first.Conversation("greet")
	b, _ := second.Conversation("greet")
	assert.Equal(t, a, b)

	// Same registry: the second load wins without duplicating the entry
	loader := NewLoader(testLogger())
	_, err := loader.Load("one.json", []byte(greetDoc), FormatJSON)
	require.NoError(t, err)
	before, _ := loader.Registry().Conversation("greet")
	_, err = loader.Load("two.json", []byte(greetDoc), FormatJSON)
	require.NoError(t, err)
	after, _ := loader.Registry().Conversation("greet")

	assert.Equal(t, 1, loader.Registry().Len())
	assert.NotSame(t, before, after)
	assert.Equal(t, before, after)
}

func TestLoad_CollisionKeepsLoadOrder(t *testing.T) {
	reg, _ := load(t,
		`{"conversations":[{"id":"a","frames":[{"id":"f","sections":[{"text":"a1"}]}]},{"id":"b","frames":[{"id":"f","sections":[{"text":"b"}]}]}]}`,
		`{"conversations":[{"id":"a","frames":[{"id":"f","sections":[{"text":"a2"}]}]}]}`,
	)

	convs := reg.Conversations()
	require.Len(t, convs, 2)
	assert.Equal(t, "a", convs[0].ID)
	assert.Equal(t, "a2", convs[0].Frames["f"].Sections[0].Text)
	assert.Equal(t, "b", convs[1].ID)
}

func TestLoad_YAMLMatchesJSON(t *testing.T) {
	yamlDoc := `
conversations:
  - id: greet
    frames:
      - id: F_start
        sections:
          - text: Hello there.
          - text: Nice weather today.
      - id: F_end
        endOnThisFrame: true
        sections:
          - text: Goodbye.
`
	fromJSON, _ := load(t, greetDoc)

	loader := NewLoader(testLogger())
	report, err := loader.Load("greet.yaml", []byte(yamlDoc), FormatYAML)
	require.NoError(t, err)
	require.Empty(t, report.Errors)

	a, _ := fromJSON.Conversation("greet")
	b, ok := loader.Registry().Conversation("greet")
	require.True(t, ok)
	assert.Equal(t, a, b)
}

func TestLoad_YAMLMalformedScalar(t *testing.T) {
	loader := NewLoader(testLogger())
	report, err := loader.Load("bad.yaml", []byte(`
conversations:
  - id: bad
    autoload: sometimes
    frames:
      - id: f
        sections:
          - text: x
  - id: good
    frames:
      - id: f
        sections:
          - text: y
`), FormatYAML)
	require.NoError(t, err)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, []string{"good"}, report.Conversations)
}

func TestLoad_NormalisesText(t *testing.T) {
	// "e" followed by a combining acute accent composes to a single rune
	reg, _ := load(t, `{"conversations":[{"id":"c","frames":[{"id":"f","sections":[{"text":"cafe\u0301"}]}]}]}`)
	conv, _ := reg.Conversation("c")
	assert.Equal(t, "caf\u00e9", conv.Frames["f"].Sections[0].Text)
	assert.Len(t, []rune(conv.Frames["f"].Sections[0].Text), 4)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "greet.json")
	require.NoError(t, os.WriteFile(path, []byte(greetDoc), 0644))

	loader := NewLoader(testLogger())
	report, err := loader.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, path, report.Source)
	assert.Equal(t, 1, loader.Registry().Len())

	_, err = loader.LoadFile(filepath.Join(dir, "missing.json"))
	var lerr *LoadError
	assert.True(t, errors.As(err, &lerr))
}

func TestFormatFromPath(t *testing.T) {
	assert.Equal(t, FormatYAML, FormatFromPath("a/b.yaml"))
	assert.Equal(t, FormatYAML, FormatFromPath("b.YML"))
	assert.Equal(t, FormatJSON, FormatFromPath("b.json"))
	assert.Equal(t, FormatJSON, FormatFromPath("b"))
	assert.True(t, IsDocumentPath("x.yml"))
	assert.False(t, IsDocumentPath("x.txt"))
}

func TestLoadBatch_NPCsFromAnyDocument(t *testing.T) {
	loader := NewLoader(testLogger())
	reports := loader.LoadBatch([]Document{
		{Source: "a.json", Format: FormatJSON, Data: []byte(`{"conversations":[{"id":"c","frames":[
			{"id":"f","npcSettings":"smith","sections":[{"text":"x"}]}
		]}]}`)},
		{Source: "b.json", Format: FormatJSON, Data: []byte(`{"conversations": [`)},
		{Source: "npcs.yaml", Format: FormatYAML, Data: []byte("NPCs:\n  - id: smith\n    textSettings:\n      textAudio: Clang\n")},
	})

	require.Len(t, reports, 3)
	assert.Empty(t, reports[0].Warnings, "speaker from a later document is found")
	assert.Equal(t, []string{"c"}, reports[0].Conversations)
	require.Len(t, reports[1].Errors, 1)
	assert.Equal(t, []string{"smith"}, reports[2].NPCs)

	conv, ok := loader.Registry().Conversation("c")
	require.True(t, ok)
	assert.Equal(t, "Clang", conv.Frames["f"].TextSettings.Audio)
}
