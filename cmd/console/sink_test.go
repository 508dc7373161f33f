package main

import (
	"testing"

	"github.com/jwebster45206/dialogue-engine/pkg/dialogue"
	"github.com/jwebster45206/dialogue-engine/pkg/playback"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsoleSink_Choices(t *testing.T) {
	s := newConsoleSink()

	// A retiring set and a new set share link index 0
	s.ShowChoice("Old", 0)
	s.HideChoice(0)
	s.ShowChoice("New", 0)
	s.ShowChoice("Other", 1)

	visible := s.visibleChoices()
	require.Len(t, visible, 2)
	assert.Equal(t, "New", visible[0].label)
	assert.Equal(t, "Other", visible[1].label)

	s.DestroyChoice(0)
	require.Len(t, s.choices, 2)
	assert.Equal(t, "New", s.choices[0].label)

	s.HideChoice(0)
	s.HideChoice(1)
	assert.Empty(t, s.visibleChoices())
	s.DestroyChoice(1)
	s.DestroyChoice(0)
	assert.Empty(t, s.choices)

	// Destroying a choice that is not hidden does nothing
	s.ShowChoice("Stay", 2)
	s.DestroyChoice(2)
	assert.Len(t, s.visibleChoices(), 1)
}

func TestConsoleSink_Transcript(t *testing.T) {
	s := newConsoleSink()
	s.ClearText()
	assert.Equal(t, "", s.Transcript())

	s.AppendText("Hello")
	s.AppendText(" there.")
	assert.Equal(t, "Hello there.", s.Transcript())

	s.ClearText()
	s.note("> Yes")
	s.AppendText("Great.")
	assert.Equal(t, "Hello there.\n\n> Yes\n\nGreat.", s.Transcript())
	assert.Equal(t, "Great.", s.text.String())
}

func TestConsoleSink_Presentation(t *testing.T) {
	s := newConsoleSink()

	settings := dialogue.DefaultPortraitSettings()
	settings.DisplayName = "Smith"
	s.ShowPortrait(dialogue.SideRight, settings)
	assert.True(t, s.portraits[dialogue.SideRight].visible)
	assert.Equal(t, "Smith", s.portraits[dialogue.SideRight].settings.DisplayName)
	assert.False(t, s.portraits[dialogue.SideLeft].visible)

	s.HidePortrait(dialogue.SideRight)
	assert.False(t, s.portraits[dialogue.SideRight].visible)

	s.PlayCharacterCue("Dialogue-Default", 1.2)
	s.PlayCharacterCue("Dialogue-Default", 0.9)
	assert.Equal(t, 2, s.cues)
	assert.Equal(t, 0.9, s.lastPitch)

	s.SetWaitingIndicator(true)
	assert.True(t, s.waiting)

	s.TriggerSection("Wave", "Sparkle", false)
	assert.Equal(t, "Wave", s.animation)
	assert.Equal(t, "Sparkle", s.effect)
}

func TestConsoleSink_Notifications(t *testing.T) {
	s := newConsoleSink()
	s.Observe(playback.Notification{Type: playback.NotifyConversationStarted, Conversation: "greet"})
	s.Observe(playback.Notification{Type: playback.NotifyFrameEntered, Conversation: "greet", Frame: "F_start"})

	drained := s.drain()
	require.Len(t, drained, 2)
	assert.Equal(t, playback.NotifyFrameEntered, drained[1].Type)
	assert.Empty(t, s.drain())
}
