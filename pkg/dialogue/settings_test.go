package dialogue

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDefaults(t *testing.T) {
	text := DefaultTextSettings()
	assert.Equal(t, TextSettings{Speed: 1, Pitch: 1, PitchVariation: 0, Audio: "Dialogue-Default"}, text)

	portrait := DefaultPortraitSettings()
	assert.True(t, portrait.Active)
	assert.False(t, portrait.Large)
	assert.Equal(t, SideLeft, portrait.Position)
	assert.Equal(t, "Neutral", portrait.IdleAnimation)
	assert.Equal(t, "Neutral", portrait.TalkAnimation)
}

func TestTextSettings_Merge(t *testing.T) {
	base := DefaultTextSettings()

	tests := []struct {
		name     string
		override *TextOverride
		expected TextSettings
	}{
		{
			name:     "nil override",
			override: nil,
			expected: base,
		},
		{
			name:     "speed only",
			override: &TextOverride{Speed: ptr(Float(2))},
			expected: TextSettings{Speed: 2, Pitch: 1, Audio: "Dialogue-Default"},
		},
		{
			name: "all fields",
			override: &TextOverride{
				Speed:          ptr(Float(0.5)),
				Pitch:          ptr(Float(1.2)),
				PitchVariation: ptr(Float(0.3)),
				Audio:          ptr("Blip"),
			},
			expected: TextSettings{Speed: 0.5, Pitch: 1.2, PitchVariation: 0.3, Audio: "Blip"},
		},
		{
			name:     "explicit zero is applied",
			override: &TextOverride{Pitch: ptr(Float(0))},
			expected: TextSettings{Speed: 1, Pitch: 0, Audio: "Dialogue-Default"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, base.Merge(tt.override))
			assert.Equal(t, DefaultTextSettings(), base, "merge must not modify the receiver")
		})
	}
}

func TestPortraitSettings_Merge(t *testing.T) {
	base := DefaultPortraitSettings()
	merged := base.Merge(&PortraitOverride{
		Active:   ptr(Bool(false)),
		Image:    ptr("elder.png"),
		Position: ptr(SideRight),
	})

	assert.False(t, merged.Active)
	assert.Equal(t, "elder.png", merged.Image)
	assert.Equal(t, SideRight, merged.Position)
	assert.Equal(t, "Neutral", merged.IdleAnimation)
	assert.Equal(t, DefaultPortraitSettings(), base)
}

func TestSide(t *testing.T) {
	tests := []struct {
		raw      string
		expected Side
	}{
		{`"left"`, SideLeft},
		{`"right"`, SideRight},
		{`"Right"`, SideRight},
		{`"centre"`, SideRight},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			var s Side
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &s))
			assert.Equal(t, tt.expected, s)
		})
	}

	var s Side
	require.NoError(t, yaml.Unmarshal([]byte("left"), &s))
	assert.Equal(t, SideLeft, s)
	assert.Equal(t, SideRight, SideLeft.Other())
	assert.Equal(t, "right", SideRight.String())
}

func TestScalars(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    bool
		wantErr bool
	}{
		{"bool literal", `true`, true, false},
		{"quoted", `"true"`, true, false},
		{"capitalised", `"False"`, false, false},
		{"garbage", `"maybe"`, false, true},
		{"number", `2`, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var b Bool
			err := json.Unmarshal([]byte(tt.raw), &b)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, bool(b))
		})
	}

	var f Float
	require.NoError(t, json.Unmarshal([]byte(`"1.25"`), &f))
	assert.Equal(t, Float(1.25), f)
	assert.Error(t, json.Unmarshal([]byte(`"fast"`), &f))
	require.NoError(t, yaml.Unmarshal([]byte("0.5"), &f))
	assert.Equal(t, Float(0.5), f)
}
