package presets

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/chameleon/internal/vibe"
	chamerrors "github.com/alexisbeaulieu97/chameleon/pkg/errors"
)

func TestBuiltinRegistryContents(t *testing.T) {
	t.Parallel()

	reg := Builtin()
	require.Equal(t, []string{"academic", "cyberpunk", "kid", "cozy"}, reg.Keys())
	require.Equal(t, "academic", reg.DefaultKey())
	require.Equal(t, "Academic", reg.Default().ThemeName)

	for _, entry := range reg.Entries() {
		require.NoError(t, vibe.Validate(entry.Vibe), entry.Key)
		assert.NotEmpty(t, entry.Label, entry.Key)
	}
}

func TestCyberpunkPreset(t *testing.T) {
	t.Parallel()

	v, ok := Builtin().Get("cyberpunk")
	require.True(t, ok)
	assert.Equal(t, vibe.FontMono, v.Typography.FontFamily)
	assert.Equal(t, vibe.LayoutDense, v.Layout.Style)
	assert.Equal(t, vibe.ToneTechnical, v.Voice.Tone)
	assert.Equal(t, vibe.EmojiNone, v.Voice.EmojiFrequency)
	assert.Equal(t, "0px", v.Layout.BorderRadius)
}

func TestPersonaCoverage(t *testing.T) {
	t.Parallel()

	reg := Builtin()
	kid, _ := reg.Get("kid")
	assert.Equal(t, vibe.EmojiHigh, kid.Voice.EmojiFrequency)

	cozy, _ := reg.Get("cozy")
	assert.Equal(t, vibe.ToneStorytelling, cozy.Voice.Tone)
	assert.Equal(t, "cozy-cabin", cozy.Slug())

	assert.Equal(t, vibe.ToneNeutral, reg.Default().Voice.Tone)
}

func TestGetUnknownKey(t *testing.T) {
	t.Parallel()

	_, ok := Builtin().Get("vaporwave")
	require.False(t, ok)
	require.False(t, Builtin().Has("vaporwave"))

	_, err := Builtin().Lookup("vaporwave")
	require.True(t, errors.Is(err, ErrUnknownPreset))
}

func TestEntriesReturnsCopy(t *testing.T) {
	t.Parallel()

	entries := Builtin().Entries()
	entries[0].Vibe.ThemeName = "Mutated"

	again, _ := Builtin().Get(entries[0].Key)
	require.Equal(t, "Academic", again.ThemeName)
}

func TestKeyFor(t *testing.T) {
	t.Parallel()

	cozy, _ := Builtin().Get("cozy")
	key, ok := Builtin().KeyFor(cozy)
	require.True(t, ok)
	require.Equal(t, "cozy", key)

	cozy.ThemeName = "Custom"
	_, ok = Builtin().KeyFor(cozy)
	require.False(t, ok)
}

func TestNewRejectsBadEntries(t *testing.T) {
	t.Parallel()

	good := Builtin().Default()
	bad := good
	bad.Colors.Primary = "red"

	cases := []struct {
		name       string
		entries    []Entry
		defaultKey string
	}{
		{"empty", nil, "x"},
		{"missing key", []Entry{{Vibe: good}}, "x"},
		{"unsafe key", []Entry{{Key: "Big Theme", Vibe: good}}, "Big Theme"},
		{"duplicate", []Entry{{Key: "a", Vibe: good}, {Key: "a", Vibe: good}}, "a"},
		{"invalid vibe", []Entry{{Key: "a", Vibe: bad}}, "a"},
		{"unknown default", []Entry{{Key: "a", Vibe: good}}, "b"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := New(tc.entries, tc.defaultKey)
			var valErr *chamerrors.ValidationError
			require.ErrorAs(t, err, &valErr)
		})
	}
}

func TestParseReportsYAMLErrors(t *testing.T) {
	t.Parallel()

	_, err := Parse([]byte("default: a\npresets:\n  - key: [unclosed\n"))
	var parseErr *chamerrors.ParseError
	require.ErrorAs(t, err, &parseErr)
	require.Equal(t, "presets.yaml", parseErr.Path)
}

func TestReadingModes(t *testing.T) {
	t.Parallel()

	modes := ReadingModes()
	require.Len(t, modes, 3)
	require.Equal(t, "simple", modes[0].ID)

	expert, ok := ReadingModeByID("expert")
	require.True(t, ok)
	require.NotEmpty(t, expert.Prompt)

	kid, _ := Builtin().Get("kid")
	cyber, _ := Builtin().Get("cyberpunk")
	assert.Equal(t, "simple", ActiveReadingMode(kid))
	assert.Equal(t, "expert", ActiveReadingMode(cyber))
	assert.Equal(t, "", ActiveReadingMode(Builtin().Default()))

	heroOnly := Builtin().Default()
	heroOnly.Layout.Style = vibe.LayoutHero
	assert.Equal(t, "visual", ActiveReadingMode(heroOnly))
}
