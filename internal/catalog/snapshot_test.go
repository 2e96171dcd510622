package catalog

import (
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/school-zone-cli/internal/model"
)

func school(code, name string, level model.Level, gis string) model.School {
	return model.School{Code: code, DisplayName: name, Level: level, GISName: gis}
}

func feeder(code, name, hs string) model.School {
	s := school(code, name, model.LevelElementary, "")
	s.FeederToHighSchool = model.StringPtr(hs)
	return s
}

func testSnapshot(t *testing.T) *Snapshot {
	t.Helper()
	academy := school("H2", "Seneca High", model.LevelHigh, "SENECA")
	academy.Academies = true
	magnet := school("M1", "Meyzeek Middle", model.LevelMiddle, "MEYZEEK")
	magnet.UniversalMagnetSchool = true

	snap, err := NewSnapshot([]model.School{
		school("H1", "Ballard High", model.LevelHigh, "BALLARD"),
		academy,
		magnet,
		school("M2", "Shared Middle", model.LevelMiddle, "SHARED"),
		school("H3", "Shared High", model.LevelHigh, "SHARED"),
		feeder("E1", "Alpha Elementary", "Seneca High"),
		feeder("E2", "Beta Elementary", "seneca high "),
		feeder("E3", "Gamma Elementary", "Ballard High"),
		school("", "No Code", model.LevelHigh, "NOCODE"),
		school("H1", "Duplicate Ballard", model.LevelHigh, "BALLARD2"),
	})
	require.NoError(t, err)
	return snap
}

func TestNewSnapshot(t *testing.T) {
	snap := testSnapshot(t)
	assert.Equal(t, 8, snap.Len())
	assert.NotEmpty(t, snap.Version)

	s, ok := snap.Lookup("H1", "")
	require.True(t, ok)
	assert.Equal(t, "Ballard High", s.DisplayName)
}

func TestNewSnapshotEmpty(t *testing.T) {
	_, err := NewSnapshot(nil)
	assert.True(t, eris.Is(err, ErrEmptyCatalog))
}

func TestResolveByGISName(t *testing.T) {
	snap := testSnapshot(t)

	tests := []struct {
		name     string
		gis      string
		hint     model.Level
		wantCode string
		wantOK   bool
	}{
		{"exact", "BALLARD", model.LevelHigh, "H1", true},
		{"case and space", "  ballard ", "", "H1", true},
		{"wrong level", "BALLARD", model.LevelMiddle, "", false},
		{"shared with hint", "SHARED", model.LevelMiddle, "M2", true},
		{"shared without hint is ambiguous", "SHARED", "", "", false},
		{"unknown", "NOPE", model.LevelHigh, "", false},
		{"empty", "", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := snap.ResolveByGISName(tt.gis, tt.hint)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantCode, got.Code)
		})
	}
}

func TestResolveFeeders(t *testing.T) {
	snap := testSnapshot(t)

	got := snap.ResolveFeeders("seneca")
	require.Len(t, got, 2)
	assert.Equal(t, "E1", got[0].Code)
	assert.Equal(t, "E2", got[1].Code)

	assert.Empty(t, snap.ResolveFeeders("UNKNOWN"))
	assert.Empty(t, snap.ResolveFeeders("MEYZEEK"))
}

func TestFindByFlags(t *testing.T) {
	snap := testSnapshot(t)

	got := snap.FindByFlags(model.FlagAcademies, model.FlagUniversalMagnetSchool)
	require.Len(t, got, 2)
	assert.Equal(t, "H2", got[0].Code)
	assert.Equal(t, "M1", got[1].Code)

	assert.Empty(t, snap.FindByFlags(model.FlagChoiceZone))
	assert.Empty(t, snap.FindByFlags())
}

func TestGetDetails(t *testing.T) {
	snap := testSnapshot(t)

	got := snap.GetDetails([]string{"H1", "E2", "missing"})
	assert.Len(t, got, 2)
	assert.Equal(t, "Beta Elementary", got["E2"].DisplayName)
	_, ok := got["missing"]
	assert.False(t, ok)
}

func TestLookupByDisplayName(t *testing.T) {
	snap := testSnapshot(t)

	s, ok := snap.Lookup("meyzeek middle", "")
	require.True(t, ok)
	assert.Equal(t, "M1", s.Code)

	s, ok = snap.Lookup("Meyzeek Middle", model.LevelMiddle)
	require.True(t, ok)
	assert.Equal(t, "M1", s.Code)

	_, ok = snap.Lookup("Meyzeek Middle", model.LevelElementary)
	assert.False(t, ok)

	_, ok = snap.Lookup("Nowhere Elementary", "")
	assert.False(t, ok)
}

func TestLookupSharedDisplayName(t *testing.T) {
	snap, err := NewSnapshot([]model.School{
		school("A100", "J. Graham Brown School", model.LevelHigh, "BROWN"),
		school("M100", "J. Graham Brown School", model.LevelMiddle, "BROWN"),
		school("Z100", "J. Graham Brown School", model.LevelElementary, "BROWN"),
		school("Z200", "Twin Elementary", model.LevelElementary, "TWIN1"),
		school("Z300", "Twin Elementary", model.LevelElementary, "TWIN2"),
	})
	require.NoError(t, err)

	_, ok := snap.Lookup("J. Graham Brown School", "")
	assert.False(t, ok, "name shared across levels needs a level")

	s, ok := snap.Lookup("j. graham brown school", model.LevelElementary)
	require.True(t, ok)
	assert.Equal(t, "Z100", s.Code)

	s, ok = snap.Lookup("J. Graham Brown School", model.LevelMiddle)
	require.True(t, ok)
	assert.Equal(t, "M100", s.Code)

	_, ok = snap.Lookup("Twin Elementary", model.LevelElementary)
	assert.False(t, ok, "name shared within a level is not found")

	s, ok = snap.Lookup("A100", model.LevelElementary)
	require.True(t, ok, "code match ignores the level")
	assert.Equal(t, "A100", s.Code)
}
