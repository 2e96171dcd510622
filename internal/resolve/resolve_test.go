package resolve

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/school-zone-cli/internal/catalog"
	"github.com/sells-group/school-zone-cli/internal/model"
	"github.com/sells-group/school-zone-cli/internal/overrides"
	"github.com/sells-group/school-zone-cli/internal/zones"
)

const (
	queryLat = 38.20
	queryLon = -85.70
)

// stubZones returns the same zones for every point.
type stubZones []*zones.Zone

func (s stubZones) QueryContaining(zones.Point) []*zones.Zone { return s }

func zone(cat model.ZoneCategory, attrs map[string]string) *zones.Zone {
	return zones.NewZone(cat, string(cat), nil, attrs, nil)
}

func school(code, name string, level model.Level, gis string) model.School {
	return model.School{Code: code, DisplayName: name, Level: level, GISName: gis}
}

func at(s model.School, lat, lon float64) model.School {
	s.Latitude, s.Longitude = model.Float64Ptr(lat), model.Float64Ptr(lon)
	return s
}

func inNetwork(s model.School, network, zone string) model.School {
	s.Network = model.StringPtr(network)
	s.SchoolZone = model.StringPtr(zone)
	return s
}

func feeder(s model.School, hs string) model.School {
	s.FeederToHighSchool = model.StringPtr(hs)
	return s
}

func newEngine(t *testing.T, zs stubZones, tables *overrides.Tables, schools ...model.School) *Engine {
	t.Helper()
	snap, err := catalog.NewSnapshot(schools)
	require.NoError(t, err)
	return NewEngine(zs, &Dataset{Catalog: snap, Overrides: tables})
}

func resolve(e *Engine) model.Result {
	return e.ResolveSchools(Query{Lat: queryLat, Lon: queryLon})
}

func statusOf(t *testing.T, res model.Result, code string) model.Entry {
	t.Helper()
	for _, g := range res.ResultsByZone {
		for _, e := range g.Schools {
			if e.School.Code == code {
				return e
			}
		}
	}
	t.Fatalf("school %s not in result", code)
	return model.Entry{}
}

func assertConsistent(t *testing.T, res model.Result) {
	t.Helper()
	seen := map[string]bool{}
	for _, g := range res.ResultsByZone {
		require.NotEmpty(t, g.Schools)
		for _, e := range g.Schools {
			assert.False(t, seen[e.School.Code], "duplicate %s", e.School.Code)
			seen[e.School.Code] = true
			assert.Equal(t, g.ZoneType, e.Category)
			assert.Equal(t, model.CategoryFor(e.Status, e.School.Level), e.Category)
		}
	}
}

var (
	ballard = inNetwork(school("H100", "Ballard High", model.LevelHigh, "BALLARD"), "A", "Ballard")
	seneca  = inNetwork(school("H200", "Seneca High", model.LevelHigh, "SENECA"), "B", "Seneca")
)

func TestResideHighOnly(t *testing.T) {
	e := newEngine(t, stubZones{zone(model.ZoneResideHigh, map[string]string{"High": "ballard "})}, nil, ballard)

	res := resolve(e)
	require.Len(t, res.ResultsByZone, 1)
	g := res.ResultsByZone[0]
	assert.Equal(t, model.CategoryHigh, g.ZoneType)
	require.Len(t, g.Schools, 1)
	assert.Equal(t, "H100", g.Schools[0].School.Code)
	assert.Equal(t, model.StatusReside, g.Schools[0].Status)
	assert.False(t, res.IsInChoiceZone)
	assertConsistent(t, res)
}

func TestFeedersSortedByDistance(t *testing.T) {
	schools := []model.School{
		seneca,
		at(feeder(school("E1", "Alpha Elementary", model.LevelElementary, "ALPHA"), "Seneca High"), 38.21, -85.70),
		at(feeder(school("E2", "Beta Elementary", model.LevelElementary, "BETA"), "seneca high"), 38.25, -85.70),
		at(feeder(school("E3", "Gamma Elementary", model.LevelElementary, "GAMMA"), "Seneca High"), 38.205, -85.70),
		feeder(school("E9", "Other Elementary", model.LevelElementary, "OTHER"), "Ballard High"),
	}
	e := newEngine(t, stubZones{zone(model.ZoneResideElementary, map[string]string{"HIGH": "SENECA"})}, nil, schools...)

	res := resolve(e)
	g := res.Group(model.CategoryElementary)
	require.NotNil(t, g)
	require.Len(t, g.Schools, 3)
	assert.Equal(t, []string{"E3", "E1", "E2"}, res.Codes())
	for _, s := range g.Schools {
		assert.Equal(t, model.StatusReside, s.Status)
		require.NotNil(t, s.DistanceMi)
	}
	assert.InDelta(t, 0.345, *g.Schools[0].DistanceMi, 0.01)
	assertConsistent(t, res)
}

func TestZoneMagnetOutranksReside(t *testing.T) {
	alpha := at(feeder(school("E1", "Alpha Elementary", model.LevelElementary, "ALPHA"), "Seneca High"), 38.21, -85.70)
	tables, err := overrides.Parse([]byte("zone_magnets:\n  Seneca: [\"Alpha Elementary\"]\n"))
	require.NoError(t, err)

	e := newEngine(t, stubZones{
		zone(model.ZoneResideElementary, map[string]string{"High": "SENECA"}),
		zone(model.ZoneResideHigh, map[string]string{"High": "SENECA"}),
	}, tables, seneca, alpha)

	res := resolve(e)
	got := statusOf(t, res, "E1")
	assert.Equal(t, model.StatusMagnetChoice, got.Status)
	assert.Equal(t, model.CategoryMagnetElementary, got.Category)
	assert.Nil(t, res.Group(model.CategoryElementary))
	assertConsistent(t, res)
}

func TestAcademiesRequireNetworkMatch(t *testing.T) {
	academy := func(code, name, network string) model.School {
		s := inNetwork(school(code, name, model.LevelHigh, code), network, "")
		s.Academies = true
		s.AcademyPrograms = "Health Sciences, Engineering"
		return s
	}
	e := newEngine(t, stubZones{zone(model.ZoneResideHigh, map[string]string{"High": "BALLARD"})}, nil,
		ballard,
		academy("A1", "Eastern High", "B"),
		academy("A2", "Fern Creek High", "B"),
		academy("A3", "Atherton High", "A"),
	)

	res := resolve(e)
	assert.ElementsMatch(t, []string{"H100", "A3"}, res.Codes())
	got := statusOf(t, res, "A3")
	assert.Equal(t, model.StatusAcademies, got.Status)
	assert.Equal(t, model.CategoryMagnetHigh, got.Category)
	assert.Equal(t, "Academies of Louisville", got.ProgramType)
	assert.Equal(t, []string{"Health Sciences", "Engineering"}, got.Programs)
	assertConsistent(t, res)
}

func TestAcademiesWithoutHomeNetwork(t *testing.T) {
	a := inNetwork(school("A1", "Eastern High", model.LevelHigh, "EASTERN"), "A", "")
	a.Academies = true
	e := newEngine(t, nil, nil, a)

	res := resolve(e)
	assert.Empty(t, res.ResultsByZone)
}

func TestPathwayEvaluatedBeforeAcademies(t *testing.T) {
	p := inNetwork(school("P1", "Valley High", model.LevelHigh, "VALLEY"), "A", "")
	p.Academies = true
	p.DistrictwidePathways = true
	p.PathwayPrograms = "Aviation"
	p.AcademyPrograms = "Manufacturing"

	e := newEngine(t, stubZones{zone(model.ZoneResideHigh, map[string]string{"High": "BALLARD"})}, nil, ballard, p)

	got := statusOf(t, resolve(e), "P1")
	assert.Equal(t, model.StatusMagnetChoice, got.Status)
	assert.Equal(t, "Districtwide Pathway", got.ProgramType)
	assert.Equal(t, []string{"Aviation"}, got.Programs)
}

func TestUniversalMagnets(t *testing.T) {
	m := school("M1", "Manual High", model.LevelHigh, "MANUAL")
	m.UniversalMagnetSchool = true
	m.MagnetPrograms = "Visual Arts; Journalism"
	mm := school("M2", "Meyzeek Middle", model.LevelMiddle, "MEYZEEK")
	mm.UniversalMagnetProgram = true

	e := newEngine(t, nil, nil, m, mm)

	res := resolve(e)
	assert.Equal(t, []string{"M2", "M1"}, res.Codes())
	got := statusOf(t, res, "M1")
	assert.Equal(t, model.StatusMagnetChoice, got.Status)
	assert.Equal(t, "Magnet Program", got.ProgramType)
	assert.Equal(t, []string{"Visual Arts", "Journalism"}, got.Programs)
	assert.Equal(t, model.CategoryMagnetMiddle, statusOf(t, res, "M2").Category)
}

func TestChoiceZone(t *testing.T) {
	central := inNetwork(school("H300", "Central High", model.LevelHigh, "CENTRAL"), "C", "Central")
	ce := school("E5", "Coleridge-Taylor Elementary", model.LevelElementary, "COLERIDGE")
	ce.ChoiceZone = true
	wm := school("M5", "Western Middle", model.LevelMiddle, "WESTERN")
	opt := school("E6", "Roosevelt-Perry Elementary", model.LevelElementary, "ROOSEVELT")

	tables, err := overrides.Parse([]byte(`
choice_options:
  Central:
    elementary: ["E6"]
    middle: ["Western Middle", "Unknown Middle"]
`))
	require.NoError(t, err)

	resideOnly := stubZones{zone(model.ZoneResideHigh, map[string]string{"High": "CENTRAL"})}
	e := newEngine(t, resideOnly, tables, central, ce, wm, opt)
	res := resolve(e)
	assert.False(t, res.IsInChoiceZone)
	assert.Equal(t, []string{"H300"}, res.Codes())

	inChoice := append(stubZones{zone(model.ZoneChoice, map[string]string{"Name": "Choice"})}, resideOnly...)
	e = newEngine(t, inChoice, tables, central, ce, wm, opt)
	res = resolve(e)
	assert.True(t, res.IsInChoiceZone)
	assert.Equal(t, model.StatusReside, statusOf(t, res, "E6").Status)
	assert.Equal(t, model.CategoryElementary, statusOf(t, res, "E6").Category)
	assert.Equal(t, model.CategoryMiddle, statusOf(t, res, "M5").Category)
	assert.Equal(t, model.StatusMagnetChoice, statusOf(t, res, "E5").Status)
	assertConsistent(t, res)
}

func TestSatelliteOverride(t *testing.T) {
	sat := school("E7", "Wilkerson Elementary", model.LevelElementary, "WILKERSON")
	tables, err := overrides.Parse([]byte("satellite:\n  Ballard: [E7]\n"))
	require.NoError(t, err)

	e := newEngine(t, stubZones{zone(model.ZoneResideHigh, map[string]string{"High": "BALLARD"})}, tables, ballard, sat)

	got := statusOf(t, resolve(e), "E7")
	assert.Equal(t, model.StatusSatellite, got.Status)
	assert.Equal(t, model.CategoryMagnetElementary, got.Category)
	assert.Empty(t, got.ProgramType)
}

func TestSatelliteOverrideByDisplayNameUsesElementary(t *testing.T) {
	brownHigh := school("A100", "J. Graham Brown School", model.LevelHigh, "BROWN")
	brownElem := school("Z100", "J. Graham Brown School", model.LevelElementary, "BROWN")
	twinA := school("Z200", "Twin Elementary", model.LevelElementary, "TWIN1")
	twinB := school("Z300", "Twin Elementary", model.LevelElementary, "TWIN2")
	tables, err := overrides.Parse([]byte("satellite:\n  Ballard: [\"J. Graham Brown School\", \"Twin Elementary\"]\n"))
	require.NoError(t, err)

	e := newEngine(t, stubZones{zone(model.ZoneResideHigh, map[string]string{"High": "BALLARD"})}, tables, ballard, brownHigh, brownElem, twinA, twinB)

	res := resolve(e)
	assert.ElementsMatch(t, []string{"H100", "Z100"}, res.Codes())
	got := statusOf(t, res, "Z100")
	assert.Equal(t, model.StatusSatellite, got.Status)
	assert.Equal(t, model.CategoryMagnetElementary, got.Category)
	assertConsistent(t, res)
}

func TestMagnetZones(t *testing.T) {
	tm := school("T1", "Brandeis Elementary", model.LevelElementary, "BRANDEIS")
	e := newEngine(t, stubZones{
		zone(model.ZoneMagnetElementary, map[string]string{"Traditiona": "brandeis"}),
		zone(model.ZoneSpecialtyMagnetMiddle, map[string]string{"Name": "MISSING"}),
	}, nil, tm)

	res := resolve(e)
	assert.Equal(t, []string{"T1"}, res.Codes())
	assert.Equal(t, model.StatusMagnetChoice, statusOf(t, res, "T1").Status)
}

func TestGapsAreSkipped(t *testing.T) {
	e := newEngine(t, stubZones{
		zone(model.ZoneResideHigh, map[string]string{"High": "NOWHERE"}),
		zone(model.ZoneResideMiddle, map[string]string{"Middle": ""}),
		zone(model.ZoneResideElementary, map[string]string{"High": "NOWHERE"}),
		zone("unknown_layer", map[string]string{"Name": "x"}),
		zone(model.ZoneResideHigh, map[string]string{"High": "BALLARD"}),
	}, nil, ballard)

	res := resolve(e)
	assert.Equal(t, []string{"H100"}, res.Codes())
}

func TestMiddleFallbackField(t *testing.T) {
	m := school("M1", "Noe Middle", model.LevelMiddle, "NOE")
	e := newEngine(t, stubZones{zone(model.ZoneResideMiddle, map[string]string{"Name": "NOE"})}, nil, m)
	assert.Equal(t, model.StatusReside, statusOf(t, resolve(e), "M1").Status)
}

func TestSharedGISKeyUsesLevelHint(t *testing.T) {
	hs := school("H1", "Moore High", model.LevelHigh, "MOORE")
	ms := school("M1", "Moore Middle", model.LevelMiddle, "MOORE")
	e := newEngine(t, stubZones{zone(model.ZoneResideMiddle, map[string]string{"Middle": "MOORE"})}, nil, hs, ms)
	assert.Equal(t, []string{"M1"}, resolve(e).Codes())
}

func TestInvalidInput(t *testing.T) {
	e := newEngine(t, stubZones{zone(model.ZoneResideHigh, map[string]string{"High": "BALLARD"})}, nil, ballard)

	for _, q := range []Query{
		{Lat: math.NaN(), Lon: queryLon},
		{Lat: queryLat, Lon: math.Inf(1)},
		{Lat: 91, Lon: queryLon},
		{Lat: queryLat, Lon: -181},
	} {
		res := e.ResolveSchools(q)
		assert.NotNil(t, res.ResultsByZone)
		assert.Empty(t, res.ResultsByZone)
		assert.False(t, res.IsInChoiceZone)
	}
}

func TestIdempotent(t *testing.T) {
	schools := []model.School{
		at(ballard, 38.30, -85.60),
		at(feeder(school("E1", "Alpha Elementary", model.LevelElementary, "ALPHA"), "Ballard High"), 38.21, -85.71),
	}
	e := newEngine(t, stubZones{
		zone(model.ZoneResideHigh, map[string]string{"High": "BALLARD"}),
		zone(model.ZoneResideElementary, map[string]string{"High": "BALLARD"}),
	}, nil, schools...)

	first, second := resolve(e), resolve(e)
	assert.Equal(t, first, second)
}

func TestDetailsCoverResult(t *testing.T) {
	a := inNetwork(school("A3", "Atherton High", model.LevelHigh, "ATHERTON"), "A", "")
	a.Academies = true
	e := newEngine(t, stubZones{zone(model.ZoneResideHigh, map[string]string{"High": "BALLARD"})}, nil, ballard, a)

	res := resolve(e)
	codes := res.Codes()
	details := e.Dataset().Catalog.GetDetails(codes)
	assert.Len(t, details, len(codes))
}

func TestSortKey(t *testing.T) {
	rated := func(s model.School, rating any) model.School {
		s.Metadata = map[string]any{"great_schools_rating": rating}
		return s
	}
	build := func(schools ...model.School) *Engine {
		for i := range schools {
			schools[i].UniversalMagnetSchool = true
		}
		return newEngine(t, nil, nil, schools...)
	}

	e := build(
		rated(school("M1", "Manual High", model.LevelHigh, "MANUAL"), int64(9)),
		rated(school("M2", "Butler High", model.LevelHigh, "BUTLER"), int64(4)),
		rated(school("M3", "Central High", model.LevelHigh, "CENTRAL"), 7.5),
	)
	res := e.ResolveSchools(Query{Lat: queryLat, Lon: queryLon, Sort: SortOptions{Key: "great_schools_rating"}})
	assert.Equal(t, []string{"M2", "M3", "M1"}, res.Codes())

	res = e.ResolveSchools(Query{Lat: queryLat, Lon: queryLon, Sort: SortOptions{Key: "great_schools_rating", Desc: true}})
	assert.Equal(t, []string{"M1", "M3", "M2"}, res.Codes())

	e = build(
		rated(school("M1", "Manual High", model.LevelHigh, "MANUAL"), int64(9)),
		school("M2", "Butler High", model.LevelHigh, "BUTLER"),
		rated(school("M3", "Central High", model.LevelHigh, "CENTRAL"), int64(1)),
	)
	res = e.ResolveSchools(Query{Lat: queryLat, Lon: queryLon, Sort: SortOptions{Key: "great_schools_rating", Desc: true}})
	assert.Equal(t, []string{"M2", "M3", "M1"}, res.Codes(), "missing key falls back to name ascending")

	res = e.ResolveSchools(Query{Lat: queryLat, Lon: queryLon, Sort: SortOptions{Key: "display_name"}})
	assert.Equal(t, []string{"M2", "M3", "M1"}, res.Codes())
}

func TestSortByFlagAndProgramKeys(t *testing.T) {
	withPrograms := func(s model.School, programs string) model.School {
		s.UniversalMagnetSchool = true
		s.MagnetPrograms = programs
		return s
	}
	manual := withPrograms(school("M1", "Manual High", model.LevelHigh, "MANUAL"), "Math")
	butler := withPrograms(school("M2", "Butler High", model.LevelHigh, "BUTLER"), "Arts")
	central := withPrograms(school("M3", "Central High", model.LevelHigh, "CENTRAL"), "Zoology")
	central.ChoiceZone = true
	e := newEngine(t, nil, nil, manual, butler, central)

	sorted := func(opts SortOptions) []string {
		return e.ResolveSchools(Query{Lat: queryLat, Lon: queryLon, Sort: opts}).Codes()
	}

	assert.Equal(t, []string{"M3", "M2", "M1"}, sorted(SortOptions{Key: "choice_zone", Desc: true}))
	assert.Equal(t, []string{"M2", "M1", "M3"}, sorted(SortOptions{Key: "choice_zone"}))
	assert.Equal(t, []string{"M2", "M3", "M1"}, sorted(SortOptions{Key: "universal_magnet_traditional_school", Desc: true}), "equal flags order by name")
	assert.Equal(t, []string{"M3", "M1", "M2"}, sorted(SortOptions{Key: "magnet_programs", Desc: true}))

	butler.MagnetPrograms = ""
	e = newEngine(t, nil, nil, manual, butler, central)
	assert.Equal(t, []string{"M2", "M3", "M1"}, sorted(SortOptions{Key: "magnet_programs", Desc: true}), "empty programs fall back to name ascending")

	manual.FeederToHighSchool = model.StringPtr("Seneca High")
	butler.FeederToHighSchool = model.StringPtr("Ballard High")
	central.FeederToHighSchool = model.StringPtr("Central High")
	e = newEngine(t, nil, nil, manual, butler, central)
	assert.Equal(t, []string{"M2", "M3", "M1"}, sorted(SortOptions{Key: "feeder_to_high_school"}))
}

func TestNullDistanceSortsLast(t *testing.T) {
	a := at(feeder(school("E1", "Zeta Elementary", model.LevelElementary, "Z"), "Ballard High"), 38.3, -85.7)
	b := feeder(school("E2", "Alpha Elementary", model.LevelElementary, "A"), "Ballard High")
	e := newEngine(t, stubZones{zone(model.ZoneResideElementary, map[string]string{"High": "BALLARD"})}, nil, ballard, a, b)

	res := resolve(e)
	assert.Equal(t, []string{"E1", "E2"}, res.Codes())
	assert.Nil(t, statusOf(t, res, "E2").DistanceMi)
}

func TestCategoryOrder(t *testing.T) {
	tm := school("T1", "Brandeis Elementary", model.LevelElementary, "BRANDEIS")
	alpha := feeder(school("E1", "Alpha Elementary", model.LevelElementary, "ALPHA"), "Ballard High")
	e := newEngine(t, stubZones{
		zone(model.ZoneMagnetElementary, map[string]string{"Traditiona": "BRANDEIS"}),
		zone(model.ZoneResideHigh, map[string]string{"High": "BALLARD"}),
		zone(model.ZoneResideElementary, map[string]string{"High": "BALLARD"}),
	}, nil, ballard, tm, alpha)

	var order []model.Category
	for _, g := range resolve(e).ResultsByZone {
		order = append(order, g.ZoneType)
	}
	assert.Equal(t, []model.Category{model.CategoryElementary, model.CategoryHigh, model.CategoryMagnetElementary}, order)
}

func TestSwap(t *testing.T) {
	zs := stubZones{zone(model.ZoneResideHigh, map[string]string{"High": "BALLARD"})}
	e := newEngine(t, zs, nil, ballard)
	assert.Equal(t, []string{"H100"}, resolve(e).Codes())

	renamed := inNetwork(school("H101", "Ballard High", model.LevelHigh, "BALLARD"), "A", "Ballard")
	snap, err := catalog.NewSnapshot([]model.School{renamed})
	require.NoError(t, err)
	e.Swap(&Dataset{Catalog: snap})
	assert.Equal(t, []string{"H101"}, resolve(e).Codes())

	e.Swap(nil)
	assert.Equal(t, []string{"H101"}, resolve(e).Codes())
}

func TestConcurrentResolveAndSwap(t *testing.T) {
	zs := stubZones{zone(model.ZoneResideHigh, map[string]string{"High": "BALLARD"})}
	e := newEngine(t, zs, nil, ballard)
	snap, err := catalog.NewSnapshot([]model.School{ballard})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				assert.Equal(t, []string{"H100"}, resolve(e).Codes())
			}
		}()
	}
	for j := 0; j < 50; j++ {
		e.Swap(&Dataset{Catalog: snap})
	}
	wg.Wait()
}

func TestMergeCandidates(t *testing.T) {
	got := mergeCandidates([]model.Candidate{
		{Code: "A", Status: model.StatusReside, Source: "first"},
		{Code: "B", Status: model.StatusSatellite},
		{Code: "A", Status: model.StatusMagnetChoice, Source: "magnet"},
		{Code: "A", Status: model.StatusMagnetChoice, Source: "later"},
		{Code: "B", Status: model.StatusReside},
		{Code: "", Status: model.StatusReside},
		{Code: "C", Status: model.StatusUnknown},
	})
	require.Len(t, got, 2)
	assert.Equal(t, "A", got[0].Code)
	assert.Equal(t, "magnet", got[0].Source)
	assert.Equal(t, model.StatusSatellite, got[1].Status)
}

func TestHaversine(t *testing.T) {
	assert.InDelta(t, 0, haversineMi(queryLat, queryLon, queryLat, queryLon), 1e-9)
	// One degree of latitude is about 69 miles.
	assert.InDelta(t, 69.09, haversineMi(38, -85, 39, -85), 0.1)
}
