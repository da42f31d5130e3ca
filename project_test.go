package ptcop

import (
	"testing"

	clone "github.com/huandu/go-clone/generic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testProject is a canonical fixture template, cloned per sub-test so edits
// in one test never leak into another. Grounded on the teacher's
// helpers_test.go `testSong` + `clone.Clone` pattern.
var testProject = Project{
	Name:        "test project",
	BeatNum:     4,
	BeatTempo:   120,
	BeatClock:   480,
	NumMeasures: 1,
	Units: []Unit{
		NewUnit("lead"),
		NewUnit("bass"),
	},
}

func newTestProject() *Project {
	p := clone.Clone(testProject)
	return &p
}

func TestProjectDefaults(t *testing.T) {
	p := NewProject()
	assert.EqualValues(t, 4, p.BeatNum)
	assert.EqualValues(t, 120, p.BeatTempo)
	assert.EqualValues(t, 480, p.BeatClock)
	assert.EqualValues(t, 1, p.NumMeasures)
}

func TestProjectTickMeasureBeatRoundTrip(t *testing.T) {
	p := newTestProject()

	for tick := int32(0); tick < int32(p.BeatNum*p.BeatClock*3); tick += 37 {
		m, b, c := p.TickToMeasureBeat(tick)
		got := p.MeasureBeatToTick(m, b, c)
		assert.Equal(t, tick, got)
	}
}

func TestProjectRemoveUnitScrubsEvents(t *testing.T) {
	p := newTestProject()
	require.NoError(t, p.AddEvent(Event{Clock: 0, UnitNo: 0, Kind: EventOn}))
	require.NoError(t, p.AddEvent(Event{Clock: 0, UnitNo: 1, Kind: EventOn}))

	require.NoError(t, p.RemoveUnit(0))

	require.Equal(t, 1, len(p.Units))
	require.Equal(t, 1, p.Events.Len())
	assert.Equal(t, uint8(0), p.Events.At(0).UnitNo) // unit 1 re-homed to 0
}

func TestProjectRemoveUnitOutOfRange(t *testing.T) {
	p := newTestProject()
	assert.ErrorIs(t, p.RemoveUnit(99), ErrBadIndex)
}

func TestProjectSetNameRejectsInvalidUTF8(t *testing.T) {
	p := newTestProject()
	assert.ErrorIs(t, p.SetName(string([]byte{0xFF, 0xFE})), ErrInvalidText)
	assert.Equal(t, "test project", p.Name)

	require.NoError(t, p.SetName("renamed"))
	assert.Equal(t, "renamed", p.Name)
	require.NoError(t, p.SetComment("a note"))
	assert.Equal(t, "a note", p.Comment)
}
