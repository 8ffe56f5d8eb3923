package zone

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/binsight/api/pkg/domain/shared"
)

func newTestID(t *testing.T) shared.ID {
	t.Helper()
	return shared.NewID()
}

func TestNewZone(t *testing.T) {
	campusID := newTestID(t)

	z, err := NewZone(campusID, "B2", square())
	require.NoError(t, err)
	assert.False(t, z.ID.IsZero())
	assert.Equal(t, campusID, z.CampusID)
	assert.Equal(t, StatusGreen, z.Status)
	assert.Zero(t, z.LastScore)
	assert.Nil(t, z.LastScannedAt)
}

func TestNewZoneValidation(t *testing.T) {
	campusID := newTestID(t)

	_, err := NewZone(shared.ID{}, "B2", square())
	assert.Error(t, err)

	_, err = NewZone(campusID, "", square())
	assert.Error(t, err)

	_, err = NewZone(campusID, "B2", Ring{{Lon: 0, Lat: 0}})
	assert.Error(t, err)
}
