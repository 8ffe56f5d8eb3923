package migrate

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListSortsByVersion(t *testing.T) {
	src := fstest.MapFS{
		"000002_add_zones.up.sql":   {Data: []byte("CREATE TABLE zones ();")},
		"000002_add_zones.down.sql": {Data: []byte("DROP TABLE zones;")},
		"000001_init.up.sql":        {Data: []byte("CREATE TABLE campuses ();")},
		"000001_init.down.sql":      {Data: []byte("DROP TABLE campuses;")},
		"notes.txt":                 {Data: []byte("ignored")},
	}
	r := NewRunner(nil, src)

	ups, err := r.list("up")
	require.NoError(t, err)
	require.Len(t, ups, 2)
	assert.Equal(t, "000001", ups[0].Version)
	assert.Equal(t, "init", ups[0].Name)
	assert.Equal(t, "000002", ups[1].Version)
	assert.Equal(t, "add_zones", ups[1].Name)

	downs, err := r.list("down")
	require.NoError(t, err)
	require.Len(t, downs, 2)
	assert.Equal(t, "000001_init.down.sql", downs[0].Path)
}

func TestListRejectsMalformedName(t *testing.T) {
	src := fstest.MapFS{
		"badname.up.sql": {Data: []byte("SELECT 1;")},
	}
	r := NewRunner(nil, src)

	_, err := r.list("up")
	assert.Error(t, err)
}
