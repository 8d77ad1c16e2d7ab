package integrity

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatic_SetAndCurrent(t *testing.T) {
	s := NewStatic(0.95)
	v, err := s.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0.95, v)

	s.Set(0.42)
	v, err = s.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0.42, v)
}

type stubSnapshots struct {
	snap *Snapshot
	err  error
}

func (s stubSnapshots) Latest(context.Context) (*Snapshot, error) { return s.snap, s.err }

func TestSnapshotProvider(t *testing.T) {
	ctx := context.Background()

	p := NewSnapshotProvider(stubSnapshots{err: pgx.ErrNoRows}, 0.95, nil)
	v, err := p.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0.95, v, "falls back when no snapshot exists")

	p = NewSnapshotProvider(stubSnapshots{snap: &Snapshot{Value: 0.62}}, 0.95, nil)
	v, err = p.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0.62, v)

	boom := errors.New("db down")
	p = NewSnapshotProvider(stubSnapshots{err: boom}, 0.95, nil)
	_, err = p.Current(ctx)
	assert.ErrorIs(t, err, boom)
}

func TestRemoteSource_Fetch(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		body    string
		want    float64
		wantErr bool
	}{
		{"mii field", http.StatusOK, `{"mii":0.87}`, 0.87, false},
		{"value field", http.StatusOK, `{"value":0.66}`, 0.66, false},
		{"missing fields", http.StatusOK, `{"other":1}`, 0, true},
		{"out of range", http.StatusOK, `{"mii":1.7}`, 0, true},
		{"bad json", http.StatusOK, `not json`, 0, true},
		{"server error", http.StatusInternalServerError, `{}`, 0, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/mii", r.URL.Path)
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			got, err := NewRemoteSource(srv.URL + "/").Fetch(context.Background())
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
