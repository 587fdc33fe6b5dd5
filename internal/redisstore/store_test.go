package redisstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmacdonaldsmith/eventstreams-go/pkg/eventstreams"
)

func newTestConnector(t *testing.T, config Config) *Connector {
	t.Helper()

	connector, err := NewConnector(config)
	require.NoError(t, err)
	return connector
}

func TestNewConnector(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		connector := newTestConnector(t, Config{})
		assert.Equal(t, 5*time.Second, connector.config.DialTimeout)
		assert.Equal(t, 10, connector.config.PoolSize)
		assert.False(t, connector.config.VerifyOnOpen)
	})

	t.Run("negative_timeout", func(t *testing.T) {
		connector, err := NewConnector(Config{DialTimeout: -time.Second})
		assert.Error(t, err)
		assert.Nil(t, connector)
	})
}

func TestConnector_Open_MalformedURL(t *testing.T) {
	connector := newTestConnector(t, Config{})

	for _, url := range []string{"http://localhost:6379", "not a url", "redis://localhost:notaport/0/extra"} {
		client, err := connector.Open(context.Background(), url)
		assert.Nil(t, client, url)
		assert.True(t, errors.Is(err, eventstreams.ErrConfiguration), "url %q: %v", url, err)
	}
}

func TestConnector_Open_DefaultURL(t *testing.T) {
	connector := newTestConnector(t, Config{})

	client, err := connector.Open(context.Background(), "")
	require.NoError(t, err)
	defer client.Close()

	assert.Equal(t, "0.0.0.0:6379", client.(*Client).Addr())
}

func TestConnector_Open_VerifyUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	connector := newTestConnector(t, Config{VerifyOnOpen: true, DialTimeout: 200 * time.Millisecond})

	client, err := connector.Open(context.Background(), "redis://"+addr+"/")
	assert.Nil(t, client)
	assert.ErrorIs(t, err, eventstreams.ErrConfiguration)
}

func TestConn_AppendAndRange(t *testing.T) {
	mr := miniredis.RunT(t)
	connector := newTestConnector(t, Config{VerifyOnOpen: true})
	ctx := context.Background()

	client, err := connector.Open(ctx, "redis://"+mr.Addr()+"/")
	require.NoError(t, err)
	defer client.Close()

	conn, err := client.Conn(ctx)
	require.NoError(t, err)
	defer conn.Close()

	var ids []string
	for i := 0; i < 3; i++ {
		id, err := conn.Append(ctx, "s1", []eventstreams.Field{
			{Name: "scruffy-looking", Value: "nerf-herder"},
			{Name: "n", Value: string(rune('a' + i))},
		})
		require.NoError(t, err)
		assert.NotEmpty(t, id)
		ids = append(ids, id)
	}

	entries, err := conn.Range(ctx, "s1", eventstreams.RangeStart, eventstreams.RangeEnd, 0)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	for i, e := range entries {
		assert.Equal(t, ids[i], e.ID)
		assert.Equal(t, "nerf-herder", e.Values["scruffy-looking"])
	}
	assert.Equal(t, "c", entries[2].Values["n"])

	limited, err := conn.Range(ctx, "s1", eventstreams.RangeStart, eventstreams.RangeEnd, 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, ids[0], limited[0].ID)
	assert.Equal(t, ids[1], limited[1].ID)
}

func TestConn_Range_TimeBounds(t *testing.T) {
	mr := miniredis.RunT(t)
	for _, id := range []string{"1000-0", "1500-0", "1500-1", "2000-0", "2500-0"} {
		_, err := mr.XAdd("s1", id, []string{"at", id})
		require.NoError(t, err)
	}

	connector := newTestConnector(t, Config{})
	ctx := context.Background()
	client, err := connector.Open(ctx, "redis://"+mr.Addr()+"/")
	require.NoError(t, err)
	defer client.Close()

	conn, err := client.Conn(ctx)
	require.NoError(t, err)
	defer conn.Close()

	start, end := eventstreams.TimeRange{MinTime: 1500, MaxTime: 2000}.Bounds()
	entries, err := conn.Range(ctx, "s1", start, end, 0)
	require.NoError(t, err)

	var got []string
	for _, e := range entries {
		got = append(got, e.ID)
	}
	assert.Equal(t, []string{"1500-0", "1500-1", "2000-0"}, got)
}

func TestConn_StoreErrors(t *testing.T) {
	mr := miniredis.RunT(t)
	require.NoError(t, mr.Set("not-a-stream", "plain string"))

	connector := newTestConnector(t, Config{})
	ctx := context.Background()
	client, err := connector.Open(ctx, "redis://"+mr.Addr()+"/")
	require.NoError(t, err)
	defer client.Close()

	conn, err := client.Conn(ctx)
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Append(ctx, "not-a-stream", []eventstreams.Field{{Name: "k", Value: "v"}})
	assert.ErrorIs(t, err, eventstreams.ErrStore)

	_, err = conn.Range(ctx, "not-a-stream", eventstreams.RangeStart, eventstreams.RangeEnd, 0)
	assert.ErrorIs(t, err, eventstreams.ErrStore)
}

func TestClient_Conn_CancelledContext(t *testing.T) {
	connector := newTestConnector(t, Config{})
	client, err := connector.Open(context.Background(), "")
	require.NoError(t, err)
	defer client.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	conn, err := client.Conn(ctx)
	assert.Nil(t, conn)
	assert.ErrorIs(t, err, eventstreams.ErrStore)
}
