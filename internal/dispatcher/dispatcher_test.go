package dispatcher

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/infinidb-io/infinidb/internal/catalog"
	"github.com/infinidb-io/infinidb/internal/config"
	"github.com/infinidb-io/infinidb/internal/engine"
	"github.com/infinidb-io/infinidb/internal/protocol"
)

func newTestDispatcher(t *testing.T) *Dispatcher {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.DataDir = t.TempDir()
	return New(engine.New(cfg))
}

func TestHandleConnectDisconnect(t *testing.T) {
	d := newTestDispatcher(t)

	buf, sessionID := d.HandleConnect("alice", "default")
	st, err := protocol.DecodeStatus(buf)
	require.NoError(t, err)
	require.Equal(t, catalog.Ok, st.Code)
	require.NotZero(t, sessionID)

	buf = d.HandleDisconnect(sessionID)
	st, err = protocol.DecodeStatus(buf)
	require.NoError(t, err)
	require.Equal(t, catalog.Ok, st.Code)
}

func TestHandleCreateDatabaseBadConflict(t *testing.T) {
	d := newTestDispatcher(t)
	buf := d.HandleCreateDatabase("d", 99, 1)
	st, err := protocol.DecodeStatus(buf)
	require.NoError(t, err)
	require.Equal(t, catalog.InvalidConflictType, st.Code)
}

func TestHandleCreateDatabaseThenList(t *testing.T) {
	d := newTestDispatcher(t)
	buf := d.HandleCreateDatabase("shop", int32(catalog.CreateIgnore), 1)
	st, err := protocol.DecodeStatus(buf)
	require.NoError(t, err)
	require.Equal(t, catalog.Ok, st.Code)

	names, err := protocol.DecodeVarcharColumn(d.HandleListDatabases())
	require.NoError(t, err)
	require.Contains(t, names, "shop")
}
