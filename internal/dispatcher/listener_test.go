package dispatcher

import (
	"encoding/binary"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/infinidb-io/infinidb/internal/catalog"
	"github.com/infinidb-io/infinidb/internal/protocol"
)

// readStatus reads one raw status response off conn: 4-byte code,
// 4-byte message length, then that many message bytes (the layout
// protocol.EncodeStatus writes, unframed — the listener writes
// dispatcher responses directly, not wrapped in another length-prefixed
// frame).
func readStatus(conn net.Conn) (catalog.Status, error) {
	var head [8]byte
	if _, err := io.ReadFull(conn, head[:]); err != nil {
		return catalog.Status{}, err
	}
	n := binary.LittleEndian.Uint32(head[4:8])
	buf := make([]byte, 8+n)
	copy(buf, head[:])
	if _, err := io.ReadFull(conn, buf[8:]); err != nil {
		return catalog.Status{}, err
	}
	return protocol.DecodeStatus(buf)
}

// pipeListener adapts a single net.Pipe connection to the net.Listener
// interface so Serve's accept loop can be exercised without binding a
// real socket.
type pipeListener struct {
	conns chan net.Conn
}

func (l *pipeListener) Accept() (net.Conn, error) {
	c, ok := <-l.conns
	if !ok {
		return nil, net.ErrClosed
	}
	return c, nil
}
func (l *pipeListener) Close() error   { close(l.conns); return nil }
func (l *pipeListener) Addr() net.Addr { return pipeAddr{} }

type pipeAddr struct{}

func (pipeAddr) Network() string { return "pipe" }
func (pipeAddr) String() string  { return "pipe" }

func TestListenerServesPingOverFrame(t *testing.T) {
	d := newTestDispatcher(t)
	l := NewListener(d)

	client, server := net.Pipe()
	pl := &pipeListener{conns: make(chan net.Conn, 1)}
	pl.conns <- server

	go l.Serve(pl)
	defer client.Close()

	req := protocol.EncodeFrame(protocol.VerbPing, nil)
	require.NoError(t, client.SetDeadline(time.Now().Add(2*time.Second)))
	_, err := client.Write(req)
	require.NoError(t, err)

	st, err := readStatus(client)
	require.NoError(t, err)
	require.Equal(t, catalog.Ok, st.Code)
}

func TestListenerRejectsUnknownVerb(t *testing.T) {
	d := newTestDispatcher(t)
	l := NewListener(d)

	client, server := net.Pipe()
	pl := &pipeListener{conns: make(chan net.Conn, 1)}
	pl.conns <- server

	go l.Serve(pl)
	defer client.Close()

	req := protocol.EncodeFrame(protocol.Verb(250), nil)
	require.NoError(t, client.SetDeadline(time.Now().Add(2*time.Second)))
	_, err := client.Write(req)
	require.NoError(t, err)

	st, err := readStatus(client)
	require.NoError(t, err)
	require.Equal(t, catalog.NotSupport, st.Code)
}

func TestListenerRejectsMalformedPayload(t *testing.T) {
	d := newTestDispatcher(t)
	l := NewListener(d)

	client, server := net.Pipe()
	pl := &pipeListener{conns: make(chan net.Conn, 1)}
	pl.conns <- server

	go l.Serve(pl)
	defer client.Close()

	req := protocol.EncodeFrame(protocol.VerbInsert, []byte{1, 2, 3})
	require.NoError(t, client.SetDeadline(time.Now().Add(2*time.Second)))
	_, err := client.Write(req)
	require.NoError(t, err)

	st, err := readStatus(client)
	require.NoError(t, err)
	require.Equal(t, catalog.InvalidParameterValue, st.Code)
}

func TestListenerServesFullRequestRoundTrip(t *testing.T) {
	d := newTestDispatcher(t)
	l := NewListener(d)

	client, server := net.Pipe()
	pl := &pipeListener{conns: make(chan net.Conn, 1)}
	pl.conns <- server

	go l.Serve(pl)
	defer client.Close()
	require.NoError(t, client.SetDeadline(time.Now().Add(5*time.Second)))

	send := func(verb protocol.Verb, payload []byte) catalog.Status {
		_, err := client.Write(protocol.EncodeFrame(verb, payload))
		require.NoError(t, err)
		st, err := readStatus(client)
		require.NoError(t, err)
		return st
	}

	connReq := protocol.EncodeConnectRequest(protocol.ConnectRequest{User: "alice", Database: "default"})
	_, err := client.Write(protocol.EncodeFrame(protocol.VerbConnect, connReq))
	require.NoError(t, err)
	st, err := readStatus(client)
	require.NoError(t, err)
	require.Equal(t, catalog.Ok, st.Code)

	st = send(protocol.VerbCreateDatabase, protocol.EncodeConflictRequest(protocol.ConflictRequest{Name: "shop", Conflict: int32(catalog.CreateIgnore), TxnID: 1}))
	require.Equal(t, catalog.Ok, st.Code)

	createTable := protocol.EncodeCreateTableRequest(protocol.CreateTableRequest{
		Database: "shop",
		Table:    "items",
		Columns: []protocol.ColumnSpec{
			{Name: "id", LogicType: int32(catalog.LogicInteger)},
			{Name: "name", LogicType: int32(catalog.LogicVarchar)},
		},
		Conflict: int32(catalog.CreateIgnore),
		TxnID:    1,
	})
	st = send(protocol.VerbCreateTable, createTable)
	require.Equal(t, catalog.Ok, st.Code)

	insertReq := protocol.EncodeInsertRequest(protocol.InsertRequest{
		Database: "shop",
		Table:    "items",
		Fields:   map[string]interface{}{"id": int64(1), "name": "widget"},
	})
	st = send(protocol.VerbInsert, insertReq)
	require.Equal(t, catalog.Ok, st.Code)

	selectReq := protocol.EncodeSelectRequest(protocol.SelectRequest{Database: "shop", Table: "items", Columns: []string{"name"}})
	_, err = client.Write(protocol.EncodeFrame(protocol.VerbSelect, selectReq))
	require.NoError(t, err)

	buf := make([]byte, 4096)
	nRead, err := client.Read(buf)
	require.NoError(t, err)
	st, err = protocol.DecodeStatus(buf[:nRead])
	require.NoError(t, err)
	require.Equal(t, catalog.Ok, st.Code)
}
