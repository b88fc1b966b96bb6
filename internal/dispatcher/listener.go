package dispatcher

import (
	"encoding/binary"
	"io"
	"net"

	"github.com/infinidb-io/infinidb/internal/catalog"
	"github.com/infinidb-io/infinidb/internal/logging"
	"github.com/infinidb-io/infinidb/internal/protocol"
)

// Listener accepts connections and frames requests off them,
// replying with the matching wire-encoded status/result (spec §6,
// grounded on the teacher's server/net connection-accept loop,
// generalized from a MySQL handshake loop to this engine's
// length-prefixed binary frames).
type Listener struct {
	dispatcher *Dispatcher
}

// NewListener builds a Listener dispatching onto d.
func NewListener(d *Dispatcher) *Listener {
	return &Listener{dispatcher: d}
}

// Serve accepts connections on ln until it returns an error (spec §5
// "one goroutine per connection").
func (l *Listener) Serve(ln net.Listener) error {
	for {
		conn, err := ln.Accept()
		if err != nil {
			return err
		}
		go l.handleConn(conn)
	}
}

func (l *Listener) handleConn(conn net.Conn) {
	defer conn.Close()
	var sessionID uint64

	for {
		frame, err := readFrame(conn)
		if err != nil {
			if err != io.EOF {
				logging.WithError(err).Warn("frame read failed, closing connection")
			}
			return
		}

		verb, payload, err := protocol.DecodeFrame(frame)
		if err != nil {
			logging.WithError(err).Warn("malformed frame, closing connection")
			return
		}

		resp := l.dispatch(verb, payload, &sessionID)
		if _, err := conn.Write(resp); err != nil {
			logging.WithError(err).Warn("frame write failed, closing connection")
			return
		}
	}
}

// readFrame reads one frame in protocol.EncodeFrame's layout: a 4-byte
// little-endian payload length n, then the verb byte and n payload
// bytes. It returns the whole frame, header included.
func readFrame(r io.Reader) ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	n := binary.LittleEndian.Uint32(lenBuf[:])
	body := make([]byte, 5+n)
	copy(body[0:4], lenBuf[:])
	if _, err := io.ReadFull(r, body[4:]); err != nil {
		return nil, err
	}
	return body, nil
}

func (l *Listener) dispatch(verb protocol.Verb, payload []byte, sessionID *uint64) []byte {
	switch verb {
	case protocol.VerbPing:
		return l.dispatcher.HandlePing()

	case protocol.VerbConnect:
		req, err := protocol.DecodeConnectRequest(payload)
		if err != nil {
			return decodeErrorStatus(verb, err)
		}
		resp, sess := l.dispatcher.HandleConnect(req.User, req.Database)
		*sessionID = sess
		return resp

	case protocol.VerbDisconnect:
		return l.dispatcher.HandleDisconnect(*sessionID)

	case protocol.VerbCreateDatabase:
		req, err := protocol.DecodeConflictRequest(payload)
		if err != nil {
			return decodeErrorStatus(verb, err)
		}
		return l.dispatcher.HandleCreateDatabase(req.Name, req.Conflict, req.TxnID)

	case protocol.VerbDropDatabase:
		req, err := protocol.DecodeConflictRequest(payload)
		if err != nil {
			return decodeErrorStatus(verb, err)
		}
		return l.dispatcher.HandleDropDatabase(req.Name, req.Conflict, req.TxnID)

	case protocol.VerbListDatabases:
		return l.dispatcher.HandleListDatabases()

	case protocol.VerbCreateTable:
		req, err := protocol.DecodeCreateTableRequest(payload)
		if err != nil {
			return decodeErrorStatus(verb, err)
		}
		return l.dispatcher.HandleCreateTable(req.Database, req.Table, req.Columns, req.Conflict, req.TxnID)

	case protocol.VerbDropTable:
		req, err := protocol.DecodeTableConflictRequest(payload)
		if err != nil {
			return decodeErrorStatus(verb, err)
		}
		return l.dispatcher.HandleDropTable(req.Database, req.Table, req.Conflict, req.TxnID)

	case protocol.VerbListTables:
		req, err := protocol.DecodeDatabaseRequest(payload)
		if err != nil {
			return decodeErrorStatus(verb, err)
		}
		resp, _ := l.dispatcher.HandleListTables(req.Database)
		return resp

	case protocol.VerbCreateIndex:
		req, err := protocol.DecodeCreateIndexRequest(payload)
		if err != nil {
			return decodeErrorStatus(verb, err)
		}
		return l.dispatcher.HandleCreateIndex(req)

	case protocol.VerbDropIndex:
		req, err := protocol.DecodeIndexConflictRequest(payload)
		if err != nil {
			return decodeErrorStatus(verb, err)
		}
		return l.dispatcher.HandleDropIndex(req.Database, req.Table, req.IndexName, req.Conflict, req.TxnID)

	case protocol.VerbListIndexes:
		req, err := protocol.DecodeDatabaseTableRequest(payload)
		if err != nil {
			return decodeErrorStatus(verb, err)
		}
		return l.dispatcher.HandleListIndexes(req.Database, req.Table)

	case protocol.VerbInsert:
		req, err := protocol.DecodeInsertRequest(payload)
		if err != nil {
			return decodeErrorStatus(verb, err)
		}
		return l.dispatcher.HandleInsert(req.Database, req.Table, req.Fields)

	case protocol.VerbSelect:
		req, err := protocol.DecodeSelectRequest(payload)
		if err != nil {
			return decodeErrorStatus(verb, err)
		}
		return l.dispatcher.HandleSelect(req.Database, req.Table, req.Columns)

	case protocol.VerbDelete:
		req, err := protocol.DecodeDeleteRequest(payload)
		if err != nil {
			return decodeErrorStatus(verb, err)
		}
		return l.dispatcher.HandleDelete(req)

	case protocol.VerbUpdate:
		req, err := protocol.DecodeUpdateRequest(payload)
		if err != nil {
			return decodeErrorStatus(verb, err)
		}
		return l.dispatcher.HandleUpdate(req)

	case protocol.VerbExplain:
		req, err := protocol.DecodeExplainRequest(payload)
		if err != nil {
			return decodeErrorStatus(verb, err)
		}
		return l.dispatcher.HandleExplain(req.Database, req.Table, req.ExplainType)

	case protocol.VerbUploadFileChunk:
		req, err := protocol.DecodeUploadFileChunkRequest(payload)
		if err != nil {
			return decodeErrorStatus(verb, err)
		}
		return l.dispatcher.HandleUploadFileChunk(req)

	default:
		return protocol.EncodeStatus(catalog.NewStatus(catalog.NotSupport, "verb %d not handled by this listener", verb))
	}
}

// decodeErrorStatus reports a malformed payload as an ordinary Status
// response rather than closing the connection, matching every other
// client-facing validation failure (spec §4.5).
func decodeErrorStatus(verb protocol.Verb, err error) []byte {
	return protocol.EncodeStatus(catalog.NewStatus(catalog.InvalidParameterValue, "verb %d: malformed payload: %v", verb, err))
}
