package client

import (
	"bufio"
	"encoding/binary"
	"io"
	"net"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeServer accepts one connection and responds to every command with
// a canned reply, letting Cxn's wire parsing be tested without a real
// WSTF server.
func fakeServer(t *testing.T, handle func(conn net.Conn)) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		handle(conn)
	}()

	return ln.Addr().String()
}

func writeLengthPrefixed(w io.Writer, success bool, body string) {
	if success {
		w.Write([]byte{0x01})
	} else {
		w.Write([]byte{0x00})
	}
	var lenBuf [8]byte
	binary.BigEndian.PutUint64(lenBuf[:], uint64(len(body)))
	w.Write(lenBuf[:])
	io.WriteString(w, body)
}

func TestCxnCmdSuccess(t *testing.T) {
	addr := fakeServer(t, func(conn net.Conn) {
		r := bufio.NewReader(conn)
		line, _ := r.ReadString('\n')
		require.Equal(t, "USE mybook\n", line)
		writeLengthPrefixed(conn, true, "OK")
	})

	host, port, err := net.SplitHostPort(addr)
	require.NoError(t, err)

	cxn, err := Dial(host, port)
	require.NoError(t, err)
	defer cxn.Close()

	res, err := cxn.UseDB("mybook")
	require.NoError(t, err)
	require.Equal(t, "OK", res)
}

func TestCxnCmdServerError(t *testing.T) {
	addr := fakeServer(t, func(conn net.Conn) {
		r := bufio.NewReader(conn)
		r.ReadString('\n')
		writeLengthPrefixed(conn, false, "boom")
	})

	host, port, err := net.SplitHostPort(addr)
	require.NoError(t, err)

	cxn, err := Dial(host, port)
	require.NoError(t, err)
	defer cxn.Close()

	_, err = cxn.Cmd("DO something\n")
	require.Error(t, err)
	var serverErr *ServerError
	require.ErrorAs(t, err, &serverErr)
	require.Equal(t, "boom", serverErr.Msg)
}

func TestCxnCmdDBNotFound(t *testing.T) {
	addr := fakeServer(t, func(conn net.Conn) {
		r := bufio.NewReader(conn)
		r.ReadString('\n')
		writeLengthPrefixed(conn, false, "ERR: DB missing-book not found")
	})

	host, port, err := net.SplitHostPort(addr)
	require.NoError(t, err)

	cxn, err := Dial(host, port)
	require.NoError(t, err)
	defer cxn.Close()

	_, err = cxn.Cmd("USE missing-book\n")
	require.Error(t, err)
	var dbErr *DBNotFoundError
	require.ErrorAs(t, err, &dbErr)
	require.Equal(t, "missing-book", dbErr.DBName)
}
