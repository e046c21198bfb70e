package client

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/wtrscape/wstf"
)

// Cxn is a single connection to a WSTF server.
type Cxn struct {
	conn net.Conn
	r    *bufio.Reader
}

// Dial opens a connection to host:port.
func Dial(host, port string) (*Cxn, error) {
	addr := net.JoinHostPort(host, port)
	log.Info().Str("addr", addr).Msg("connecting to wstf server")

	conn, err := net.DialTimeout("tcp", addr, 10*time.Second)
	if err != nil {
		return nil, errConnection
	}
	return &Cxn{conn: conn, r: bufio.NewReader(conn)}, nil
}

// CreateDB issues a CREATE command for dbname.
func (c *Cxn) CreateDB(dbname string) (string, error) {
	log.Info().Str("db", dbname).Msg("creating database")
	return c.Cmd(fmt.Sprintf("CREATE %s\n", dbname))
}

// UseDB issues a USE command for dbname.
func (c *Cxn) UseDB(dbname string) (string, error) {
	return c.Cmd(fmt.Sprintf("USE %s\n", dbname))
}

// Cmd sends command verbatim and reads the server's response. A GET
// command without an "AS CSV"/"AS JSON" suffix gets its response decoded
// as a WSTF batch and re-rendered as a bracketed JSON array; every other
// command's response is a length-prefixed UTF-8 body.
func (c *Cxn) Cmd(command string) (string, error) {
	if _, err := io.WriteString(c.conn, command); err != nil {
		return "", errConnection
	}

	success, err := c.r.ReadByte()
	if err != nil {
		return "", errConnection
	}
	ok := success == 0x01

	if strings.HasPrefix(command, "GET") &&
		!strings.Contains(command, "AS CSV") &&
		!strings.Contains(command, "AS JSON") &&
		ok {
		ups, err := wstf.ReadOneBatch(c.r)
		if err != nil {
			return "", errConnection
		}
		return fmt.Sprintf("[%s]\n", wstf.UpdatesAsJSON(ups)), nil
	}

	var sizeBuf [8]byte
	if _, err := io.ReadFull(c.r, sizeBuf[:]); err != nil {
		return "", errConnection
	}
	size := binary.BigEndian.Uint64(sizeBuf[:])

	body := make([]byte, size)
	if _, err := io.ReadFull(c.r, body); err != nil {
		return "", errConnection
	}
	res := string(body)

	if ok {
		return res, nil
	}
	if strings.Contains(res, "ERR: DB") {
		fields := strings.Fields(res)
		dbname := ""
		if len(fields) >= 3 {
			dbname = fields[2]
		}
		return "", &DBNotFoundError{DBName: dbname}
	}
	return "", &ServerError{Msg: res}
}

// Insert sends every command cmd renders, in order, stopping at the
// first error.
func (c *Cxn) Insert(cmd InsertCommand) error {
	for _, s := range cmd.IntoStrings() {
		if _, err := c.Cmd(s); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the underlying connection.
func (c *Cxn) Close() error {
	return c.conn.Close()
}
