package client

import (
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/wtrscape/wstf/queue"
)

// Pool is a small pool of Cxns, growing on demand, with a bounded buffer
// of inserts that couldn't be delivered (connection drop, missing
// database) so they can be retried instead of dropped.
type Pool struct {
	cxns      []*Cxn
	host      string
	port      string
	available []int
	queue     *queue.CircularQueue[InsertCommand]
}

// NewPool dials nWorkers connections up front and sizes the retry buffer
// to cfg.QueueCapacity.
func NewPool(nWorkers int, cfg Config) (*Pool, error) {
	p := &Pool{
		host:  cfg.Host,
		port:  cfg.Port,
		queue: queue.NewCircularQueue[InsertCommand](cfg.QueueCapacity),
	}

	for i := 0; i < nWorkers; i++ {
		cxn, err := Dial(cfg.Host, cfg.Port)
		if err != nil {
			return nil, err
		}
		p.cxns = append(p.cxns, cxn)
		p.available = append(p.available, i)
	}

	return p, nil
}

func (p *Pool) checkout() (int, error) {
	if len(p.available) == 0 {
		cxn, err := Dial(p.host, p.port)
		if err != nil {
			return 0, err
		}
		p.cxns = append(p.cxns, cxn)
		n := len(p.cxns) - 1
		log.Warn().Int("size", len(p.cxns)).Msg("growing connection pool")
		return n, nil
	}
	n := p.available[0]
	p.available = p.available[1:]
	return n, nil
}

func (p *Pool) checkin(n int) {
	p.available = append(p.available, n)
}

// CreateDB issues a CREATE command on an available connection.
func (p *Pool) CreateDB(dbname string) (string, error) {
	log.Info().Str("db", dbname).Msg("creating database")
	return p.Cmd("CREATE " + dbname + "\n")
}

// Cmd runs command on an available (or newly dialed) connection. If the
// connection had dropped it is replaced, the command is not retried, and
// the connection error is returned.
func (p *Pool) Cmd(command string) (string, error) {
	n, err := p.checkout()
	if err != nil {
		return "", err
	}
	defer p.checkin(n)

	res, err := p.cxns[n].Cmd(command)
	var connErr *ConnectionError
	if errors.As(err, &connErr) {
		time.Sleep(time.Second)
		cxn, dialErr := Dial(p.host, p.port)
		if dialErr != nil {
			return "", dialErr
		}
		p.cxns[n] = cxn
		log.Error().Msg("replacing dropped connection")
	}
	return res, err
}

// Insert sends cmd across however many lines it renders into. On a
// connection drop the command is buffered for a later retry and the
// connection is replaced; on a missing database, the database is
// created, the command is buffered for retry, and the original error is
// still returned so the caller knows this attempt didn't land. On
// success, one buffered command (if any) is popped and retried.
func (p *Pool) Insert(cmd InsertCommand) error {
	n, err := p.checkout()
	if err != nil {
		return err
	}

	for _, s := range cmd.IntoStrings() {
		_, err := p.cxns[n].Cmd(s)

		var connErr *ConnectionError
		var dbErr *DBNotFoundError

		switch {
		case errors.As(err, &connErr):
			time.Sleep(time.Second)
			p.queue.Push(cmd)
			cxn, dialErr := Dial(p.host, p.port)
			if dialErr != nil {
				p.checkin(n)
				return dialErr
			}
			p.cxns[n] = cxn
			log.Error().Msg("replacing dropped connection")
			p.checkin(n)
			return err

		case errors.As(err, &dbErr):
			_, _ = p.CreateDB(dbErr.DBName)
			p.queue.Push(cmd)
			p.checkin(n)
			return err

		case err != nil:
			p.checkin(n)
			return err
		}
	}

	p.checkin(n)

	if buffered, ok := p.queue.Pop(); ok {
		_ = p.Insert(buffered)
	}

	return nil
}

// Close closes every pooled connection.
func (p *Pool) Close() error {
	var firstErr error
	for _, c := range p.cxns {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
