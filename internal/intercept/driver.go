package intercept

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
)

// OpenDB returns a *sql.DB whose connections come from c and dispatch every
// ExecContext/QueryContext through t. Nothing is registered globally.
func OpenDB(c driver.Connector, t *Table) *sql.DB {
	return sql.OpenDB(&tracedConnector{base: c, table: t})
}

// WrapDriver returns a driver whose connections dispatch through t.
func WrapDriver(d driver.Driver, t *Table) driver.Driver {
	return &tracedDriver{base: d, table: t}
}

// DriverInstaller registers a traced copy of Base under Name with
// database/sql, so sql.Open(Name, dsn) yields intercepted connections.
type DriverInstaller struct {
	Name string
	Base driver.Driver
}

// Install implements Installer. Registering a name twice is reported as
// an error instead of the panic sql.Register raises.
func (i DriverInstaller) Install(t *Table) (err error) {
	if i.Name == "" || i.Base == nil {
		return errors.New("driver installer: name and base driver are required")
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("driver installer %q: %v", i.Name, r)
		}
	}()
	sql.Register(i.Name, WrapDriver(i.Base, t))
	return nil
}

type tracedDriver struct {
	base  driver.Driver
	table *Table
}

func (d *tracedDriver) Open(name string) (driver.Conn, error) {
	c, err := d.base.Open(name)
	if err != nil {
		return nil, err
	}
	return &tracedConn{base: c, table: d.table}, nil
}

// OpenConnector implements driver.DriverContext.
func (d *tracedDriver) OpenConnector(name string) (driver.Connector, error) {
	if dc, ok := d.base.(driver.DriverContext); ok {
		c, err := dc.OpenConnector(name)
		if err != nil {
			return nil, err
		}
		return &tracedConnector{base: c, table: d.table, drv: d}, nil
	}
	return &dsnConnector{dsn: name, drv: d}, nil
}

type dsnConnector struct {
	dsn string
	drv *tracedDriver
}

func (c *dsnConnector) Connect(context.Context) (driver.Conn, error) { return c.drv.Open(c.dsn) }
func (c *dsnConnector) Driver() driver.Driver                       { return c.drv }

type tracedConnector struct {
	base  driver.Connector
	table *Table
	drv   *tracedDriver
}

func (c *tracedConnector) Connect(ctx context.Context) (driver.Conn, error) {
	conn, err := c.base.Connect(ctx)
	if err != nil {
		return nil, err
	}
	return &tracedConn{base: conn, table: c.table}, nil
}

func (c *tracedConnector) Driver() driver.Driver {
	if c.drv != nil {
		return c.drv
	}
	return &tracedDriver{base: c.base.Driver(), table: c.table}
}

// tracedConn forwards every optional driver interface to base when base
// implements it, and falls back the way database/sql expects otherwise.
type tracedConn struct {
	base  driver.Conn
	table *Table
}

var (
	_ driver.ExecerContext      = (*tracedConn)(nil)
	_ driver.QueryerContext     = (*tracedConn)(nil)
	_ driver.ConnPrepareContext = (*tracedConn)(nil)
	_ driver.ConnBeginTx        = (*tracedConn)(nil)
	_ driver.Pinger             = (*tracedConn)(nil)
	_ driver.SessionResetter    = (*tracedConn)(nil)
	_ driver.Validator          = (*tracedConn)(nil)
	_ driver.NamedValueChecker  = (*tracedConn)(nil)
)

func (c *tracedConn) Prepare(query string) (driver.Stmt, error) {
	s, err := c.base.Prepare(query)
	if err != nil {
		return nil, err
	}
	return &tracedStmt{base: s, query: query, table: c.table}, nil
}

func (c *tracedConn) PrepareContext(ctx context.Context, query string) (driver.Stmt, error) {
	pc, ok := c.base.(driver.ConnPrepareContext)
	if !ok {
		return c.Prepare(query)
	}
	s, err := pc.PrepareContext(ctx, query)
	if err != nil {
		return nil, err
	}
	return &tracedStmt{base: s, query: query, table: c.table}, nil
}

func (c *tracedConn) Close() error { return c.base.Close() }

func (c *tracedConn) Begin() (driver.Tx, error) { return c.base.Begin() }

func (c *tracedConn) BeginTx(ctx context.Context, opts driver.TxOptions) (driver.Tx, error) {
	if bt, ok := c.base.(driver.ConnBeginTx); ok {
		return bt.BeginTx(ctx, opts)
	}
	if opts.ReadOnly || opts.Isolation != driver.IsolationLevel(sql.LevelDefault) {
		return nil, errors.New("intercept: driver does not support non-default transaction options")
	}
	return c.base.Begin()
}

func (c *tracedConn) ExecContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	ec, ok := c.base.(driver.ExecerContext)
	if !ok {
		return nil, driver.ErrSkip
	}
	return call(ctx, c.table, OpDriverExec, query, func(ctx context.Context) (driver.Result, error) {
		return ec.ExecContext(ctx, query, args)
	})
}

func (c *tracedConn) QueryContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	qc, ok := c.base.(driver.QueryerContext)
	if !ok {
		return nil, driver.ErrSkip
	}
	return call(ctx, c.table, OpDriverQuery, query, func(ctx context.Context) (driver.Rows, error) {
		return qc.QueryContext(ctx, query, args)
	})
}

func (c *tracedConn) Ping(ctx context.Context) error {
	if p, ok := c.base.(driver.Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

func (c *tracedConn) ResetSession(ctx context.Context) error {
	if r, ok := c.base.(driver.SessionResetter); ok {
		return r.ResetSession(ctx)
	}
	return nil
}

func (c *tracedConn) IsValid() bool {
	if v, ok := c.base.(driver.Validator); ok {
		return v.IsValid()
	}
	return true
}

func (c *tracedConn) CheckNamedValue(nv *driver.NamedValue) error {
	if nvc, ok := c.base.(driver.NamedValueChecker); ok {
		return nvc.CheckNamedValue(nv)
	}
	return driver.ErrSkip
}

// tracedStmt records each execution of a prepared statement under the
// text it was prepared with.
type tracedStmt struct {
	base  driver.Stmt
	query string
	table *Table
}

var (
	_ driver.StmtExecContext  = (*tracedStmt)(nil)
	_ driver.StmtQueryContext = (*tracedStmt)(nil)
)

func (s *tracedStmt) Close() error  { return s.base.Close() }
func (s *tracedStmt) NumInput() int { return s.base.NumInput() }

func (s *tracedStmt) Exec(args []driver.Value) (driver.Result, error) {
	return call(context.Background(), s.table, OpDriverExec, s.query, func(context.Context) (driver.Result, error) {
		return s.base.Exec(args)
	})
}

func (s *tracedStmt) Query(args []driver.Value) (driver.Rows, error) {
	return call(context.Background(), s.table, OpDriverQuery, s.query, func(context.Context) (driver.Rows, error) {
		return s.base.Query(args)
	})
}

func (s *tracedStmt) ExecContext(ctx context.Context, args []driver.NamedValue) (driver.Result, error) {
	sec, ok := s.base.(driver.StmtExecContext)
	if !ok {
		values, err := namedValuesToValues(args)
		if err != nil {
			return nil, err
		}
		return s.Exec(values)
	}
	return call(ctx, s.table, OpDriverExec, s.query, func(ctx context.Context) (driver.Result, error) {
		return sec.ExecContext(ctx, args)
	})
}

func (s *tracedStmt) QueryContext(ctx context.Context, args []driver.NamedValue) (driver.Rows, error) {
	sqc, ok := s.base.(driver.StmtQueryContext)
	if !ok {
		values, err := namedValuesToValues(args)
		if err != nil {
			return nil, err
		}
		return s.Query(values)
	}
	return call(ctx, s.table, OpDriverQuery, s.query, func(ctx context.Context) (driver.Rows, error) {
		return sqc.QueryContext(ctx, args)
	})
}

func namedValuesToValues(named []driver.NamedValue) ([]driver.Value, error) {
	values := make([]driver.Value, len(named))
	for i, nv := range named {
		if nv.Name != "" {
			return nil, errors.New("intercept: driver does not support named parameters")
		}
		values[i] = nv.Value
	}
	return values, nil
}
