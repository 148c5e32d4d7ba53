package engine

import (
	"context"
	"errors"

	"github.com/ncruces/go-sqlite3"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	"github.com/ncruces/go-sqlite3/ext/serdes"
)

// NcrucesName is the default engine: SQLite compiled to Wasm, usable from js/wasm builds.
const NcrucesName = "ncruces"

type rawConn interface {
	Raw() *sqlite3.Conn
}

type ncrucesSerializer struct{}

func (ncrucesSerializer) serialize(driverConn any) ([]byte, error) {
	c, ok := driverConn.(rawConn)
	if !ok {
		return nil, errors.New("ncruces: driver connection has no raw handle")
	}
	return serdes.Serialize(c.Raw(), "main")
}

func (ncrucesSerializer) deserialize(driverConn any, data []byte) error {
	c, ok := driverConn.(rawConn)
	if !ok {
		return errors.New("ncruces: driver connection has no raw handle")
	}
	return serdes.Deserialize(c.Raw(), "main", data)
}

// Ncruces is the ncruces/go-sqlite3 engine.
type Ncruces struct{}

func (Ncruces) Name() string { return NcrucesName }

func (Ncruces) Open(ctx context.Context, snapshot []byte) (*DB, error) {
	return openDB(ctx, "sqlite3", ncrucesSerializer{}, snapshot)
}

func init() {
	Register(Ncruces{})
}
