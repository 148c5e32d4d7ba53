//go:build !js

package engine

import (
	"context"
	"errors"
	"fmt"
	"os"

	"modernc.org/sqlite"
)

// ModerncName is the pure Go engine, handy for servers and CGO-free builds.
const ModerncName = "modernc"

type moderncSerdes interface {
	Serialize() ([]byte, error)
	NewRestore(srcURI string) (*sqlite.Backup, error)
}

type moderncSerializer struct{}

func (moderncSerializer) serialize(driverConn any) ([]byte, error) {
	c, ok := driverConn.(moderncSerdes)
	if !ok {
		return nil, errors.New("modernc: driver connection cannot serialize")
	}
	return c.Serialize()
}

// deserialize copies the image into the connection with the backup API. The
// driver's own Deserialize hands SQLite Go-allocated memory with FREEONCLOSE,
// which faults when the connection closes.
func (moderncSerializer) deserialize(driverConn any, data []byte) error {
	c, ok := driverConn.(moderncSerdes)
	if !ok {
		return errors.New("modernc: driver connection cannot restore")
	}

	f, err := os.CreateTemp("", "rtdb-restore-*.sqlite")
	if err != nil {
		return fmt.Errorf("modernc: failed to stage snapshot: %w", err)
	}
	path := f.Name()
	defer os.Remove(path)

	_, err = f.Write(data)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("modernc: failed to stage snapshot: %w", err)
	}

	restore, err := c.NewRestore(path)
	if err != nil {
		return err
	}
	_, err = restore.Step(-1)
	if ferr := restore.Finish(); err == nil {
		err = ferr
	}
	return err
}

// Modernc is the modernc.org/sqlite engine.
type Modernc struct{}

func (Modernc) Name() string { return ModerncName }

func (Modernc) Open(ctx context.Context, snapshot []byte) (*DB, error) {
	return openDB(ctx, "sqlite", moderncSerializer{}, snapshot)
}

func init() {
	Register(Modernc{})
}
