//go:build js && wasm

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"syscall/js"
	"time"

	"github.com/hack-pad/hackpadfs/indexeddb"
	"go.uber.org/zap"

	"github.com/kittclouds/rtdb/internal/engine"
	"github.com/kittclouds/rtdb/internal/kv"
	"github.com/kittclouds/rtdb/internal/logger"
	"github.com/kittclouds/rtdb/internal/service"
	"github.com/kittclouds/rtdb/internal/store"
)

// Version info
const Version = "0.1.0"

// Global state
var (
	db  *store.Store
	svc *service.Service
)

// callTimeout bounds one JS call. Init waits for the engine, so it gets more.
const (
	callTimeout = 10 * time.Second
	initTimeout = engine.BootstrapWait + callTimeout
)

func main() {
	log := logger.NewWriter(logLevel(), os.Stderr, "rtdb-wasm")

	slot, err := openSlot(log)
	if err != nil {
		log.Error("no storage available", zap.Error(err))
		return
	}

	db = store.New(
		engine.NewLoader(engine.ProbeFor(engine.NcrucesName), log),
		slot,
		store.Options{Logger: log},
	)
	svc = service.New(db, nil, log)
	log.Info("WASM ready", zap.String("version", Version))

	js.Global().Set("RTDB", js.ValueOf(map[string]interface{}{
		"version":               js.FuncOf(getVersion),
		"init":                  js.FuncOf(initDB),
		"available":             js.FuncOf(available),
		"getAllWarga":           js.FuncOf(getAllWarga),
		"addWarga":              js.FuncOf(addWarga),
		"getAllSecurityReports": js.FuncOf(getAllSecurityReports),
		"addSecurityReport":     js.FuncOf(addSecurityReport),
		"exportDB":              js.FuncOf(exportDB),
		"importDB":              js.FuncOf(importDB),
		"resetDB":               js.FuncOf(resetDB),
		"getAdministrationData": js.FuncOf(getAdministrationData),
	}))

	select {}
}

// openSlot prefers localStorage. Workers have none, so they keep the
// snapshot in an IndexedDB-backed filesystem instead.
func openSlot(log *zap.Logger) (kv.Slot, error) {
	ls, err := kv.NewLocalStorage()
	if err == nil {
		return kv.WithQuota(ls, kv.DefaultQuota), nil
	}
	log.Warn("localStorage unavailable, using IndexedDB", zap.Error(err))

	fs, err := indexeddb.NewFS(context.Background(), "rtdb", indexeddb.Options{})
	if err != nil {
		return nil, err
	}
	return kv.NewFSSlot(fs, ".")
}

// logLevel reads window.RTDB_LOG_LEVEL so a page can turn on debug output
// before the module starts.
func logLevel() string {
	v := js.Global().Get("RTDB_LOG_LEVEL")
	if v.Type() != js.TypeString {
		return "info"
	}
	return v.String()
}

func getVersion(this js.Value, args []js.Value) interface{} {
	return Version
}

func available(this js.Value, args []js.Value) interface{} {
	return db.Available()
}

// initDB loads the engine and restores the saved snapshot.
// Returns: Promise<string> with a success or error result
func initDB(this js.Value, args []js.Value) interface{} {
	return promise(initTimeout, func(ctx context.Context) (interface{}, error) {
		if err := db.Init(ctx); err != nil {
			return nil, err
		}
		return successResult("initialized"), nil
	})
}

// getAllWarga returns: Promise<string> JSON array of residents
func getAllWarga(this js.Value, args []js.Value) interface{} {
	return promise(callTimeout, func(ctx context.Context) (interface{}, error) {
		return jsonResult(db.GetAllWarga(ctx))
	})
}

// addWarga: [wargaJSON string]
// Returns: Promise<string> JSON of the stored resident
func addWarga(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorResult("requires 1 arg: wargaJSON (string)")
	}
	var w store.Warga
	if err := json.Unmarshal([]byte(args[0].String()), &w); err != nil {
		return errorResult("invalid warga json: " + err.Error())
	}
	return promise(callTimeout, func(ctx context.Context) (interface{}, error) {
		return jsonResult(svc.AddWarga(ctx, w))
	})
}

// getAllSecurityReports returns: Promise<string> JSON array of reports
func getAllSecurityReports(this js.Value, args []js.Value) interface{} {
	return promise(callTimeout, func(ctx context.Context) (interface{}, error) {
		return jsonResult(db.GetAllSecurityReports(ctx))
	})
}

// addSecurityReport: [reportJSON string]
// Returns: Promise<string> JSON of the stored report and the triage suggestion
func addSecurityReport(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorResult("requires 1 arg: reportJSON (string)")
	}
	var r store.SecurityReport
	if err := json.Unmarshal([]byte(args[0].String()), &r); err != nil {
		return errorResult("invalid report json: " + err.Error())
	}
	return promise(callTimeout, func(ctx context.Context) (interface{}, error) {
		return jsonResult(svc.SubmitSecurityReport(ctx, r))
	})
}

// exportDB returns: Promise<Uint8Array|null> with the SQLite file image
func exportDB(this js.Value, args []js.Value) interface{} {
	return promise(callTimeout, func(ctx context.Context) (interface{}, error) {
		data, err := db.ExportDB(ctx)
		if err != nil {
			return nil, err
		}
		if data == nil {
			return js.Null(), nil
		}
		arr := js.Global().Get("Uint8Array").New(len(data))
		js.CopyBytesToJS(arr, data)
		return arr, nil
	})
}

// importDB: [bytes Uint8Array]
// Returns: Promise<string> with a success or error result
func importDB(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 || args[0].Get("length").IsUndefined() {
		return errorResult("requires 1 arg: bytes (Uint8Array)")
	}
	data := make([]byte, args[0].Get("length").Int())
	js.CopyBytesToGo(data, args[0])
	return promise(callTimeout, func(ctx context.Context) (interface{}, error) {
		if err := db.ImportDB(ctx, bytes.NewReader(data)); err != nil {
			return nil, err
		}
		return successResult("imported"), nil
	})
}

// resetDB drops everything and starts over with empty tables.
func resetDB(this js.Value, args []js.Value) interface{} {
	return promise(callTimeout, func(ctx context.Context) (interface{}, error) {
		if err := db.ResetDB(ctx); err != nil {
			return nil, err
		}
		return successResult("reset"), nil
	})
}

// getAdministrationData: [type string]
// Returns: Promise<string> JSON payload for the data type
func getAdministrationData(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorResult("requires 1 arg: type (string)")
	}
	typ := args[0].String()
	return promise(callTimeout, func(ctx context.Context) (interface{}, error) {
		return jsonResult(svc.GetAdministrationData(ctx, typ))
	})
}

// promise runs fn off the event loop. Failures resolve with an error result
// so callers handle both cases the same way.
func promise(timeout time.Duration, fn func(ctx context.Context) (interface{}, error)) interface{} {
	var handler js.Func
	handler = js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		resolve := args[0]
		go func() {
			defer handler.Release()
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()

			v, err := fn(ctx)
			if err != nil {
				resolve.Invoke(errorResult(err.Error()))
				return
			}
			resolve.Invoke(v)
		}()
		return nil
	})
	return js.Global().Get("Promise").New(handler)
}

func jsonResult[T any](v T, err error) (interface{}, error) {
	if err != nil {
		return nil, err
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Helper: Create error result
func errorResult(msg string) interface{} {
	result := map[string]interface{}{
		"error": msg,
	}
	jsonBytes, _ := json.Marshal(result)
	return string(jsonBytes)
}

// Helper: Create success result
func successResult(msg string) interface{} {
	result := map[string]interface{}{
		"success": msg,
	}
	jsonBytes, _ := json.Marshal(result)
	return string(jsonBytes)
}
