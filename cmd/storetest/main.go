//go:build !js

// Command storetest exercises a store end to end against every engine:
// write, save, restore from the slot, export and import.
package main

import (
	"bytes"
	"context"
	"fmt"
	"log"

	"go.uber.org/zap"

	"github.com/kittclouds/rtdb/internal/engine"
	"github.com/kittclouds/rtdb/internal/kv"
	"github.com/kittclouds/rtdb/internal/store"
)

func main() {
	for _, name := range engine.Names() {
		fmt.Printf("Testing %s...\n", name)
		testEngine(name)
	}

	fmt.Println("\n✅ All tests passed!")
}

func open(name string, slot kv.Slot) *store.Store {
	s := store.New(engine.NewLoader(engine.ProbeFor(name), zap.NewNop()), slot, store.Options{})
	if err := s.Init(context.Background()); err != nil {
		log.Fatalf("Init failed on %s: %v", name, err)
	}
	if !s.Available() {
		log.Fatalf("Init left %s degraded", name)
	}
	return s
}

func testEngine(name string) {
	ctx := context.Background()

	slot, err := kv.NewMemSlot()
	if err != nil {
		log.Fatalf("NewMemSlot failed: %v", err)
	}

	s := open(name, slot)
	w, err := s.AddWarga(ctx, store.Warga{Nama: "Andi Santoso", Alamat: "Jl. Mawar No. 12", Status: "Tetap"})
	if err != nil {
		log.Fatalf("AddWarga failed: %v", err)
	}
	if w.ID != 1 {
		log.Fatalf("AddWarga expected id 1, got %d", w.ID)
	}
	fmt.Println("  ✓ AddWarga works")

	r, err := s.AddSecurityReport(ctx, store.SecurityReport{JenisKejadian: "Pencurian", Lokasi: "Pos Ronda"})
	if err != nil {
		log.Fatalf("AddSecurityReport failed: %v", err)
	}
	if r.Status != "Pending" || r.Priority != "Medium" {
		log.Fatalf("AddSecurityReport expected Pending/Medium, got %s/%s", r.Status, r.Priority)
	}
	fmt.Println("  ✓ AddSecurityReport works")

	snap, err := s.ExportDB(ctx)
	if err != nil {
		log.Fatalf("ExportDB failed: %v", err)
	}
	if err := s.Close(); err != nil {
		log.Fatalf("Close failed: %v", err)
	}

	restored := open(name, slot)
	warga, err := restored.GetAllWarga(ctx)
	if err != nil {
		log.Fatalf("GetAllWarga failed: %v", err)
	}
	if len(warga) != 1 || warga[0].Nama != "Andi Santoso" {
		log.Fatalf("GetAllWarga expected Andi Santoso, got %+v", warga)
	}
	fmt.Println("  ✓ Restore works")

	if err := restored.ResetDB(ctx); err != nil {
		log.Fatalf("ResetDB failed: %v", err)
	}
	if err := restored.ImportDB(ctx, bytes.NewReader(snap)); err != nil {
		log.Fatalf("ImportDB failed: %v", err)
	}
	reports, err := restored.GetAllSecurityReports(ctx)
	if err != nil {
		log.Fatalf("GetAllSecurityReports failed: %v", err)
	}
	if len(reports) != 1 {
		log.Fatalf("GetAllSecurityReports expected 1, got %d", len(reports))
	}
	fmt.Println("  ✓ Export and import work")

	// Closing a handle that came from a snapshot must not fault.
	if err := restored.Close(); err != nil {
		log.Fatalf("Close failed: %v", err)
	}
	fmt.Println("  ✓ Close after restore works")
}
