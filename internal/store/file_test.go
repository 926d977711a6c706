package store

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/demandcast/demandcast/internal/models"
)

func TestFileStore_SaveAndLoad(t *testing.T) {
	fs, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}

	forecasts := []models.CategoryForecast{
		{
			Category: "beverages",
			History: []models.SeriesPoint{
				{Date: "2024-01-01", Value: 10},
				{Date: "2024-01-08", Value: 12},
			},
			Forecasting: []models.SeriesPoint{
				{Date: "2024-01-15", Value: 11},
			},
			Weeks: 4,
		},
	}

	ctx := context.Background()
	if err := fs.Save(ctx, CategoriesFile, forecasts); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	var loaded []models.CategoryForecast
	if err := fs.Load(ctx, CategoriesFile, &loaded); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(loaded) != 1 {
		t.Fatalf("Expected 1 forecast, got %d", len(loaded))
	}
	if loaded[0].Category != "beverages" {
		t.Errorf("Expected category 'beverages', got %s", loaded[0].Category)
	}
	if len(loaded[0].History) != 2 || loaded[0].History[1].Value != 12 {
		t.Errorf("History not preserved: %+v", loaded[0].History)
	}
	if loaded[0].Weeks != 4 {
		t.Errorf("Expected weeks 4, got %d", loaded[0].Weeks)
	}
}

func TestFileStore_SaveOverwrites(t *testing.T) {
	fs, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}

	ctx := context.Background()
	if err := fs.Save(ctx, "test.json", map[string]int{"a": 1}); err != nil {
		t.Fatalf("First save failed: %v", err)
	}
	if err := fs.Save(ctx, "test.json", map[string]int{"b": 2}); err != nil {
		t.Fatalf("Second save failed: %v", err)
	}

	var loaded map[string]int
	if err := fs.Load(ctx, "test.json", &loaded); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if _, stale := loaded["a"]; stale {
		t.Error("Expected old content to be fully replaced")
	}
	if loaded["b"] != 2 {
		t.Errorf("Expected b=2, got %v", loaded)
	}
}

func TestFileStore_NoTempFileLeftBehind(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}

	if err := fs.Save(context.Background(), "test.json", []int{1, 2, 3}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".tmp") {
			t.Errorf("Temp file left behind: %s", entry.Name())
		}
	}
}

func TestFileStore_IndentedOutput(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}

	if err := fs.Save(context.Background(), "test.json", map[string]string{"k": "v"}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "test.json"))
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if !strings.Contains(string(data), "\n  ") {
		t.Errorf("Expected indented JSON, got %q", string(data))
	}
}

func TestFileStore_LoadMissing(t *testing.T) {
	fs, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}

	var out []models.CategoryForecast
	if err := fs.Load(context.Background(), "missing.json", &out); !os.IsNotExist(err) {
		t.Errorf("Expected not-exist error, got %v", err)
	}
}

func TestFileStore_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "cache")
	if _, err := NewFileStore(dir); err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("Expected directory to exist: %v", err)
	}
}
