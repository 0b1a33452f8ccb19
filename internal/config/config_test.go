package config

import "testing"

func TestNewStoreWritesDefault(t *testing.T) {
	driver := NewMemory()

	store, err := NewStore(driver)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}

	exists, err := driver.Exists()
	if err != nil || !exists {
		t.Fatalf("Exists() = %v, %v, want true", exists, err)
	}

	cfg, err := store.GetConfig()
	if err != nil {
		t.Fatalf("GetConfig() error = %v", err)
	}
	if cfg.VisibleTiles != 2 {
		t.Fatalf("VisibleTiles = %d, want 2", cfg.VisibleTiles)
	}
}

func TestUpdateConfig(t *testing.T) {
	store, err := NewStore(NewMemory())
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}

	err = store.UpdateConfig(func(cfg Config) (Config, error) {
		cfg.VisibleTiles = 4
		cfg.Autostart = append(cfg.Autostart, "org.gnome.Terminal")
		return cfg, nil
	})
	if err != nil {
		t.Fatalf("UpdateConfig() error = %v", err)
	}

	cfg, err := store.GetConfig()
	if err != nil {
		t.Fatalf("GetConfig() error = %v", err)
	}
	if cfg.VisibleTiles != 4 {
		t.Fatalf("VisibleTiles = %d, want 4", cfg.VisibleTiles)
	}
	if len(cfg.Autostart) != 1 || cfg.Autostart[0] != "org.gnome.Terminal" {
		t.Fatalf("Autostart = %v", cfg.Autostart)
	}
}

func TestYAMLRoundTrip(t *testing.T) {
	path := t.TempDir() + "/shell.yaml"
	driver := NewYAML(path)

	exists, err := driver.Exists()
	if err != nil || exists {
		t.Fatalf("Exists() = %v, %v, want false", exists, err)
	}

	want := Config{VisibleTiles: 3, Autostart: []string{"a", "b"}}
	if err := driver.Write(want); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	got, err := driver.Read()
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if got.VisibleTiles != want.VisibleTiles || len(got.Autostart) != 2 {
		t.Fatalf("Read() = %+v, want %+v", got, want)
	}
}
