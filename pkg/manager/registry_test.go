package manager

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"craftd/pkg/utils/constants"
)

func TestRegistryCreate(t *testing.T) {
	base := t.TempDir()
	r := NewRegistry(base)

	inst, err := r.Create("survival")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if inst.ID != "survival" {
		t.Errorf("id = %q", inst.ID)
	}

	if _, err := os.Stat(filepath.Join(base, "survival", "server.properties")); err != nil {
		t.Errorf("properties file not provisioned: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(base, "survival", "eula.txt"))
	if err != nil {
		t.Fatalf("eula file not provisioned: %v", err)
	}
	if string(data) != "eula=true\n" {
		t.Errorf("eula content = %q", data)
	}

	got, err := r.Get("survival")
	if err != nil || got != inst {
		t.Errorf("Get = %v, %v", got, err)
	}
}

func TestRegistryCreateInvalidName(t *testing.T) {
	r := NewRegistry(t.TempDir())

	for _, name := range []string{"", "-leading", "_leading", "has space", "has/slash", "..", "waytoolongname_waytoolongname_wayttoolong"} {
		if _, err := r.Create(name); !errors.Is(err, ErrInvalidName) {
			t.Errorf("Create(%q) error = %v, want ErrInvalidName", name, err)
		}
	}

	for _, name := range []string{"a", "Survival-2", "my_world", "0abc"} {
		if _, err := r.Create(name); err != nil {
			t.Errorf("Create(%q) error = %v, want nil", name, err)
		}
	}
}

func TestRegistryCreateDuplicate(t *testing.T) {
	r := NewRegistry(t.TempDir())

	if _, err := r.Create("survival"); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := r.Create("survival"); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("duplicate Create error = %v, want ErrAlreadyExists", err)
	}
}

func TestRegistryGetMissing(t *testing.T) {
	r := NewRegistry(t.TempDir())

	if _, err := r.Get("nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get error = %v, want ErrNotFound", err)
	}
}

func TestRegistryRemove(t *testing.T) {
	base := t.TempDir()
	r := NewRegistry(base)

	if _, err := r.Create("survival"); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := r.Remove("survival"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := r.Get("survival"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after remove = %v, want ErrNotFound", err)
	}

	// The directory stays on disk.
	if _, err := os.Stat(filepath.Join(base, "survival")); err != nil {
		t.Errorf("instance directory was deleted: %v", err)
	}

	if err := r.Remove("survival"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Remove = %v, want ErrNotFound", err)
	}
}

func TestRegistryRemoveStopsActive(t *testing.T) {
	r := NewRegistry(t.TempDir())

	inst, err := r.Create("survival")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	inst.launch = []string{"cat"}

	if _, err := inst.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if err := r.Remove("survival"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if inst.Status().Active() {
		t.Error("instance still active after Remove")
	}
}

func TestRegistryListOrder(t *testing.T) {
	r := NewRegistry(t.TempDir())

	for _, name := range []string{"zeta", "alpha", "mid"} {
		if _, err := r.Create(name); err != nil {
			t.Fatalf("Create(%s): %v", name, err)
		}
	}

	infos := r.List()
	if len(infos) != 3 {
		t.Fatalf("List returned %d rows", len(infos))
	}
	want := []string{"zeta", "alpha", "mid"}
	for i := range want {
		if infos[i].ID != want[i] {
			t.Errorf("List[%d] = %s, want %s (creation order)", i, infos[i].ID, want[i])
		}
	}
}

func TestRegistryLoadExisting(t *testing.T) {
	base := t.TempDir()

	mkServer := func(name string, withJar bool) {
		dir := filepath.Join(base, name)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
		if withJar {
			if err := os.WriteFile(filepath.Join(dir, constants.ServerJarName), []byte("jar"), 0o644); err != nil {
				t.Fatal(err)
			}
		}
	}

	mkServer("survival", true)
	mkServer("creative", true)
	mkServer("not-a-server", false)
	if err := os.WriteFile(filepath.Join(base, "stray-file"), nil, 0o644); err != nil {
		t.Fatal(err)
	}

	r := NewRegistry(base)
	if err := r.LoadExisting(); err != nil {
		t.Fatalf("LoadExisting: %v", err)
	}

	if got := len(r.List()); got != 2 {
		t.Fatalf("discovered %d servers, want 2", got)
	}
	if _, err := r.Get("survival"); err != nil {
		t.Errorf("survival not discovered: %v", err)
	}
	if _, err := r.Get("not-a-server"); !errors.Is(err, ErrNotFound) {
		t.Errorf("directory without artifact was registered")
	}
}

func TestRegistryLoadExistingMissingBase(t *testing.T) {
	r := NewRegistry(filepath.Join(t.TempDir(), "does-not-exist"))

	if err := r.LoadExisting(); err != nil {
		t.Fatalf("LoadExisting on missing base: %v", err)
	}
}
