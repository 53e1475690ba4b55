package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"civico/internal/app/auth"
	"civico/internal/app/playerstate"
	"civico/internal/config"
	"civico/internal/domain/settlement"
	"civico/internal/domain/worldmap"

	"go.uber.org/zap"
)

func TestRootCmd_HasSubcommands(t *testing.T) {
	root := newRootCmd()
	for _, name := range []string{"serve", "migrate", "inspect"} {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Fatalf("missing subcommand %q: %v", name, err)
		}
	}
}

func TestInspect_RequiresUsername(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"inspect"})
	root.SetOut(&bytes.Buffer{})
	if err := root.Execute(); err == nil {
		t.Fatalf("expected argument error")
	}
}

func TestMigrate_SQLiteCreatesSchema(t *testing.T) {
	t.Setenv("CIVICO_DB_DSN", "")
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "civico.db")
	cfgPath := filepath.Join(dir, "civico.toml")
	body := "[database]\nbackend = \"sqlite\"\nsqlite_path = \"" + filepath.ToSlash(dbPath) + "\"\n"
	if err := os.WriteFile(cfgPath, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	var out bytes.Buffer
	root := newRootCmd()
	root.SetArgs([]string{"migrate", "--config", cfgPath})
	root.SetOut(&out)
	if err := root.Execute(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if !strings.Contains(out.String(), "sqlite schema ready") {
		t.Fatalf("unexpected output %q", out.String())
	}
	if _, err := os.Stat(dbPath); err != nil {
		t.Fatalf("database file not created: %v", err)
	}
}

func TestBuildServices_MemoryBackendRoundTrip(t *testing.T) {
	ctx := context.Background()
	b, err := openBackend(ctx, config.DatabaseConfig{Backend: config.BackendMemory}, zap.NewNop())
	if err != nil {
		t.Fatalf("open backend: %v", err)
	}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := buildServices(b, config.GameConfig{MapSize: 10, LootFraction: 0.5, MaxAttempts: 3}, zap.NewNop(), func() time.Time { return now })

	resp, err := svc.Register.Execute(ctx, authRequest("alice"))
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	v, err := svc.State.GetReconciledState(ctx, resp.SettlementID)
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if v.Username != "alice" || v.Lumber != settlement.StartingStock {
		t.Fatalf("unexpected view: %+v", v)
	}
}

func TestOpenBackend_UnknownBackend(t *testing.T) {
	if _, err := openBackend(context.Background(), config.DatabaseConfig{Backend: "mysql"}, zap.NewNop()); err == nil {
		t.Fatalf("expected error")
	}
}

func TestRenderView_ListsResourcesTroopsAndGroups(t *testing.T) {
	v := playerstate.View{
		Username:       "alice",
		Lumber:         120,
		MaxLumber:      500,
		LumberRate:     5,
		Population:     3,
		MapCoordinates: worldmap.Point{X: 4, Y: 7},
		Troops:         settlement.Troops{settlement.Spearman: 12},
		TroopsOnMove: []playerstate.MovingGroup{{
			ID:          "g-1",
			Destination: worldmap.Point{X: 5, Y: 5},
			ArrivalTime: time.Date(2026, 3, 1, 13, 0, 0, 0, time.UTC).UnixMilli(),
		}},
	}
	var out bytes.Buffer
	if err := renderView(&out, v); err != nil {
		t.Fatalf("render: %v", err)
	}
	text := out.String()
	for _, want := range []string{"alice at (4,7)", "120", "Spearman", "12", "g-1", "(5,5)", "2026-03-01T13:00:00Z"} {
		if !strings.Contains(text, want) {
			t.Fatalf("output missing %q:\n%s", want, text)
		}
	}
}

func TestOriginChecker(t *testing.T) {
	if originChecker(nil) != nil {
		t.Fatalf("empty allow list should accept any origin")
	}
}

func authRequest(username string) auth.RegisterRequest {
	return auth.RegisterRequest{Username: username, Password: "secret"}
}
