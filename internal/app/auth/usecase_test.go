package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"civico/internal/adapter/repo/memory"
	"civico/internal/app/ports"
	"civico/internal/domain/settlement"
	"civico/internal/domain/worldmap"
)

type authFixture struct {
	store       *memory.Store
	credentials memory.CredentialRepo
	settlements memory.SettlementRepo
	cells       memory.MapIndex
	register    RegisterUseCase
}

func newAuthFixture(b worldmap.Bounds) *authFixture {
	store := memory.NewStore()
	f := &authFixture{
		store:       store,
		credentials: memory.NewCredentialRepo(store),
		settlements: memory.NewSettlementRepo(store),
		cells:       memory.NewMapIndex(store),
	}
	f.register = RegisterUseCase{
		Credentials: f.credentials,
		Settlements: f.settlements,
		Map:         f.cells,
		TxManager:   memory.NewTxManager(store),
		Placer:      worldmap.Placer{Bounds: b, Attempts: 4},
		Now:         func() time.Time { return time.Unix(1700000000, 0).UTC() },
	}
	return f
}

func TestRegisterUseCase_FoundsStarterSettlement(t *testing.T) {
	f := newAuthFixture(worldmap.DefaultBounds())
	ctx := context.Background()

	resp, err := f.register.Execute(ctx, RegisterRequest{Username: "alice", Password: "hunter2"})
	if err != nil {
		t.Fatalf("register error: %v", err)
	}
	if resp.SettlementID == "" || resp.Token == "" || resp.IssuedAt == "" {
		t.Fatalf("expected non-empty register response: %+v", resp)
	}
	s, err := f.settlements.GetByID(ctx, resp.SettlementID)
	if err != nil {
		t.Fatalf("load settlement: %v", err)
	}
	if s.Username != "alice" || s.Coordinates != resp.Coordinates || !s.Pacifist {
		t.Fatalf("unexpected settlement %+v", s)
	}
	if s.Resources.Lumber.Stock != settlement.StartingStock || s.Version != 1 {
		t.Fatalf("expected starter resources, got %+v", s.Resources.Lumber)
	}
	if taken, _ := f.cells.IsOccupied(ctx, resp.Coordinates); !taken {
		t.Fatalf("expected cell claimed")
	}

	id, err := VerifyUseCase{Credentials: f.credentials}.Execute(ctx, VerifyRequest{Token: "Bearer " + resp.Token})
	if err != nil || id != resp.SettlementID {
		t.Fatalf("expected token to verify, got id=%q err=%v", id, err)
	}
}

func TestRegisterUseCase_RejectsDuplicateUsername(t *testing.T) {
	f := newAuthFixture(worldmap.DefaultBounds())
	ctx := context.Background()
	if _, err := f.register.Execute(ctx, RegisterRequest{Username: "alice", Password: "a"}); err != nil {
		t.Fatalf("first register: %v", err)
	}
	_, err := f.register.Execute(ctx, RegisterRequest{Username: "alice", Password: "b"})
	if !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
	if got := UserMessage(err); got != "Username already taken." {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestRegisterUseCase_FindsLastFreeCell(t *testing.T) {
	b := worldmap.Bounds{Size: 3}
	f := newAuthFixture(b)
	ctx := context.Background()
	last := worldmap.Point{X: 2, Y: 2}
	for i := 0; i < b.Cells(); i++ {
		p := b.PointAt(i)
		if p == last {
			continue
		}
		if err := f.cells.Claim(ctx, p, "other"); err != nil {
			t.Fatalf("claim %+v: %v", p, err)
		}
	}
	f.register.Placer.Intn = func(int) int { return 0 }

	resp, err := f.register.Execute(ctx, RegisterRequest{Username: "late", Password: "pw"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if resp.Coordinates != last {
		t.Fatalf("expected %+v, got %+v", last, resp.Coordinates)
	}

	_, err = f.register.Execute(ctx, RegisterRequest{Username: "later", Password: "pw"})
	if !errors.Is(err, ErrMapFull) {
		t.Fatalf("expected ErrMapFull, got %v", err)
	}
}

type claimOnceFails struct {
	ports.MapIndex
	failed bool
}

func (m *claimOnceFails) Claim(ctx context.Context, p worldmap.Point, id string) error {
	if !m.failed {
		m.failed = true
		return ports.ErrConflict
	}
	return m.MapIndex.Claim(ctx, p, id)
}

func TestRegisterUseCase_RetriesLostCellRace(t *testing.T) {
	f := newAuthFixture(worldmap.DefaultBounds())
	racy := &claimOnceFails{MapIndex: f.cells}
	f.register.Map = racy

	resp, err := f.register.Execute(context.Background(), RegisterRequest{Username: "bob", Password: "pw"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if !racy.failed || resp.SettlementID == "" {
		t.Fatalf("expected one retry then success")
	}
}

type createAlwaysFails struct {
	ports.SettlementRepository
}

func (createAlwaysFails) Create(context.Context, settlement.Snapshot) error {
	return ports.ErrUnavailable
}

type claimRecorder struct {
	ports.MapIndex
	claimed []worldmap.Point
}

func (m *claimRecorder) Claim(ctx context.Context, p worldmap.Point, id string) error {
	m.claimed = append(m.claimed, p)
	return m.MapIndex.Claim(ctx, p, id)
}

func TestRegisterUseCase_FailedCreateReleasesCell(t *testing.T) {
	f := newAuthFixture(worldmap.Bounds{Size: 4})
	ctx := context.Background()
	rec := &claimRecorder{MapIndex: f.cells}
	f.register.Map = rec
	f.register.Settlements = createAlwaysFails{SettlementRepository: f.settlements}

	if _, err := f.register.Execute(ctx, RegisterRequest{Username: "dave", Password: "pw"}); err == nil {
		t.Fatalf("expected register to fail")
	}
	if len(rec.claimed) == 0 {
		t.Fatalf("expected a cell to be claimed before the failure")
	}
	for _, p := range rec.claimed {
		if taken, _ := f.cells.IsOccupied(ctx, p); taken {
			t.Fatalf("cell %+v still claimed after failed register", p)
		}
	}
	if _, err := f.credentials.GetByUsername(ctx, "dave"); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("expected no credential, got %v", err)
	}
}

func TestLoginLogout(t *testing.T) {
	f := newAuthFixture(worldmap.DefaultBounds())
	ctx := context.Background()
	reg, err := f.register.Execute(ctx, RegisterRequest{Username: "carol", Password: "secret"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	login := LoginUseCase{Credentials: f.credentials}
	verify := VerifyUseCase{Credentials: f.credentials}

	if _, err := login.Execute(ctx, LoginRequest{Username: "carol", Password: "wrong"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := login.Execute(ctx, LoginRequest{Username: "nobody", Password: "secret"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown user, got %v", err)
	}

	resp, err := login.Execute(ctx, LoginRequest{Username: "carol", Password: "secret"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.SettlementID != reg.SettlementID {
		t.Fatalf("login settlement mismatch: %s != %s", resp.SettlementID, reg.SettlementID)
	}
	if _, err := verify.Execute(ctx, VerifyRequest{Token: reg.Token}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected registration token replaced, got %v", err)
	}
	if id, err := verify.Execute(ctx, VerifyRequest{Token: resp.Token}); err != nil || id != reg.SettlementID {
		t.Fatalf("expected login token valid, got %q %v", id, err)
	}

	if err := (LogoutUseCase{Credentials: f.credentials}).Execute(ctx, reg.SettlementID); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := verify.Execute(ctx, VerifyRequest{Token: resp.Token}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected token revoked, got %v", err)
	}
}

func TestVerifyUseCase_RejectsEmptyToken(t *testing.T) {
	uc := VerifyUseCase{Credentials: memory.NewCredentialRepo(memory.NewStore())}
	if _, err := uc.Execute(context.Background(), VerifyRequest{Token: "Bearer "}); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
}
