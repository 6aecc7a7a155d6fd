package script

import (
	"errors"
	"testing"
)

// fakeHost records script-driven calls and serves canned state.
type fakeHost struct {
	lp        [2]int32
	drawn     []int
	damaged   []int32
	moves     int
	targets   []int64
	scheduled []Request
	negated   []int
}

func (f *fakeHost) FieldCards(player uint8, location uint32) []int64 { return []int64{7, 8} }
func (f *fakeHost) CardCode(card int64) (uint32, error)              { return 4242, nil }
func (f *fakeHost) CardPlace(card int64) (uint8, uint32, int, uint32, error) {
	return 0, 0x4, 2, 0x1, nil
}
func (f *fakeHost) CardAttack(card int64) (int32, error)              { return 1800, nil }
func (f *fakeHost) CardDefense(card int64) (int32, error)             { return 1200, nil }
func (f *fakeHost) CounterCount(card int64, kind uint16) (int, error) { return 3, nil }
func (f *fakeHost) LP(player uint8) int32                             { return f.lp[player] }
func (f *fakeHost) TurnPlayer() uint8                                 { return 1 }
func (f *fakeHost) CurrentPhase() string                              { return "MAIN1" }
func (f *fakeHost) ChainDepth() int                                   { return 2 }

func (f *fakeHost) ScriptMove(card int64, player uint8, location uint32, slot int) error {
	f.moves++
	return nil
}
func (f *fakeHost) ScriptSetPosition(card int64, position uint32) error { return nil }
func (f *fakeHost) ScriptDamage(player uint8, amount int32) error {
	f.damaged = append(f.damaged, amount)
	return nil
}
func (f *fakeHost) ScriptRecover(player uint8, amount int32) error { return nil }
func (f *fakeHost) ScriptPayLP(player uint8, amount int32) error {
	if f.lp[player] < amount {
		return errors.New("lp too low")
	}
	f.lp[player] -= amount
	return nil
}
func (f *fakeHost) ScriptDraw(player uint8, count int) error {
	f.drawn = append(f.drawn, count)
	return nil
}
func (f *fakeHost) ScriptAddCounter(card int64, kind uint16, count int) error { return nil }
func (f *fakeHost) ScriptRemoveCounter(card int64, kind uint16, count int) (int, error) {
	return count, nil
}
func (f *fakeHost) ScriptEquip(card, target int64) error                { return nil }
func (f *fakeHost) ScriptRegisterEffect(card int64, effectID uint32) error { return nil }
func (f *fakeHost) ScriptNegateLink(link int) error {
	f.negated = append(f.negated, link)
	return nil
}
func (f *fakeHost) ScriptSetTargets(cards []int64) error {
	f.targets = cards
	return nil
}
func (f *fakeHost) ScriptSchedule(req Request) error {
	f.scheduled = append(f.scheduled, req)
	return nil
}
func (f *fakeHost) Random(min, max int) int { return min }

func newTestBridge(t *testing.T, src MapSource) (*Bridge, *fakeHost) {
	t.Helper()
	host := &fakeHost{lp: [2]int32{8000, 8000}}
	return New(src, host, nil), host
}

func TestBridge_InvokeConditionResult(t *testing.T) {
	src := MapSource{
		100: `
c100 = {}
function c100.condition(e)
	return Duel.get_lp(e.player) >= 1000
end
`,
	}
	b, _ := newTestBridge(t, src)

	ok, err := b.Invoke(100, CallbackCondition, Env{Player: 0})
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if !ok {
		t.Error("Expected condition to pass")
	}
}

func TestBridge_MissingCallbackIsNoOpTrue(t *testing.T) {
	src := MapSource{100: `c100 = {}`}
	b, _ := newTestBridge(t, src)

	ok, err := b.Invoke(100, CallbackCost, Env{})
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if !ok {
		t.Error("Expected missing callback to count as success")
	}

	has, err := b.Has(100, CallbackCost)
	if err != nil {
		t.Fatalf("Has failed: %v", err)
	}
	if has {
		t.Error("Expected Has to report missing callback")
	}
}

func TestBridge_NoModule(t *testing.T) {
	b, _ := newTestBridge(t, MapSource{})

	if _, err := b.Invoke(999, CallbackCondition, Env{}); !errors.Is(err, ErrNoModule) {
		t.Errorf("Expected ErrNoModule, got %v", err)
	}
	if _, err := b.Has(999, CallbackCondition); !errors.Is(err, ErrNoModule) {
		t.Errorf("Expected ErrNoModule, got %v", err)
	}
}

func TestBridge_ModuleWithoutTable(t *testing.T) {
	src := MapSource{100: `x = 1`}
	b, _ := newTestBridge(t, src)

	if _, err := b.Invoke(100, CallbackCondition, Env{}); !errors.Is(err, ErrNoModule) {
		t.Errorf("Expected ErrNoModule for missing table, got %v", err)
	}
}

func TestBridge_ScriptErrorWrapped(t *testing.T) {
	src := MapSource{
		100: `
c100 = {}
function c100.operate(e)
	error("boom")
end
`,
	}
	b, _ := newTestBridge(t, src)

	_, err := b.Invoke(100, CallbackOperation, Env{})
	if !errors.Is(err, ErrScript) {
		t.Errorf("Expected ErrScript, got %v", err)
	}
	if b.Depth() != 0 {
		t.Errorf("Expected depth restored to 0, got %d", b.Depth())
	}
}

func TestBridge_HostMutationsReachHost(t *testing.T) {
	src := MapSource{
		100: `
c100 = {}
function c100.operate(e)
	Duel.draw(e.player, 2)
	Duel.damage(1 - e.player, 500)
	Duel.set_targets({e.card})
end
`,
	}
	b, host := newTestBridge(t, src)

	ok, err := b.Invoke(100, CallbackOperation, Env{Card: 77, Player: 0})
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if !ok {
		t.Error("Expected operate returning nothing to succeed")
	}

	if len(host.drawn) != 1 || host.drawn[0] != 2 {
		t.Errorf("Expected draw(2) recorded, got %v", host.drawn)
	}
	if len(host.damaged) != 1 || host.damaged[0] != 500 {
		t.Errorf("Expected damage(500) recorded, got %v", host.damaged)
	}
	if len(host.targets) != 1 || host.targets[0] != 77 {
		t.Errorf("Expected card handle in targets, got %v", host.targets)
	}
}

func TestBridge_ScheduleBuildsRequest(t *testing.T) {
	src := MapSource{
		100: `
c100 = {}
function c100.operate(e)
	Duel.schedule({op = "draw", player = e.player, count = 3})
end
`,
	}
	b, host := newTestBridge(t, src)

	if _, err := b.Invoke(100, CallbackOperation, Env{Player: 1}); err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if len(host.scheduled) != 1 {
		t.Fatalf("Expected 1 scheduled request, got %d", len(host.scheduled))
	}
	req := host.scheduled[0]
	if req.Op != "draw" || req.Player != 1 || req.Count != 3 {
		t.Errorf("Unexpected request: %+v", req)
	}
	if req.Slot != -1 {
		t.Errorf("Expected default slot -1, got %d", req.Slot)
	}
}

func TestBridge_EnvFieldsVisible(t *testing.T) {
	src := MapSource{
		100: `
c100 = {}
function c100.operate(e)
	return e.effect == 7 and e.link == 2 and #e.targets == 2
end
`,
	}
	b, _ := newTestBridge(t, src)

	ok, err := b.Invoke(100, CallbackOperation, Env{
		EffectID: 7,
		Link:     2,
		Targets:  []int64{10, 11},
	})
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if !ok {
		t.Error("Expected env fields to match")
	}
}

func TestBridge_InvokeFilter(t *testing.T) {
	src := MapSource{
		100: `
c100 = {}
function c100.filter_target(card)
	return card > 10
end
`,
	}
	b, _ := newTestBridge(t, src)

	ok, err := b.InvokeFilter(100, "filter_target", 42)
	if err != nil {
		t.Fatalf("InvokeFilter failed: %v", err)
	}
	if !ok {
		t.Error("Expected filter to accept 42")
	}

	ok, err = b.InvokeFilter(100, "filter_target", 5)
	if err != nil {
		t.Fatalf("InvokeFilter failed: %v", err)
	}
	if ok {
		t.Error("Expected filter to reject 5")
	}

	if _, err := b.InvokeFilter(100, "no_such_filter", 1); !errors.Is(err, ErrScript) {
		t.Errorf("Expected ErrScript for missing filter, got %v", err)
	}
}
