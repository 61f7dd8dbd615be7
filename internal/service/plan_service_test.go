package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/knightqmd/scheduler-app/internal/domain"
	"github.com/knightqmd/scheduler-app/internal/intelligence"
	"github.com/knightqmd/scheduler-app/internal/llm"
	"github.com/knightqmd/scheduler-app/internal/repository"
	"github.com/knightqmd/scheduler-app/internal/testutil"
)

type mockLLM struct {
	mock.Mock
}

func (m *mockLLM) Generate(ctx context.Context, req llm.GenerateRequest) (*llm.GenerateResponse, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*llm.GenerateResponse)
	return resp, args.Error(1)
}

func (m *mockLLM) Available(ctx context.Context) bool {
	return m.Called(ctx).Bool(0)
}

func (m *mockLLM) replies(text string) {
	m.On("Generate", mock.Anything, mock.Anything).Return(&llm.GenerateResponse{Text: text, Model: "mock"}, nil)
}

type fixture struct {
	db     *sql.DB
	store  *repository.SQLiteScheduleStore
	runs   *repository.SQLitePlanRunRepo
	client *mockLLM
	svc    PlanService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	database := testutil.NewTestDB(t)
	f := &fixture{
		db:     database,
		store:  repository.NewSQLiteScheduleStore(testutil.NewTestUoW(database), "alice"),
		runs:   repository.NewSQLitePlanRunRepo(database),
		client: &mockLLM{},
	}
	f.svc = NewPlanService(f.store, f.runs, intelligence.NewPlanDraftService(f.client), PlanServiceConfig{})
	return f
}

func (f *fixture) seed(t *testing.T) *domain.WeekSchedule {
	t.Helper()
	week := testutil.NewTestWeek("alice",
		testutil.At(domain.Tuesday, testutil.NewTestItem("课程", "08:00", "09:30", testutil.WithLocation("教室 101"))),
		testutil.At(domain.Thursday, testutil.NewTestItem("健身", "19:00", "20:00", testutil.WithTag(domain.TagLongTerm))),
	)
	week.SetFreeText("周末想去爬山")
	require.NoError(t, f.store.Save(context.Background(), week))
	return week
}

// snapshot captures everything a Load exposes.
func (f *fixture) snapshot(t *testing.T) string {
	t.Helper()
	week, err := f.store.Load(context.Background())
	require.NoError(t, err)
	return week.Render() + "\n--\n" + week.LongTermPlan
}

func TestApply_EmptyStoreAddsItem(t *testing.T) {
	f := newFixture(t)
	raw := `[{"day":"周一","start":"09:00","end":"10:00","title":"standup"}]`
	f.client.replies(raw)

	res, err := f.svc.Apply(context.Background(), ApplyRequest{Request: "add a 9-10am Monday standup"})
	require.NoError(t, err)
	assert.Equal(t, raw, res.Raw)
	assert.False(t, res.SavedOnly)
	assert.NotEmpty(t, res.RunID)

	stored, err := f.store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.DaySchedule{{
		Day:   domain.Monday,
		Items: []domain.ScheduleItem{{Title: "standup", Start: "09:00", End: "10:00"}},
	}}, stored.Days())
	assert.Equal(t, stored.Days(), res.Schedule.Days())
}

func TestApply_ReplacesWeekAndClearsFreeText(t *testing.T) {
	f := newFixture(t)
	f.seed(t)
	f.client.replies(`[
		{"day":"周三","start":"10:00","end":"11:00","title":"评审"},
		{"day":"周二","start":"08:00","end":"09:30","title":"课程","location":"教室 101"}
	]`)

	res, err := f.svc.Apply(context.Background(), ApplyRequest{Request: "周三加一个评审"})
	require.NoError(t, err)
	assert.Empty(t, res.Schedule.FreeText)

	stored, err := f.store.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, stored.FreeText)
	days := stored.Days()
	require.Len(t, days, 2)
	assert.Equal(t, domain.Wednesday, days[0].Day)
	assert.Equal(t, domain.Tuesday, days[1].Day)
	assert.Empty(t, stored.Items(domain.Thursday))
}

func TestApply_PromptCarriesStoredWeek(t *testing.T) {
	f := newFixture(t)
	seeded := f.seed(t)
	require.NoError(t, f.store.SaveLongTermPlan(context.Background(), "每天阅读"))

	f.client.On("Generate", mock.Anything, mock.MatchedBy(func(req llm.GenerateRequest) bool {
		return req.Task == llm.TaskPlan &&
			req.SystemPrompt == intelligence.PlanSystemPrompt &&
			strings.Contains(req.UserPrompt, seeded.Render()) &&
			strings.Contains(req.UserPrompt, "【长期计划】\n每天阅读")
	})).Return(&llm.GenerateResponse{Text: `[{"day":"周一","start":"09:00","end":"10:00","title":"x"}]`}, nil).Once()

	_, err := f.svc.Apply(context.Background(), ApplyRequest{Request: "安排一下"})
	require.NoError(t, err)
	f.client.AssertExpectations(t)
}

func TestApply_NoArrayLeavesStoreUnchanged(t *testing.T) {
	f := newFixture(t)
	f.seed(t)
	before := f.snapshot(t)
	prose := "抱歉，我无法为你安排这一周。"
	f.client.replies(prose)

	res, err := f.svc.Apply(context.Background(), ApplyRequest{Request: "x"})
	assert.Nil(t, res)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPlanRejected))
	assert.True(t, errors.Is(err, intelligence.ErrNoArrayFound))

	var pe *PlanError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, KindPlanRejected, pe.Kind)
	assert.Equal(t, prose, pe.Raw)
	assert.Equal(t, prose, RawOutput(err))
	require.NotNil(t, pe.Schedule)
	assert.Equal(t, "周末想去爬山", pe.Schedule.FreeText)

	assert.Equal(t, before, f.snapshot(t))
}

func TestApply_EmptyModelReplyIsRejected(t *testing.T) {
	f := newFixture(t)
	f.seed(t)
	before := f.snapshot(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"model":"m","choices":[{"index":0,"message":{"role":"assistant","content":""}}]}`))
	}))
	defer srv.Close()

	cfg := llm.DefaultConfig()
	cfg.Provider = llm.ProviderOpenAI
	cfg.Endpoint = srv.URL
	cfg.APIKey = "k"
	client := llm.NewOpenAIClient(cfg, llm.NoopObserver{})
	svc := NewPlanService(f.store, f.runs, intelligence.NewPlanDraftService(client), PlanServiceConfig{})

	_, err := svc.Apply(context.Background(), ApplyRequest{Request: "x"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, intelligence.ErrNoArrayFound))

	var pe *PlanError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, KindPlanRejected, pe.Kind)
	assert.Equal(t, before, f.snapshot(t))

	runs, err := svc.History(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, domain.PlanRunRejected, runs[0].Status)
}

func TestApply_AllEntriesInvalidIsEmptyResult(t *testing.T) {
	f := newFixture(t)
	f.seed(t)
	before := f.snapshot(t)
	f.client.replies(`[{"day":"Funday","start":"09:00","end":"10:00","title":"x"}]`)

	_, err := f.svc.Apply(context.Background(), ApplyRequest{Request: "x"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, intelligence.ErrEmptyResult))

	var rej *intelligence.PlanRejectedError
	require.ErrorAs(t, err, &rej)
	require.Len(t, rej.Skipped, 1)
	assert.Equal(t, intelligence.SkipInvalidDay, rej.Skipped[0].Reason)

	assert.Equal(t, before, f.snapshot(t))
}

func TestApply_SaveOnlyNeverCallsModel(t *testing.T) {
	f := newFixture(t)
	f.seed(t)
	ctx := context.Background()

	res, err := f.svc.Apply(ctx, ApplyRequest{LongTermPlan: "Q3 goals"})
	require.NoError(t, err)
	assert.True(t, res.SavedOnly)
	assert.Empty(t, res.Raw)
	f.client.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)

	plan, err := f.store.GetLongTermPlan(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Q3 goals", plan)

	stored, err := f.store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "周末想去爬山", stored.FreeText)
	assert.Len(t, stored.Days(), 2)
}

func TestApply_SaveModeIgnoresRequestText(t *testing.T) {
	f := newFixture(t)

	res, err := f.svc.Apply(context.Background(), ApplyRequest{
		Request:      "this is not sent anywhere",
		LongTermPlan: "学英语",
		Mode:         domain.PlanModeSave,
	})
	require.NoError(t, err)
	assert.True(t, res.SavedOnly)
	f.client.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
}

func TestApply_EmptyRequest(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Apply(context.Background(), ApplyRequest{Request: "  ", LongTermPlan: "\n"})
	assert.ErrorIs(t, err, ErrEmptyRequest)
	f.client.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
}

func TestApply_SaveModeWithNothingRewritesWeek(t *testing.T) {
	f := newFixture(t)
	f.seed(t)
	before := f.snapshot(t)

	res, err := f.svc.Apply(context.Background(), ApplyRequest{Mode: domain.PlanModeSave})
	require.NoError(t, err)
	assert.True(t, res.SavedOnly)
	assert.Equal(t, before, f.snapshot(t))
}

func TestApply_ModelFailureLeavesWeekButKeepsLongTermPlan(t *testing.T) {
	f := newFixture(t)
	f.seed(t)
	ctx := context.Background()
	before, err := f.store.Load(ctx)
	require.NoError(t, err)

	f.client.On("Generate", mock.Anything, mock.Anything).Return(nil, llm.ErrTimeout)

	_, err = f.svc.Apply(ctx, ApplyRequest{Request: "x", LongTermPlan: "早睡早起"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrModelCallFailed))
	assert.True(t, errors.Is(err, llm.ErrTimeout))
	assert.False(t, errors.Is(err, ErrPlanRejected))
	assert.Empty(t, RawOutput(err))

	after, err := f.store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, before.Render(), after.Render())
	assert.Equal(t, "早睡早起", after.LongTermPlan)
}

func TestApply_CallerTimeoutIsModelCallFailed(t *testing.T) {
	f := newFixture(t)
	f.seed(t)
	before := f.snapshot(t)

	f.client.On("Generate", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			<-args.Get(0).(context.Context).Done()
		}).
		Return(nil, context.DeadlineExceeded)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := f.svc.Apply(ctx, ApplyRequest{Request: "x"})
	assert.ErrorIs(t, err, ErrModelCallFailed)
	assert.Equal(t, before, f.snapshot(t))
}

func TestApply_StoreFailureMidSaveRollsBack(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()
	good := repository.NewSQLiteScheduleStore(testutil.NewTestUoW(database), "alice")
	require.NoError(t, good.Save(ctx, testutil.NewTestWeek("alice",
		testutil.At(domain.Friday, testutil.NewTestItem("总结", "17:00", "18:00")),
	)))
	before, err := good.Load(ctx)
	require.NoError(t, err)

	// Exec #1 clears the table, #2 inserts the first item.
	failing := repository.NewSQLiteScheduleStore(&testutil.FailOnNthExecUoW{
		DB:     database,
		FailOn: 2,
		Err:    fmt.Errorf("injected insert failure"),
	}, "alice")
	client := &mockLLM{}
	client.replies(`[{"day":"周一","start":"09:00","end":"10:00","title":"a"},{"day":"周二","start":"09:00","end":"10:00","title":"b"}]`)
	svc := NewPlanService(failing, nil, intelligence.NewPlanDraftService(client), PlanServiceConfig{})

	_, err = svc.Apply(ctx, ApplyRequest{Request: "x"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStoreUnavailable))
	assert.Contains(t, err.Error(), "injected insert failure")
	assert.NotEmpty(t, RawOutput(err))

	after, err := good.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, before.Render(), after.Render())
}

func TestApply_UsesCallerSuppliedWeek(t *testing.T) {
	f := newFixture(t)
	existing := testutil.NewTestWeek("alice",
		testutil.At(domain.Saturday, testutil.NewTestItem("爬山", "07:00", "12:00")),
	)
	f.client.On("Generate", mock.Anything, mock.MatchedBy(func(req llm.GenerateRequest) bool {
		return strings.Contains(req.UserPrompt, "爬山")
	})).Return(&llm.GenerateResponse{Text: `[{"day":"周六","start":"07:00","end":"12:00","title":"爬山"}]`}, nil)

	_, err := f.svc.Apply(context.Background(), ApplyRequest{Request: "保留", Existing: existing})
	require.NoError(t, err)
	// the caller's week is not mutated
	assert.Len(t, existing.Days(), 1)
}

func TestApply_SkippedEntriesReported(t *testing.T) {
	f := newFixture(t)
	f.client.replies(`[
		{"day":"周一","start":"09:00","end":"10:00","title":"ok"},
		{"day":"周一","start":"25:00","end":"26:00","title":"bad"}
	]`)

	res, err := f.svc.Apply(context.Background(), ApplyRequest{Request: "x"})
	require.NoError(t, err)
	require.Len(t, res.Skipped, 1)
	assert.Equal(t, intelligence.SkipInvalidTime, res.Skipped[0].Reason)
	assert.Equal(t, 1, res.Schedule.ItemCount())
}

func TestApply_SameOutputTwiceIsIdempotent(t *testing.T) {
	f := newFixture(t)
	f.seed(t)
	f.client.replies(`[{"day":"周日","start":"20:00","end":"21:00","title":"复盘"},{"day":"周一","start":"09:00","end":"10:00","title":"例会"}]`)
	ctx := context.Background()

	_, err := f.svc.Apply(ctx, ApplyRequest{Request: "x"})
	require.NoError(t, err)
	first := f.snapshot(t)

	_, err = f.svc.Apply(ctx, ApplyRequest{Request: "x"})
	require.NoError(t, err)
	assert.Equal(t, first, f.snapshot(t))
}

func TestApply_RecordsRuns(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.client.On("Generate", mock.Anything, mock.Anything).
		Return(&llm.GenerateResponse{Text: "no array"}, nil).Once()
	f.client.On("Generate", mock.Anything, mock.Anything).
		Return(&llm.GenerateResponse{Text: `[{"day":"周一","start":"09:00","end":"10:00","title":"x"}]`}, nil).Once()

	_, err := f.svc.Apply(ctx, ApplyRequest{Request: "first"})
	require.Error(t, err)
	res, err := f.svc.Apply(ctx, ApplyRequest{Request: "second"})
	require.NoError(t, err)

	runs, err := f.svc.History(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, res.RunID, runs[0].ID)
	assert.Equal(t, domain.PlanRunApplied, runs[0].Status)
	assert.Equal(t, 1, runs[0].ItemCount)
	assert.Equal(t, domain.PlanRunRejected, runs[1].Status)
	assert.Equal(t, "no array", runs[1].Raw)
	assert.Contains(t, runs[1].Error, "no JSON array")
}

func TestRun_ReturnsRecordedAttempt(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.client.replies("no array")

	_, err := f.svc.Apply(ctx, ApplyRequest{Request: "周五加个会"})
	require.Error(t, err)
	runs, err := f.svc.History(ctx, 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)

	run, err := f.svc.Run(ctx, runs[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "周五加个会", run.Request)
	assert.Equal(t, "no array", run.Raw)
	assert.Equal(t, domain.PlanRunRejected, run.Status)

	_, err = f.svc.Run(ctx, "missing")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestHistory_WithoutAuditLog(t *testing.T) {
	database := testutil.NewTestDB(t)
	store := repository.NewSQLiteScheduleStore(testutil.NewTestUoW(database), "alice")
	svc := NewPlanService(store, nil, intelligence.NewPlanDraftService(&mockLLM{}), PlanServiceConfig{})

	runs, err := svc.History(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, runs)

	_, err = svc.Run(context.Background(), "any")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

// gateClient blocks inside Generate until released and tracks how many calls
// overlap.
type gateClient struct {
	inFlight atomic.Int32
	maxSeen  atomic.Int32
	calls    atomic.Int32
}

func (c *gateClient) Generate(ctx context.Context, req llm.GenerateRequest) (*llm.GenerateResponse, error) {
	n := c.inFlight.Add(1)
	defer c.inFlight.Add(-1)
	for {
		old := c.maxSeen.Load()
		if n <= old || c.maxSeen.CompareAndSwap(old, n) {
			break
		}
	}
	call := c.calls.Add(1)
	time.Sleep(5 * time.Millisecond)
	text := fmt.Sprintf(`[{"day":"周一","start":"09:00","end":"10:00","title":"run-%d"},{"day":"周二","start":"09:00","end":"10:00","title":"run-%d"}]`, call, call)
	return &llm.GenerateResponse{Text: text}, nil
}

func (c *gateClient) Available(context.Context) bool { return true }

func TestApply_ConcurrentCallsAreSerialized(t *testing.T) {
	database := testutil.NewFileTestDB(t)
	store := repository.NewSQLiteScheduleStore(testutil.NewTestUoW(database), "alice")
	client := &gateClient{}
	svc := NewPlanService(store, repository.NewSQLitePlanRunRepo(database), intelligence.NewPlanDraftService(client), PlanServiceConfig{})

	const workers = 6
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.Apply(context.Background(), ApplyRequest{Request: fmt.Sprintf("req %d", i)})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	assert.Equal(t, int32(1), client.maxSeen.Load())

	// the stored week is exactly one run's output, never a mix
	week, err := store.Load(context.Background())
	require.NoError(t, err)
	days := week.Days()
	require.Len(t, days, 2)
	assert.Equal(t, days[0].Items[0].Title, days[1].Items[0].Title)
}

func TestPlan_FlatExistingAndNoPersistence(t *testing.T) {
	f := newFixture(t)
	f.seed(t)
	before := f.snapshot(t)
	items := []domain.ScheduleItem{testutil.NewTestItem("散步", "18:00", "18:30")}

	f.client.On("Generate", mock.Anything, mock.MatchedBy(func(req llm.GenerateRequest) bool {
		return strings.Contains(req.UserPrompt, "未指定日期") && strings.Contains(req.UserPrompt, "散步")
	})).Return(&llm.GenerateResponse{Text: "[]"}, nil)

	raw, err := f.svc.Plan(context.Background(), "安排", domain.FlatSchedule("alice", items), "")
	require.NoError(t, err)
	assert.Equal(t, "[]", raw)
	assert.Equal(t, before, f.snapshot(t))
}

func TestPlan_ModelFailure(t *testing.T) {
	f := newFixture(t)
	f.client.On("Generate", mock.Anything, mock.Anything).Return(nil, llm.ErrUnavailable)

	_, err := f.svc.Plan(context.Background(), "x", domain.GroupedSchedule(domain.NewWeekSchedule("alice")), "")
	assert.ErrorIs(t, err, ErrModelCallFailed)
	assert.ErrorIs(t, err, llm.ErrUnavailable)
}

type captureUseCases struct {
	mu     sync.Mutex
	events []UseCaseEvent
}

func (c *captureUseCases) ObserveUseCase(_ context.Context, e UseCaseEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
}

func TestApply_EmitsUseCaseEvent(t *testing.T) {
	database := testutil.NewTestDB(t)
	store := repository.NewSQLiteScheduleStore(testutil.NewTestUoW(database), "alice")
	client := &mockLLM{}
	client.replies("nothing")
	obs := &captureUseCases{}
	svc := NewPlanService(store, nil, intelligence.NewPlanDraftService(client), PlanServiceConfig{}, obs)

	_, err := svc.Apply(context.Background(), ApplyRequest{Request: "x"})
	require.Error(t, err)

	require.Len(t, obs.events, 1)
	ev := obs.events[0]
	assert.Equal(t, "apply", ev.Name)
	assert.False(t, ev.Success)
	assert.Equal(t, false, ev.Fields["save_only"])
	assert.NotEmpty(t, ev.Fields["run_id"])
}
