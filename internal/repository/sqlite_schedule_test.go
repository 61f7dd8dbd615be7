package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/knightqmd/scheduler-app/internal/domain"
	"github.com/knightqmd/scheduler-app/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleWeek() *domain.WeekSchedule {
	w := testutil.NewTestWeek("小王",
		testutil.At(domain.Wednesday, testutil.NewTestItem("需求梳理", "14:00", "15:30", testutil.WithLocation("会议室 B"))),
		testutil.At(domain.Monday, testutil.NewTestItem("团队例会", "09:00", "10:00",
			testutil.WithLocation("会议室 A"), testutil.WithNotes("同步本周重点"))),
		testutil.At(domain.Wednesday, testutil.NewTestItem("健身", "18:00", "19:00", testutil.WithTag(domain.TagLongTerm))),
	)
	w.SetFreeText("周末想去爬山")
	return w
}

func TestScheduleStore_RoundTrip(t *testing.T) {
	database := testutil.NewTestDB(t)
	store := NewSQLiteScheduleStore(testutil.NewTestUoW(database), "小王")
	ctx := context.Background()

	week := sampleWeek()
	require.NoError(t, store.Save(ctx, week))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, week.Days(), loaded.Days())
	assert.Equal(t, "周末想去爬山", loaded.FreeText)
	assert.Equal(t, "小王", loaded.Owner)
	assert.Equal(t, week.Render(), loaded.Render())
}

func TestScheduleStore_PreservesDayInsertionOrder(t *testing.T) {
	database := testutil.NewTestDB(t)
	store := NewSQLiteScheduleStore(testutil.NewTestUoW(database), "u")
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, sampleWeek()))
	loaded, err := store.Load(ctx)
	require.NoError(t, err)

	days := loaded.Days()
	require.Len(t, days, 2)
	assert.Equal(t, domain.Wednesday, days[0].Day)
	assert.Equal(t, domain.Monday, days[1].Day)
	assert.Equal(t, []string{"需求梳理", "健身"}, []string{days[0].Items[0].Title, days[0].Items[1].Title})
}

func TestScheduleStore_EmptyOptionalFieldsStayAbsent(t *testing.T) {
	database := testutil.NewTestDB(t)
	store := NewSQLiteScheduleStore(testutil.NewTestUoW(database), "u")
	ctx := context.Background()

	w := testutil.NewTestWeek("u", testutil.At(domain.Friday, testutil.NewTestItem("一对一沟通", "10:30", "11:00")))
	require.NoError(t, store.Save(ctx, w))

	var nulls int
	require.NoError(t, database.QueryRow(
		`SELECT COUNT(*) FROM schedule_items WHERE location IS NULL AND notes IS NULL AND tag IS NULL`).Scan(&nulls))
	assert.Equal(t, 1, nulls)

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	it := loaded.Items(domain.Friday)[0]
	assert.Empty(t, it.Location)
	assert.Empty(t, it.Notes)
	assert.Empty(t, it.Tag)
}

func TestScheduleStore_SaveReplacesWholeWeek(t *testing.T) {
	database := testutil.NewTestDB(t)
	store := NewSQLiteScheduleStore(testutil.NewTestUoW(database), "u")
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, sampleWeek()))

	next := testutil.NewTestWeek("u", testutil.At(domain.Sunday, testutil.NewTestItem("休息", "10:00", "11:00")))
	require.NoError(t, store.Save(ctx, next))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.ItemCount())
	assert.Empty(t, loaded.Items(domain.Monday))
	assert.Empty(t, loaded.FreeText, "free text is part of the replaced state")
}

func TestScheduleStore_EmptyDatabaseLoadsEmptyWeek(t *testing.T) {
	database := testutil.NewTestDB(t)
	store := NewSQLiteScheduleStore(testutil.NewTestUoW(database), "u")

	loaded, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, loaded.IsEmpty())
	assert.Empty(t, loaded.LongTermPlan)
	assert.Equal(t, "当前一周暂无日程。", loaded.Render())
}

func TestScheduleStore_LongTermPlan(t *testing.T) {
	database := testutil.NewTestDB(t)
	store := NewSQLiteScheduleStore(testutil.NewTestUoW(database), "u")
	ctx := context.Background()

	plan, err := store.GetLongTermPlan(ctx)
	require.NoError(t, err)
	assert.Empty(t, plan)

	require.NoError(t, store.SaveLongTermPlan(ctx, "  每天跑步 30 分钟 \n"))
	plan, err = store.GetLongTermPlan(ctx)
	require.NoError(t, err)
	assert.Equal(t, "每天跑步 30 分钟", plan)

	// A week saved without a plan leaves the stored plan alone.
	require.NoError(t, store.Save(ctx, sampleWeek()))
	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "每天跑步 30 分钟", loaded.LongTermPlan)

	// A week carrying a plan overwrites it.
	w := sampleWeek()
	w.LongTermPlan = "每周读一本书"
	require.NoError(t, store.Save(ctx, w))
	plan, err = store.GetLongTermPlan(ctx)
	require.NoError(t, err)
	assert.Equal(t, "每周读一本书", plan)

	require.NoError(t, store.SaveLongTermPlan(ctx, "   "))
	plan, err = store.GetLongTermPlan(ctx)
	require.NoError(t, err)
	assert.Empty(t, plan)
}

func TestScheduleStore_FailedSaveLeavesPreviousWeek(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()

	good := NewSQLiteScheduleStore(testutil.NewTestUoW(database), "u")
	require.NoError(t, good.Save(ctx, sampleWeek()))
	before, err := good.Load(ctx)
	require.NoError(t, err)

	injected := errors.New("disk full")
	// Writes: 1 clear items, 2-3 insert items, 4-5 rewrite free text.
	for failOn := 1; failOn <= 5; failOn++ {
		t.Run(fmt.Sprintf("exec_%d", failOn), func(t *testing.T) {
			failing := NewSQLiteScheduleStore(&testutil.FailOnNthExecUoW{DB: database, FailOn: failOn, Err: injected}, "u")
			next := testutil.NewTestWeek("u",
				testutil.At(domain.Tuesday, testutil.NewTestItem("a", "08:00", "09:00")),
				testutil.At(domain.Thursday, testutil.NewTestItem("b", "08:00", "09:00")),
			)
			next.SetFreeText("新的描述")

			err := failing.Save(ctx, next)
			require.ErrorIs(t, err, injected)

			after, err := good.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, before.Days(), after.Days())
			assert.Equal(t, before.FreeText, after.FreeText)
		})
	}
}

func TestScheduleStore_ConcurrentLoadSeesWholeWeeks(t *testing.T) {
	database := testutil.NewFileTestDB(t)
	store := NewSQLiteScheduleStore(testutil.NewTestUoW(database), "u")
	ctx := context.Background()

	weekOf := func(n int) *domain.WeekSchedule {
		w := domain.NewWeekSchedule("u")
		for i := 0; i < n; i++ {
			w.AddItem(domain.Monday, testutil.NewTestItem(fmt.Sprintf("w%d-%d", n, i), "09:00", "10:00"))
		}
		return w
	}
	require.NoError(t, store.Save(ctx, weekOf(3)))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 20; i++ {
			n := 3 + (i%2)*2
			if err := store.Save(ctx, weekOf(n)); err != nil {
				t.Errorf("writer: save %d: %v", i, err)
				return
			}
		}
	}()

	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func(reader int) {
			defer wg.Done()
			for i := 0; i < 20; i++ {
				w, err := store.Load(ctx)
				if err != nil {
					t.Errorf("reader %d: load: %v", reader, err)
					return
				}
				items := w.Items(domain.Monday)
				if len(items) != 3 && len(items) != 5 {
					t.Errorf("reader %d: saw partial week with %d items", reader, len(items))
					return
				}
				prefix := fmt.Sprintf("w%d-", len(items))
				for _, it := range items {
					if len(it.Title) < len(prefix) || it.Title[:len(prefix)] != prefix {
						t.Errorf("reader %d: mixed week, item %q", reader, it.Title)
						return
					}
				}
			}
		}(r)
	}
	wg.Wait()
}
