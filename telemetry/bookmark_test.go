package telemetry

import (
	"testing"

	"github.com/pthm-cable/fitness/components"
)

func stepWith(step int32, counts components.CohortCounts) StepStats {
	var s StepStats
	s.Step = step
	s.SetPopulation(counts)
	s.Population = counts.Total()
	return s
}

func hasBookmark(bookmarks []Bookmark, typ BookmarkType) bool {
	found := false
	for _, b := range bookmarks {
		if b.Type == typ {
			found = true
		}
	}
	return found
}

func TestBookmarkDetector_PopulationCrash(t *testing.T) {
	bd := NewBookmarkDetector(10)
	for i := 0; i < 5; i++ {
		bd.Check(stepWith(int32(i), components.CohortCounts{25, 25, 25, 25}))
	}

	bookmarks := bd.Check(stepWith(5, components.CohortCounts{10, 10, 10, 10}))
	if !hasBookmark(bookmarks, BookmarkPopulationCrash) {
		t.Errorf("expected population_crash, got %v", bookmarks)
	}

	// Peak resets after a crash
	bookmarks = bd.Check(stepWith(6, components.CohortCounts{10, 10, 10, 9}))
	if hasBookmark(bookmarks, BookmarkPopulationCrash) {
		t.Error("crash should not fire again right after reset")
	}
}

func TestBookmarkDetector_PopulationRecovery(t *testing.T) {
	bd := NewBookmarkDetector(10)
	bd.Check(stepWith(0, components.CohortCounts{1, 0, 1, 0}))

	bookmarks := bd.Check(stepWith(1, components.CohortCounts{2, 2, 2, 2}))
	if !hasBookmark(bookmarks, BookmarkPopulationRecovery) {
		t.Errorf("expected population_recovery, got %v", bookmarks)
	}
}

func TestBookmarkDetector_StrategyShift(t *testing.T) {
	bd := NewBookmarkDetector(10)
	bd.Check(stepWith(0, components.CohortCounts{10, 5, 10, 5}))

	bookmarks := bd.Check(stepWith(1, components.CohortCounts{5, 10, 5, 10}))
	if !hasBookmark(bookmarks, BookmarkStrategyShift) {
		t.Errorf("expected strategy_shift, got %v", bookmarks)
	}

	bookmarks = bd.Check(stepWith(2, components.CohortCounts{5, 11, 5, 10}))
	if hasBookmark(bookmarks, BookmarkStrategyShift) {
		t.Error("no shift expected while choosy stays the majority")
	}
}

func TestBookmarkDetector_CohortLost(t *testing.T) {
	bd := NewBookmarkDetector(10)
	bd.Check(stepWith(0, components.CohortCounts{5, 1, 5, 5}))

	bookmarks := bd.Check(stepWith(1, components.CohortCounts{5, 0, 5, 5}))
	if !hasBookmark(bookmarks, BookmarkCohortLost) {
		t.Errorf("expected cohort_lost, got %v", bookmarks)
	}
}

func TestBookmarkDetector_StablePopulation(t *testing.T) {
	bd := NewBookmarkDetector(5)

	var fired int
	for i := 0; i < 20; i++ {
		if hasBookmark(bd.Check(stepWith(int32(i), components.CohortCounts{10, 10, 10, 10})), BookmarkStablePopulation) {
			fired++
		}
	}
	if fired != 1 {
		t.Errorf("expected stable_population once, got %d", fired)
	}
}

func TestBookmarkDetector_QuietRun(t *testing.T) {
	bd := NewBookmarkDetector(10)
	for i := 0; i < 5; i++ {
		counts := components.CohortCounts{10 + i%2, 10, 10, 10}
		if b := bd.Check(stepWith(int32(i), counts)); len(b) != 0 {
			t.Fatalf("step %d: expected no bookmarks, got %v", i, b)
		}
	}
}
