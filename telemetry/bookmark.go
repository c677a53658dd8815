package telemetry

import (
	"fmt"
	"log/slog"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/fitness/components"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkPopulationCrash    BookmarkType = "population_crash"
	BookmarkPopulationRecovery BookmarkType = "population_recovery"
	BookmarkStrategyShift      BookmarkType = "strategy_shift"
	BookmarkCohortLost         BookmarkType = "cohort_lost"
	BookmarkStablePopulation   BookmarkType = "stable_population"
)

// Bookmark marks a notable moment in a run.
type Bookmark struct {
	Type        BookmarkType `json:"type"`
	Step        int32        `json:"step"`
	Description string       `json:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"step", b.Step,
		"description", b.Description,
	)
}

// Detection thresholds.
const (
	crashFraction   = 0.30 // drop from recent peak
	crashMinDrop    = 10
	recoveryFloor   = 3 // population at or below this counts as near-extinct
	recoveryFactor  = 3
	recoveryMinimum = 6
	stableMinPop    = 10
	stableMaxCV     = 0.05
)

// BookmarkDetector watches the step series for crashes, recoveries,
// strategy takeovers, lost cohorts and plateaus.
type BookmarkDetector struct {
	// Rolling population history (circular buffer)
	history     []float64
	historySize int
	historyIdx  int
	historyFull bool

	recentMin   int
	recentPeak  int
	prev        *StepStats
	stableFired bool
}

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(historySize int) *BookmarkDetector {
	if historySize < 5 {
		historySize = 5
	}
	return &BookmarkDetector{
		history:     make([]float64, historySize),
		historySize: historySize,
		recentMin:   -1,
	}
}

// Check analyzes the latest step and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats StepStats) []Bookmark {
	var bookmarks []Bookmark
	for _, check := range []func(StepStats) *Bookmark{
		bd.checkCrash,
		bd.checkRecovery,
		bd.checkStrategyShift,
		bd.checkCohortLost,
		bd.checkStable,
	} {
		if b := check(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
	}

	if bd.recentMin < 0 || stats.Population < bd.recentMin {
		bd.recentMin = stats.Population
	}
	bd.recentPeak = max(bd.recentPeak, stats.Population)
	prev := stats
	bd.prev = &prev

	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(pop float64) {
	bd.history[bd.historyIdx] = pop
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

func (bd *BookmarkDetector) checkCrash(stats StepStats) *Bookmark {
	if bd.recentPeak == 0 {
		return nil
	}
	drop := 1.0 - float64(stats.Population)/float64(bd.recentPeak)
	if drop > crashFraction && stats.Population < bd.recentPeak-crashMinDrop {
		oldPeak := bd.recentPeak
		bd.recentPeak = stats.Population
		return &Bookmark{
			Type:        BookmarkPopulationCrash,
			Step:        stats.Step,
			Description: fmt.Sprintf("Population crashed %.0f%% from peak %d to %d", drop*100, oldPeak, stats.Population),
		}
	}
	return nil
}

func (bd *BookmarkDetector) checkRecovery(stats StepStats) *Bookmark {
	if bd.recentMin <= 0 || bd.recentMin > recoveryFloor {
		return nil
	}
	if stats.Population >= bd.recentMin*recoveryFactor && stats.Population >= recoveryMinimum {
		oldMin := bd.recentMin
		bd.recentMin = stats.Population
		return &Bookmark{
			Type:        BookmarkPopulationRecovery,
			Step:        stats.Step,
			Description: fmt.Sprintf("Population recovered from %d to %d", oldMin, stats.Population),
		}
	}
	return nil
}

// checkStrategyShift fires when the choosy share of the population crosses
// one half.
func (bd *BookmarkDetector) checkStrategyShift(stats StepStats) *Bookmark {
	if bd.prev == nil || stats.Population < stableMinPop || bd.prev.Population == 0 {
		return nil
	}
	before := choosyShare(*bd.prev)
	after := choosyShare(stats)
	if (before <= 0.5) == (after <= 0.5) {
		return nil
	}
	leader := components.StrategyChoosy
	if after <= 0.5 {
		leader = components.StrategyNone
	}
	return &Bookmark{
		Type:        BookmarkStrategyShift,
		Step:        stats.Step,
		Description: fmt.Sprintf("%s agents became the majority (choosy share %.2f -> %.2f)", leader, before, after),
	}
}

func (bd *BookmarkDetector) checkCohortLost(stats StepStats) *Bookmark {
	if bd.prev == nil || stats.Population == 0 {
		return nil
	}
	before, now := bd.prev.PopulationCounts(), stats.PopulationCounts()
	for _, c := range components.Cohorts {
		if before.Get(c) > 0 && now.Get(c) == 0 {
			return &Bookmark{
				Type:        BookmarkCohortLost,
				Step:        stats.Step,
				Description: fmt.Sprintf("Cohort %s died out (%d remaining agents)", c, stats.Population),
			}
		}
	}
	return nil
}

// checkStable fires once when the population holds within a small
// coefficient of variation over a full history window, and re-arms after
// the population moves again.
func (bd *BookmarkDetector) checkStable(stats StepStats) *Bookmark {
	bd.addToHistory(float64(stats.Population))
	if !bd.historyFull || stats.Population < stableMinPop {
		bd.stableFired = false
		return nil
	}
	mean, std := stat.PopMeanStdDev(bd.history, nil)
	if mean == 0 || std/mean >= stableMaxCV {
		bd.stableFired = false
		return nil
	}
	if bd.stableFired {
		return nil
	}
	bd.stableFired = true
	return &Bookmark{
		Type:        BookmarkStablePopulation,
		Step:        stats.Step,
		Description: fmt.Sprintf("Population stable at %.0f (cv %.3f over %d steps)", mean, std/mean, bd.historySize),
	}
}

func choosyShare(s StepStats) float64 {
	if s.Population == 0 {
		return 0
	}
	counts := s.PopulationCounts()
	choosy := counts.Get(components.Cohort{Role: components.RoleCarrier, Strategy: components.StrategyChoosy}) +
		counts.Get(components.Cohort{Role: components.RoleGiver, Strategy: components.StrategyChoosy})
	return float64(choosy) / float64(s.Population)
}
