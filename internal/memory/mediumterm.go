package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/roundtable-ai/roundtable/internal/observability"
	"github.com/roundtable-ai/roundtable/internal/types"
)

// MediumTermManager maintains the bounded, importance-ranked set of durable
// project memories. Cap enforcement and eviction run under a per-project
// lock so concurrent turns on the same project cannot double-evict; turns on
// different projects never contend.
type MediumTermManager struct {
	store  Store
	config Config
	logger *observability.TracedLogger

	mu    sync.Mutex
	locks map[types.ID]*sync.Mutex
}

// NewMediumTermManager creates a medium-term memory manager.
func NewMediumTermManager(store Store, config Config, logger *observability.TracedLogger) *MediumTermManager {
	config.ApplyDefaults()
	if logger == nil {
		logger = observability.NewTracedLogger(nil, "", "memory")
	}
	return &MediumTermManager{
		store:  store,
		config: config,
		logger: logger,
		locks:  make(map[types.ID]*sync.Mutex),
	}
}

func (m *MediumTermManager) projectLock(projectID types.ID) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()

	lock, ok := m.locks[projectID]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[projectID] = lock
	}
	return lock
}

// GetMemories returns all non-expired records for the project.
func (m *MediumTermManager) GetMemories(ctx context.Context, projectID types.ID) ([]*Record, error) {
	return m.store.List(ctx, projectID)
}

// GetMemoriesByType returns non-expired records of one type.
func (m *MediumTermManager) GetMemoriesByType(ctx context.Context, projectID types.ID, t Type) ([]*Record, error) {
	return m.store.ListByType(ctx, projectID, t)
}

// SetMemory upserts a record by (projectID, key). Importance is clamped to
// [1,10]. When inserting a new key would push the project past the cap, the
// lowest-importance non-expired record is evicted first, ties broken by
// oldest creation time.
func (m *MediumTermManager) SetMemory(ctx context.Context, projectID types.ID, t Type, key, value string, importance int) error {
	importance = ClampImportance(importance)

	lock := m.projectLock(projectID)
	lock.Lock()
	defer lock.Unlock()

	now := time.Now().UTC()

	existing, err := m.store.Get(ctx, projectID, key)
	if err != nil && types.CodeOf(err) != types.MEMORY_NOT_FOUND {
		return err
	}

	if existing != nil {
		existing.Type = t
		existing.Value = value
		existing.Importance = importance
		existing.UpdatedAt = now
		if existing.IsExpired(now) {
			// Overwriting an expired key revives it as a fresh record. The
			// revived record is one more non-expired entry, so it counts
			// against the cap exactly like an insert.
			existing.ExpiresAt = nil
			existing.CreatedAt = now
			if err := m.ensureCapacity(ctx, projectID); err != nil {
				return err
			}
		}
		return m.store.Save(ctx, existing)
	}

	if err := m.ensureCapacity(ctx, projectID); err != nil {
		return err
	}

	record := &Record{
		ID:         types.NewID(),
		ProjectID:  projectID,
		Type:       t,
		Key:        key,
		Value:      value,
		Importance: importance,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	return m.store.Save(ctx, record)
}

// ensureCapacity evicts the lowest-importance record when the project is at
// the cap, making room for one more non-expired record. Caller holds the
// project lock.
func (m *MediumTermManager) ensureCapacity(ctx context.Context, projectID types.ID) error {
	current, err := m.store.List(ctx, projectID)
	if err != nil {
		return err
	}
	if len(current) >= m.config.ProjectMemoryCap {
		return m.evictLowest(ctx, projectID, current)
	}
	return nil
}

// evictLowest removes the single lowest-importance record, oldest first on
// ties. Caller holds the project lock.
func (m *MediumTermManager) evictLowest(ctx context.Context, projectID types.ID, records []*Record) error {
	if len(records) == 0 {
		return nil
	}

	victim := records[0]
	for _, r := range records[1:] {
		if r.Importance < victim.Importance ||
			(r.Importance == victim.Importance && r.CreatedAt.Before(victim.CreatedAt)) {
			victim = r
		}
	}

	m.logger.Debug(ctx, "evicting lowest-importance memory",
		"project_id", projectID,
		"key", victim.Key,
		"importance", victim.Importance)

	return m.store.Delete(ctx, projectID, victim.Key)
}

// RemoveMemory hard-deletes a record. Removing an absent key is a no-op.
func (m *MediumTermManager) RemoveMemory(ctx context.Context, projectID types.ID, key string) error {
	lock := m.projectLock(projectID)
	lock.Lock()
	defer lock.Unlock()

	return m.store.Delete(ctx, projectID, key)
}

// UpdateImportance changes a record's importance, clamped to [1,10].
// Returns MEMORY_NOT_FOUND if the key is absent or expired.
func (m *MediumTermManager) UpdateImportance(ctx context.Context, projectID types.ID, key string, importance int) error {
	lock := m.projectLock(projectID)
	lock.Lock()
	defer lock.Unlock()

	record, err := m.store.Get(ctx, projectID, key)
	if err != nil {
		return err
	}
	if record.IsExpired(time.Now().UTC()) {
		return NewNotFoundError(key)
	}

	record.Importance = ClampImportance(importance)
	record.UpdatedAt = time.Now().UTC()
	return m.store.Save(ctx, record)
}

// promptSections fixes the rendering order of the medium-term block.
var promptSections = []struct {
	memType Type
	label   string
}{
	{TypeFact, "Facts"},
	{TypeDecision, "Decisions"},
	{TypeBlocker, "Blockers"},
	{TypePreference, "Preferences"},
	{TypeInsight, "Insights"},
}

// FormatForPrompt renders records grouped under fixed labeled sections,
// bounded by the medium-term token budget. When over budget, entries below
// the importance floor are dropped lowest-importance first; entries at or
// above the floor are never dropped, even when keeping them runs past the
// budget.
func (m *MediumTermManager) FormatForPrompt(records []*Record) string {
	if len(records) == 0 {
		return ""
	}

	kept := make([]*Record, len(records))
	copy(kept, records)

	// Sorted best-first: higher importance first, older first within a
	// tie. Trimming cuts from the tail, so the lowest importance goes
	// first and the newest record loses a tie.
	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].Importance != kept[j].Importance {
			return kept[i].Importance > kept[j].Importance
		}
		return kept[i].CreatedAt.Before(kept[j].CreatedAt)
	})

	for len(kept) > 0 {
		text := renderSections(kept)
		if EstimateTokens(text) <= m.config.MediumTermTokenBudget ||
			kept[len(kept)-1].Importance >= m.config.ImportanceFloor {
			return text
		}
		kept = kept[:len(kept)-1]
	}

	return ""
}

func renderSections(records []*Record) string {
	byType := make(map[Type][]*Record)
	for _, r := range records {
		byType[r.Type] = append(byType[r.Type], r)
	}

	var b strings.Builder
	b.WriteString("Project memory:\n")
	for _, section := range promptSections {
		entries := byType[section.memType]
		if len(entries) == 0 {
			continue
		}
		sort.SliceStable(entries, func(i, j int) bool {
			return entries[i].Importance > entries[j].Importance
		})
		b.WriteString("\n" + section.label + ":\n")
		for _, r := range entries {
			fmt.Fprintf(&b, "- %s\n", r.Value)
		}
	}
	return b.String()
}

// Stats summarizes a project's memory usage.
type Stats struct {
	TotalMemories int          `json:"total_memories"`
	CountsByType  map[Type]int `json:"counts_by_type"`
	AvgImportance float64      `json:"avg_importance"`
}

// GetStats computes usage statistics over non-expired records.
func (m *MediumTermManager) GetStats(ctx context.Context, projectID types.ID) (*Stats, error) {
	records, err := m.store.List(ctx, projectID)
	if err != nil {
		return nil, err
	}

	stats := &Stats{
		TotalMemories: len(records),
		CountsByType:  make(map[Type]int),
	}

	total := 0
	for _, r := range records {
		stats.CountsByType[r.Type]++
		total += r.Importance
	}
	if len(records) > 0 {
		stats.AvgImportance = float64(total) / float64(len(records))
	}

	return stats, nil
}

// AddFact stores a fact with the fact-default importance.
func (m *MediumTermManager) AddFact(ctx context.Context, projectID types.ID, key, value string) error {
	return m.SetMemory(ctx, projectID, TypeFact, key, value, DefaultImportance(TypeFact))
}

// AddDecision stores a decision with the decision-default importance.
func (m *MediumTermManager) AddDecision(ctx context.Context, projectID types.ID, key, value string) error {
	return m.SetMemory(ctx, projectID, TypeDecision, key, value, DefaultImportance(TypeDecision))
}

// AddBlocker stores a blocker with the blocker-default importance.
func (m *MediumTermManager) AddBlocker(ctx context.Context, projectID types.ID, key, value string) error {
	return m.SetMemory(ctx, projectID, TypeBlocker, key, value, DefaultImportance(TypeBlocker))
}

// AddPreference stores a preference with the preference-default importance.
func (m *MediumTermManager) AddPreference(ctx context.Context, projectID types.ID, key, value string) error {
	return m.SetMemory(ctx, projectID, TypePreference, key, value, DefaultImportance(TypePreference))
}

// AddInsight stores an insight with the insight-default importance.
func (m *MediumTermManager) AddInsight(ctx context.Context, projectID types.ID, key, value string) error {
	return m.SetMemory(ctx, projectID, TypeInsight, key, value, DefaultImportance(TypeInsight))
}
