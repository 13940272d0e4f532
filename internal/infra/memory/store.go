package memory

import (
	"context"
	"math/rand"
	"sort"
	"sync"
	"time"

	"hunt-event-service/internal/domain"
)

// Store is an in-memory implementation of app.Store for local runs and tests.
type Store struct {
	mu         sync.RWMutex
	rnd        *rand.Rand
	groups     map[string]domain.Group
	challenges map[string]domain.Challenge
	questions  map[string]domain.Question
	answers    []domain.AnsweredQuestion
	clears     []domain.ClearTime
}

func NewStore() *Store {
	return &Store{
		rnd:        rand.New(rand.NewSource(time.Now().UnixNano())),
		groups:     make(map[string]domain.Group),
		challenges: make(map[string]domain.Challenge),
		questions:  make(map[string]domain.Question),
	}
}

// UpsertQuestions adds catalog entries, keeping counters of questions already present.
func (s *Store) UpsertQuestions(_ context.Context, questions []domain.Question) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, q := range questions {
		if existing, ok := s.questions[q.ID]; ok {
			q.CollectCount = existing.CollectCount
			q.WrongCount = existing.WrongCount
		}
		s.questions[q.ID] = q
	}
	return len(questions), nil
}

// Question returns a catalog entry by id.
func (s *Store) Question(_ context.Context, id string) (domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.questions[id]
	if !ok {
		return domain.Question{}, domain.ErrNotFound
	}
	return q, nil
}

// AnsweredQuestions returns a copy of the answer log.
func (s *Store) AnsweredQuestions() []domain.AnsweredQuestion {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.AnsweredQuestion(nil), s.answers...)
}

// ClearTimes returns a copy of every recorded clear.
func (s *Store) ClearTimes() []domain.ClearTime {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.ClearTime(nil), s.clears...)
}

// Groups returns a copy of every group.
func (s *Store) Groups() []domain.Group {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Group, 0, len(s.groups))
	for _, g := range s.groups {
		out = append(out, g)
	}
	return out
}

// Challenges returns a copy of every challenge.
func (s *Store) Challenges() []domain.Challenge {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Challenge, 0, len(s.challenges))
	for _, c := range s.challenges {
		out = append(out, c)
	}
	return out
}

func (s *Store) InsertAnsweredQuestion(_ context.Context, answer domain.AnsweredQuestion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.answers = append(s.answers, answer)
	return nil
}

func (s *Store) IncrementQuestionCounter(_ context.Context, questionID string, counter domain.Counter) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.questions[questionID]
	if !ok {
		// Matches an UPDATE that touches no rows.
		return nil
	}
	if counter == domain.CounterCollect {
		q.CollectCount++
	} else {
		q.WrongCount++
	}
	s.questions[questionID] = q
	return nil
}

func (s *Store) RandomQuestion(_ context.Context, difficulty int) (domain.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pickLocked(difficulty, func(domain.Question) bool { return true })
}

func (s *Store) RandomUnansweredQuestion(_ context.Context, groupID string, difficulty int) (domain.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	answered := s.answeredLocked(groupID, nil)
	return s.pickLocked(difficulty, func(q domain.Question) bool { return !answered[q.ID] })
}

func (s *Store) HasAnswered(_ context.Context, groupID, questionID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.answers {
		if a.GroupID == groupID && a.QuestionID == questionID {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) CountAvailableQuestions(_ context.Context, groupID string, difficulty int) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	used := s.answeredLocked(groupID, domain.TerminalResults)
	count := 0
	for _, q := range s.questions {
		if q.Difficulty == difficulty && !used[q.ID] {
			count++
		}
	}
	return count, nil
}

func (s *Store) GroupByName(_ context.Context, name string) (domain.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, g := range s.groups {
		if g.Name == name {
			return g, nil
		}
	}
	return domain.Group{}, domain.ErrNotFound
}

func (s *Store) GroupByID(_ context.Context, groupID string) (domain.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.groups[groupID]
	if !ok {
		return domain.Group{}, domain.ErrNotFound
	}
	return g, nil
}

func (s *Store) CreateGroup(_ context.Context, group domain.Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groups[group.GroupID] = group
	return nil
}

func (s *Store) IncrementChallengesCount(_ context.Context, groupID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if g, ok := s.groups[groupID]; ok {
		g.ChallengesCount++
		s.groups[groupID] = g
	}
	return nil
}

func (s *Store) UpdateGroupRewards(_ context.Context, groupID, wasCleared, snackState string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if g, ok := s.groups[groupID]; ok {
		g.WasCleared = wasCleared
		g.SnackState = snackState
		s.groups[groupID] = g
	}
	return nil
}

func (s *Store) CreateChallenge(_ context.Context, challenge domain.Challenge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.challenges[challenge.ChallengeID] = challenge
	return nil
}

func (s *Store) ChallengeContext(_ context.Context, challengeID string) (domain.ChallengeContext, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.challenges[challengeID]
	if !ok {
		return domain.ChallengeContext{}, domain.ErrNotFound
	}
	return s.contextLocked(c), nil
}

func (s *Store) PendingChallengeInRoom(_ context.Context, roomID string) (domain.ChallengeContext, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var latest *domain.Challenge
	for id := range s.challenges {
		c := s.challenges[id]
		if c.RoomID != roomID || c.State != domain.StatePending {
			continue
		}
		if latest == nil || c.StartTime.After(latest.StartTime) {
			latest = &c
		}
	}
	if latest == nil {
		return domain.ChallengeContext{}, domain.ErrNotFound
	}
	return s.contextLocked(*latest), nil
}

func (s *Store) UpdateChallengeState(_ context.Context, challengeID, state string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.challenges[challengeID]; ok {
		c.State = state
		s.challenges[challengeID] = c
	}
	return nil
}

func (s *Store) ChallengeStartTime(_ context.Context, challengeID string) (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.challenges[challengeID]
	if !ok {
		return time.Time{}, domain.ErrNotFound
	}
	return c.StartTime, nil
}

func (s *Store) InsertClearTime(_ context.Context, ct domain.ClearTime) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clears = append(s.clears, ct)
	return nil
}

func (s *Store) TopClearTimes(_ context.Context, difficulty, limit int) ([]domain.ClearTime, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.ClearTime
	for _, c := range s.clears {
		if c.Difficulty == difficulty {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ElapsedTime < out[j].ElapsedTime
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// answeredLocked returns the question ids answered by groupID, restricted to
// results when it is non-empty.
func (s *Store) answeredLocked(groupID string, results []string) map[string]bool {
	answered := make(map[string]bool)
	for _, a := range s.answers {
		if a.GroupID != groupID {
			continue
		}
		if len(results) > 0 && !contains(results, a.Result) {
			continue
		}
		answered[a.QuestionID] = true
	}
	return answered
}

// pickLocked draws uniformly among questions at difficulty accepted by keep.
// Candidates are sorted first so a seeded rnd gives repeatable draws.
func (s *Store) pickLocked(difficulty int, keep func(domain.Question) bool) (domain.Question, error) {
	var candidates []domain.Question
	for _, q := range s.questions {
		if q.Difficulty == difficulty && keep(q) {
			candidates = append(candidates, q)
		}
	}
	if len(candidates) == 0 {
		return domain.Question{}, domain.ErrNotFound
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].ID < candidates[j].ID })
	return candidates[s.rnd.Intn(len(candidates))], nil
}

func (s *Store) contextLocked(c domain.Challenge) domain.ChallengeContext {
	return domain.ChallengeContext{
		ChallengeID: c.ChallengeID,
		GroupID:     c.GroupID,
		GroupName:   s.groups[c.GroupID].Name,
		Difficulty:  c.Difficulty,
		State:       c.State,
		StartTime:   c.StartTime,
	}
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
