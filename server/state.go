package server

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/kselvad/scoregrid/types"

	"github.com/google/uuid"
)

// boardState is the authoritative system of record: the true values, the
// true lock holders, and the collections. It is not safe for concurrent
// use; the hub serializes access.
type boardState struct {
	results  map[types.FieldKey]string
	criteria []types.Criterion
	judges   []types.Judge
	users    []types.User
	locks    map[types.LockID]types.ClientID
	finished bool
}

func newBoardState() *boardState {
	return &boardState{
		results: make(map[types.FieldKey]string),
		locks:   make(map[types.LockID]types.ClientID),
	}
}

// --- locks ---

// acquireLock records client as the holder. Last writer wins: a concurrent
// acquire simply supersedes the previous holder, and the broadcast tells
// every client who won.
func (s *boardState) acquireLock(lock types.LockID, client types.ClientID) {
	s.locks[lock] = client
}

// releaseLock removes the holder, but only if client actually holds it.
func (s *boardState) releaseLock(lock types.LockID, client types.ClientID) bool {
	if s.locks[lock] != client {
		return false
	}
	delete(s.locks, lock)
	return true
}

// releaseAllHeldBy drops every lock held by a departing client and returns
// the released lock ids for broadcasting.
func (s *boardState) releaseAllHeldBy(client types.ClientID) []types.LockID {
	var released []types.LockID
	for lock, holder := range s.locks {
		if holder == client {
			delete(s.locks, lock)
			released = append(released, lock)
		}
	}
	return released
}

// --- fields ---

// setResult validates, clamps, and stores one score. The canonical value
// is returned for echoing. Range enforcement lives here, not in clients.
func (s *boardState) setResult(user types.UserID, criterion types.CriterionID, raw string) (string, error) {
	c := s.criterion(criterion)
	if c == nil {
		return "", fmt.Errorf("unknown criterion %q", criterion)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return "", fmt.Errorf("malformed score %q: %w", raw, err)
	}
	if v < 0 {
		v = 0
	}
	if v > c.Limit {
		v = c.Limit
	}
	value := strconv.FormatFloat(v, 'f', -1, 64)
	s.results[types.ScoreKey(user, criterion)] = value
	return value, nil
}

// setComment stores one comment verbatim.
func (s *boardState) setComment(user types.UserID, raw string) string {
	s.results[types.CommentKey(user)] = raw
	return raw
}

// value returns the authoritative value for key; scores default to "0".
func (s *boardState) value(key types.FieldKey) string {
	if v, ok := s.results[key]; ok {
		return v
	}
	if key.IsComment() {
		return ""
	}
	return "0"
}

// zeroScores sets every score of every matching user to zero and returns
// the touched keys for per-field reset broadcasts.
func (s *boardState) zeroScores(match func(types.User) bool) []types.FieldKey {
	var touched []types.FieldKey
	for _, u := range s.users {
		if !match(u) {
			continue
		}
		for _, c := range s.criteria {
			key := types.ScoreKey(u.ID, c.ID)
			s.results[key] = "0"
			touched = append(touched, key)
		}
	}
	return touched
}

func (s *boardState) resultEntries() []types.ResultEntry {
	var out []types.ResultEntry
	for key, v := range s.results {
		if key.IsComment() {
			continue
		}
		out = append(out, types.ResultEntry{User: key.User, Criterion: key.Criterion, Value: types.FlexValue(v)})
	}
	return out
}

func (s *boardState) commentEntries() []types.CommentEntry {
	var out []types.CommentEntry
	for key, v := range s.results {
		if key.IsComment() {
			out = append(out, types.CommentEntry{User: key.User, Value: types.FlexValue(v)})
		}
	}
	return out
}

// --- criteria ---

func (s *boardState) criterion(id types.CriterionID) *types.Criterion {
	for i := range s.criteria {
		if s.criteria[i].ID == id {
			return &s.criteria[i]
		}
	}
	return nil
}

func (s *boardState) addCriterion(name string, limit float64) types.Criterion {
	c := types.Criterion{
		ID:         types.CriterionID(uuid.NewString()),
		Name:       name,
		Limit:      limit,
		Multiplier: 1,
		Pos:        len(s.criteria),
	}
	s.criteria = append(s.criteria, c)
	return c
}

func (s *boardState) updateCriterion(id types.CriterionID, params types.CriterionParams) bool {
	c := s.criterion(id)
	if c == nil {
		return false
	}
	if params.Name != nil {
		c.Name = *params.Name
	}
	if params.Limit != nil && *params.Limit >= 0 {
		c.Limit = *params.Limit
	}
	if params.Multiplier != nil {
		c.Multiplier = *params.Multiplier
	}
	if params.Pos != nil {
		c.Pos = *params.Pos
	}
	s.renumberCriteria()
	return true
}

func (s *boardState) deleteCriterion(id types.CriterionID) bool {
	for i := range s.criteria {
		if s.criteria[i].ID == id {
			s.criteria = append(s.criteria[:i], s.criteria[i+1:]...)
			for key := range s.results {
				if key.Criterion == id {
					delete(s.results, key)
				}
			}
			s.renumberCriteria()
			return true
		}
	}
	return false
}

// moveCriterion reinserts a criterion at pos and renumbers the sequence so
// positions stay dense.
func (s *boardState) moveCriterion(id types.CriterionID, pos int) bool {
	idx := -1
	for i := range s.criteria {
		if s.criteria[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}
	if pos < 0 {
		pos = 0
	}
	if pos >= len(s.criteria) {
		pos = len(s.criteria) - 1
	}
	c := s.criteria[idx]
	s.criteria = append(s.criteria[:idx], s.criteria[idx+1:]...)
	s.criteria = append(s.criteria[:pos], append([]types.Criterion{c}, s.criteria[pos:]...)...)
	for i := range s.criteria {
		s.criteria[i].Pos = i
	}
	return true
}

func (s *boardState) setMultiplier(id types.CriterionID, raw string) error {
	c := s.criterion(id)
	if c == nil {
		return fmt.Errorf("unknown criterion %q", id)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("malformed multiplier %q: %w", raw, err)
	}
	c.Multiplier = v
	return nil
}

func (s *boardState) renumberCriteria() {
	sort.SliceStable(s.criteria, func(i, j int) bool {
		return s.criteria[i].Pos < s.criteria[j].Pos
	})
	for i := range s.criteria {
		s.criteria[i].Pos = i
	}
}

// --- judges ---

func (s *boardState) addJudge(name string) types.Judge {
	j := types.Judge{ID: types.JudgeID(uuid.NewString()), Name: name}
	s.judges = append(s.judges, j)
	return j
}

func (s *boardState) deleteJudge(id types.JudgeID) bool {
	for i := range s.judges {
		if s.judges[i].ID == id {
			s.judges = append(s.judges[:i], s.judges[i+1:]...)
			return true
		}
	}
	return false
}

// --- persistence ---

// stateSnapshot is the serialized form of the authoritative state. Locks
// are deliberately absent: they are per-connection and die with it.
type stateSnapshot struct {
	Results  []types.ResultEntry  `json:"results"`
	Comments []types.CommentEntry `json:"comments"`
	Criteria []types.Criterion    `json:"criteria"`
	Judges   []types.Judge        `json:"judges"`
	Users    []types.User         `json:"users"`
	Finished bool                 `json:"finished"`
}

func (s *boardState) snapshot() ([]byte, error) {
	return json.Marshal(stateSnapshot{
		Results:  s.resultEntries(),
		Comments: s.commentEntries(),
		Criteria: s.criteria,
		Judges:   s.judges,
		Users:    s.users,
		Finished: s.finished,
	})
}

func (s *boardState) restore(data []byte) error {
	var snap stateSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("corrupt snapshot: %w", err)
	}
	s.results = make(map[types.FieldKey]string, len(snap.Results)+len(snap.Comments))
	for _, e := range snap.Results {
		s.results[types.ScoreKey(e.User, e.Criterion)] = string(e.Value)
	}
	for _, e := range snap.Comments {
		s.results[types.CommentKey(e.User)] = string(e.Value)
	}
	s.criteria = snap.Criteria
	s.judges = snap.Judges
	s.users = snap.Users
	s.finished = snap.Finished
	s.locks = make(map[types.LockID]types.ClientID)
	s.renumberCriteria()
	return nil
}
