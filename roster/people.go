package roster

import "github.com/kselvad/scoregrid/types"

// LoadJudges replaces the whole judges sequence with a bulk load.
func (b *Board) LoadJudges(entries []types.Judge) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.judges = append([]types.Judge(nil), entries...)
}

// ApplyJudgeAdd appends a broadcast judge.
func (b *Board) ApplyJudgeAdd(entry types.Judge) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.judges = append(b.judges, entry)
}

// ApplyJudgeDelete removes a judge by identity.
func (b *Board) ApplyJudgeDelete(id types.JudgeID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, j := range b.judges {
		if j.ID == id {
			b.judges = append(b.judges[:i], b.judges[i+1:]...)
			return
		}
	}
}

// AddJudge asks the server to create a judge account.
func (b *Board) AddJudge(name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.send(types.ActionAddJudge, types.AddJudgePayload{Name: name})
}

// DeleteJudge asks the server to delete a judge account.
func (b *Board) DeleteJudge(id types.JudgeID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.send(types.ActionDeleteJudge, types.DeleteJudgePayload{ID: id})
}

// Judges returns a copy of the judges sequence.
func (b *Board) Judges() []types.Judge {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]types.Judge(nil), b.judges...)
}

// LoadUsers replaces the whole users sequence with a bulk load.
func (b *Board) LoadUsers(entries []types.User) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.users = append([]types.User(nil), entries...)
}

// ApplyUserAdd appends a broadcast user.
func (b *Board) ApplyUserAdd(entry types.User) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.users = append(b.users, entry)
}

// ApplyUserDelete removes a user by identity.
func (b *Board) ApplyUserDelete(id types.UserID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, u := range b.users {
		if u.ID == id {
			b.users = append(b.users[:i], b.users[i+1:]...)
			return
		}
	}
}

// Users returns a copy of the users sequence.
func (b *Board) Users() []types.User {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]types.User(nil), b.users...)
}
