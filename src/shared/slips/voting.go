package slips

// Voting applies reader feedback to stored slips.
type Voting struct {
	repo *Repository
}

func NewVoting(repo *Repository) *Voting {
	return &Voting{repo: repo}
}

// Cast moves the slip's vote count one step up or down. Voting on an
// unknown ID returns ErrNotFound.
func (v *Voting) Cast(id uint32, upvote bool) error {
	delta := int32(1)
	if !upvote {
		delta = -1
	}
	return v.repo.AdjustVote(id, delta)
}
