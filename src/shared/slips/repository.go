package slips

import (
	"errors"
	"fmt"
	"math/rand"

	"gorm.io/gorm"
)

// DrawThreshold is the moderation floor. Slips whose vote count has sunk
// to this value or below stay in the database but are never drawn again.
const DrawThreshold = -3

// ErrNotFound is returned when a slip ID does not exist.
var ErrNotFound = errors.New("slip not found")

// Stats summarizes the slip library.
type Stats struct {
	Total    int64
	Eligible int64
}

// Repository owns all access to the slips table.
type Repository struct {
	db *gorm.DB
	// pick returns a uniform value in [0, n). Swapped out in tests to
	// force boundary offsets.
	pick func(n int64) int64
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db, pick: rand.Int63n}
}

// Create persists a new slip and returns it with its assigned ID.
func (r *Repository) Create(message string, photo *string, authorID, authorName string) (*Slip, error) {
	slip := Slip{
		Photo:      photo,
		Message:    message,
		AuthorID:   authorID,
		AuthorName: authorName,
	}
	if err := r.db.Create(&slip).Error; err != nil {
		return nil, fmt.Errorf("create slip: %w", err)
	}
	return &slip, nil
}

// FindByID returns the slip with the given ID, or ErrNotFound.
func (r *Repository) FindByID(id uint32) (*Slip, error) {
	var slip Slip
	if err := r.db.First(&slip, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find slip %d: %w", id, err)
	}
	return &slip, nil
}

// AdjustVote reads the slip's current count and writes count+delta back.
// Two concurrent adjustments may lose one increment; the count is a
// moderation signal, not a ledger, so that trade is accepted. What is
// never acceptable is a row ending up outside an honest reader's write,
// which a plain read-modify-write cannot produce.
func (r *Repository) AdjustVote(id uint32, delta int32) error {
	slip, err := r.FindByID(id)
	if err != nil {
		return err
	}
	if err := r.db.Model(slip).Update("vote_count", slip.VoteCount+delta).Error; err != nil {
		return fmt.Errorf("update vote count for slip %d: %w", id, err)
	}
	return nil
}

// DrawRandom returns a uniformly random slip among those above the
// moderation floor, or nil when none qualify. Selection is by row offset
// in stable ID order; pick covers [0, count), so both the first and the
// last eligible slip are reachable.
func (r *Repository) DrawRandom() (*Slip, error) {
	var count int64
	err := r.db.Model(&Slip{}).Where("vote_count > ?", DrawThreshold).Count(&count).Error
	if err != nil {
		return nil, fmt.Errorf("count eligible slips: %w", err)
	}
	if count == 0 {
		return nil, nil
	}
	offset := r.pick(count)
	var slip Slip
	err = r.db.Where("vote_count > ?", DrawThreshold).
		Order("id").
		Offset(int(offset)).
		Take(&slip).Error
	if err != nil {
		return nil, fmt.Errorf("fetch slip at offset %d: %w", offset, err)
	}
	return &slip, nil
}

// CountStats reports totals for the health and stats endpoints.
func (r *Repository) CountStats() (Stats, error) {
	var s Stats
	if err := r.db.Model(&Slip{}).Count(&s.Total).Error; err != nil {
		return Stats{}, fmt.Errorf("count slips: %w", err)
	}
	err := r.db.Model(&Slip{}).Where("vote_count > ?", DrawThreshold).Count(&s.Eligible).Error
	if err != nil {
		return Stats{}, fmt.Errorf("count eligible slips: %w", err)
	}
	return s, nil
}
