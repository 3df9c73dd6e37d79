package slips

import (
	"errors"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	if err := db.AutoMigrate(&Slip{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedSlips(t *testing.T, repo *Repository, n int) []*Slip {
	t.Helper()
	out := make([]*Slip, 0, n)
	for i := 0; i < n; i++ {
		slip, err := repo.Create(`{"v":1}`, nil, "user-1", "Tester")
		if err != nil {
			t.Fatalf("seed slip %d: %v", i, err)
		}
		out = append(out, slip)
	}
	return out
}

func TestCreateAndFindByID(t *testing.T) {
	repo := NewRepository(openDB(t))

	photo := "https://cdn.example.org/slip.png"
	created, err := repo.Create(`{"v":1,"class":"Curse"}`, &photo, "42", "Aki")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID == 0 {
		t.Fatal("Create did not assign an ID")
	}
	if created.VoteCount != 0 {
		t.Fatalf("new slip vote count = %d, want 0", created.VoteCount)
	}

	found, err := repo.FindByID(created.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if found.Message != created.Message || found.AuthorID != "42" || found.AuthorName != "Aki" {
		t.Fatalf("stored slip mismatch: %+v", found)
	}
	if found.Photo == nil || *found.Photo != photo {
		t.Fatalf("photo column = %v, want %q", found.Photo, photo)
	}
	if found.CreatedAt.IsZero() {
		t.Fatal("CreatedAt not set")
	}
}

func TestFindByIDUnknown(t *testing.T) {
	repo := NewRepository(openDB(t))
	if _, err := repo.FindByID(9999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("FindByID(9999) err = %v, want ErrNotFound", err)
	}
}

func TestAdjustVoteAccumulates(t *testing.T) {
	repo := NewRepository(openDB(t))
	slip := seedSlips(t, repo, 1)[0]

	steps := []int32{1, 1, -1, 1}
	for _, delta := range steps {
		if err := repo.AdjustVote(slip.ID, delta); err != nil {
			t.Fatalf("AdjustVote(%d): %v", delta, err)
		}
	}

	found, err := repo.FindByID(slip.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if found.VoteCount != 2 {
		t.Fatalf("vote count = %d, want 2", found.VoteCount)
	}
	if found.Message != slip.Message {
		t.Fatal("AdjustVote must not touch the message blob")
	}
}

func TestAdjustVoteUnknownSlip(t *testing.T) {
	repo := NewRepository(openDB(t))
	if err := repo.AdjustVote(123, 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("AdjustVote err = %v, want ErrNotFound", err)
	}
}

func TestVotingCast(t *testing.T) {
	repo := NewRepository(openDB(t))
	voting := NewVoting(repo)
	slip := seedSlips(t, repo, 1)[0]

	if err := voting.Cast(slip.ID, true); err != nil {
		t.Fatalf("Cast up: %v", err)
	}
	if err := voting.Cast(slip.ID, false); err != nil {
		t.Fatalf("Cast down: %v", err)
	}
	if err := voting.Cast(slip.ID, false); err != nil {
		t.Fatalf("Cast down: %v", err)
	}

	found, _ := repo.FindByID(slip.ID)
	if found.VoteCount != -1 {
		t.Fatalf("vote count = %d, want -1", found.VoteCount)
	}

	if err := voting.Cast(55555, true); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Cast on unknown slip err = %v, want ErrNotFound", err)
	}
}

func TestDrawRandomEmptyLibrary(t *testing.T) {
	repo := NewRepository(openDB(t))
	slip, err := repo.DrawRandom()
	if err != nil {
		t.Fatalf("DrawRandom: %v", err)
	}
	if slip != nil {
		t.Fatalf("DrawRandom on empty library = %+v, want nil", slip)
	}
}

func TestDrawRandomSingleSlip(t *testing.T) {
	repo := NewRepository(openDB(t))
	only := seedSlips(t, repo, 1)[0]
	for i := 0; i < 10; i++ {
		slip, err := repo.DrawRandom()
		if err != nil {
			t.Fatalf("DrawRandom: %v", err)
		}
		if slip == nil || slip.ID != only.ID {
			t.Fatalf("DrawRandom = %+v, want slip %d", slip, only.ID)
		}
	}
}

func TestDrawRandomOffsetBoundaries(t *testing.T) {
	repo := NewRepository(openDB(t))
	seeded := seedSlips(t, repo, 5)

	tests := []struct {
		name   string
		offset int64
		wantID uint32
	}{
		{"first row reachable", 0, seeded[0].ID},
		{"last row reachable", 4, seeded[4].ID},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			repo.pick = func(n int64) int64 {
				if n != 5 {
					t.Fatalf("pick range = %d, want 5", n)
				}
				return tc.offset
			}
			slip, err := repo.DrawRandom()
			if err != nil {
				t.Fatalf("DrawRandom: %v", err)
			}
			if slip == nil || slip.ID != tc.wantID {
				t.Fatalf("DrawRandom = %+v, want slip %d", slip, tc.wantID)
			}
		})
	}
}

// A buried slip must not leave a hole in the offset window: the draw
// counts and offsets over eligible rows only.
func TestDrawRandomSkipsBuriedSlips(t *testing.T) {
	repo := NewRepository(openDB(t))
	seeded := seedSlips(t, repo, 5)

	db := repo.db
	if err := db.Model(seeded[2]).Update("vote_count", DrawThreshold-2).Error; err != nil {
		t.Fatalf("bury slip: %v", err)
	}

	repo.pick = func(n int64) int64 {
		if n != 4 {
			t.Fatalf("pick range = %d, want 4", n)
		}
		return 3
	}
	slip, err := repo.DrawRandom()
	if err != nil {
		t.Fatalf("DrawRandom: %v", err)
	}
	if slip == nil || slip.ID != seeded[4].ID {
		t.Fatalf("DrawRandom = %+v, want slip %d", slip, seeded[4].ID)
	}
}

func TestDrawEligibilityThreshold(t *testing.T) {
	repo := NewRepository(openDB(t))
	seeded := seedSlips(t, repo, 2)
	db := repo.db

	// Exactly at the floor: buried.
	if err := db.Model(seeded[0]).Update("vote_count", DrawThreshold).Error; err != nil {
		t.Fatalf("set vote count: %v", err)
	}
	// One above the floor: still drawable.
	if err := db.Model(seeded[1]).Update("vote_count", DrawThreshold+1).Error; err != nil {
		t.Fatalf("set vote count: %v", err)
	}

	for i := 0; i < 25; i++ {
		slip, err := repo.DrawRandom()
		if err != nil {
			t.Fatalf("DrawRandom: %v", err)
		}
		if slip == nil || slip.ID != seeded[1].ID {
			t.Fatalf("DrawRandom = %+v, want only eligible slip %d", slip, seeded[1].ID)
		}
	}

	if err := db.Model(seeded[1]).Update("vote_count", DrawThreshold).Error; err != nil {
		t.Fatalf("set vote count: %v", err)
	}
	slip, err := repo.DrawRandom()
	if err != nil {
		t.Fatalf("DrawRandom: %v", err)
	}
	if slip != nil {
		t.Fatalf("DrawRandom with all slips buried = %+v, want nil", slip)
	}
}

func TestDrawRandomUniformity(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping statistical draw test in short mode")
	}
	repo := NewRepository(openDB(t))
	seeded := seedSlips(t, repo, 5)

	const draws = 100000
	counts := make(map[uint32]int, len(seeded))
	for i := 0; i < draws; i++ {
		slip, err := repo.DrawRandom()
		if err != nil {
			t.Fatalf("DrawRandom: %v", err)
		}
		if slip == nil {
			t.Fatal("DrawRandom returned nil with eligible slips present")
		}
		counts[slip.ID]++
	}

	// Expected share is draws/5 = 20000 with sigma ~126; a 1500 band is
	// far outside honest noise but inside any real bias.
	const want, tolerance = draws / 5, 1500
	for _, slip := range seeded {
		got := counts[slip.ID]
		if got < want-tolerance || got > want+tolerance {
			t.Errorf("slip %d drawn %d times, want %d±%d", slip.ID, got, want, tolerance)
		}
	}
}
