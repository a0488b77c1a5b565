package database

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/jask/signalfromnoise/internal/database/repository"
)

// SeedStats reports what Seed inserted.
type SeedStats struct {
	Files      int
	Privileged int
	Duplicates int
	Requests   int
}

var seedDirectories = []struct {
	name     string
	category string
}{
	{"Email_Folder_2022", repository.CategoryEmail},
	{"Email_Folder_2023", repository.CategoryEmail},
	{"Email_Folder_2024", repository.CategoryEmail},
	{"Claim_Documents_2022", repository.CategoryClaim},
	{"Claim_Documents_2023", repository.CategoryClaim},
	{"Claim_Documents_2024", repository.CategoryClaim},
	{"Claim_Evidence_2023", repository.CategoryClaim},
	{"Other_Documents", repository.CategoryOther},
	{"Misc_Files", repository.CategoryOther},
	{"Archive_2022", repository.CategoryOther},
}

var (
	seedTopics = []string{
		"Project Update", "Meeting Request", "Contract Review", "Budget Approval",
		"Status Report", "Client Communication", "Legal Matter", "Invoice",
		"Proposal", "Follow-up", "Urgent Action", "Documentation",
	}
	seedInternal = []string{
		"john.doe@company.com", "jane.smith@company.com", "bob.jones@company.com",
		"alice.brown@company.com", "charlie.wilson@company.com", "diana.miller@company.com",
	}
	seedExternal = []string{
		"client1@external.com", "vendor@supplier.com", "partner@business.com",
		"customer@client.com", "consultant@firm.com", "lawyer@legal.com",
	}
	seedRequestTopics = []string{
		"Email communication timeline", "Claims-related communications", "Document review",
		"Evidence compilation", "Correspondence analysis",
	}
)

// Seed fills an empty catalog with deterministic mock data: ten directories
// of 50-150 files dated 2022-2024, a fifth of the emails privileged, about a
// tenth of all files sharing a duplicate hash, and twenty production requests.
// The same seed always produces the same catalog.
func Seed(ctx context.Context, db *sql.DB, seed uint64) (SeedStats, error) {
	rng := rand.New(rand.NewPCG(seed, seed^0x5f3759df))
	files := repository.NewFileRepo(db)
	requests := repository.NewRequestRepo(db)

	base := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 12, 31, 23, 59, 59, 0, time.UTC)
	days := int(end.Sub(base).Hours() / 24)

	var stats SeedStats
	var hashes []string
	err := WithTx(ctx, db, func(tx *sql.Tx) error {
		for _, dir := range seedDirectories {
			n := 50 + rng.IntN(101)
			for i := 0; i < n; i++ {
				f := repository.File{
					Directory: dir.name,
					Category:  dir.category,
					Date:      base.AddDate(0, 0, rng.IntN(days)),
					Size:      int64(1024 + rng.IntN(10*1024*1024-1024)),
					FileName:  fmt.Sprintf("file_%d_%d.pdf", stats.Files, rng.IntN(10000)),
				}
				f.Path = dir.name + "/" + f.FileName

				if len(hashes) > 0 && rng.Float32() < 0.1 {
					f.DuplicateHash = hashes[rng.IntN(len(hashes))]
					stats.Duplicates++
				} else {
					f.DuplicateHash = uuid.NewSHA1(uuid.NameSpaceOID, []byte(f.Path)).String()
					hashes = append(hashes, f.DuplicateHash)
				}

				if dir.category == repository.CategoryEmail {
					seedEmail(rng, &f, stats.Files)
					if f.Privileged {
						stats.Privileged++
					}
				}
				if _, err := files.Insert(ctx, tx, f); err != nil {
					return err
				}
				stats.Files++
			}
		}
		return nil
	})
	if err != nil {
		return SeedStats{}, fmt.Errorf("seed files: %w", err)
	}

	for i := 1; i <= 20; i++ {
		p := repository.ProductionRequest{
			ID:          int64(i),
			Title:       fmt.Sprintf("REQUEST FOR PRODUCTION NO: %d", i),
			Description: seedRequestTopics[(i-1)%len(seedRequestTopics)],
		}
		// Every fourth request is limited to one calendar year.
		if i%4 == 0 {
			year := 2022 + (i/4)%3
			start := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
			stop := time.Date(year, 12, 31, 23, 59, 59, 0, time.UTC)
			p.DateStart, p.DateEnd = &start, &stop
			p.Description += fmt.Sprintf(" (%d)", year)
		}
		if err := requests.Upsert(ctx, p); err != nil {
			return SeedStats{}, err
		}
		stats.Requests++
	}
	return stats, nil
}

func seedEmail(rng *rand.Rand, f *repository.File, n int) {
	f.Privileged = rng.Float32() < 0.2
	topic := seedTopics[rng.IntN(len(seedTopics))]
	subject := fmt.Sprintf("%s - Email %d", topic, n)
	var from, to string
	if rng.Float32() < 0.7 {
		f.IsInternal = true
		from = seedInternal[rng.IntN(len(seedInternal))]
		to = seedInternal[rng.IntN(len(seedInternal))]
		for to == from {
			to = seedInternal[rng.IntN(len(seedInternal))]
		}
	} else if rng.Float32() < 0.5 {
		from = seedInternal[rng.IntN(len(seedInternal))]
		to = seedExternal[rng.IntN(len(seedExternal))]
	} else {
		from = seedExternal[rng.IntN(len(seedExternal))]
		to = seedInternal[rng.IntN(len(seedInternal))]
	}
	f.Topic, f.Subject, f.FromEmail, f.ToEmail = &topic, &subject, &from, &to
}

// SeedIfEmpty seeds the catalog only when it holds no files. It is safe to
// run on every startup.
func SeedIfEmpty(ctx context.Context, db *sql.DB, seed uint64) (SeedStats, bool, error) {
	n, err := repository.NewFileRepo(db).Total(ctx)
	if err != nil {
		return SeedStats{}, false, fmt.Errorf("count files: %w", err)
	}
	if n > 0 {
		return SeedStats{}, false, nil
	}
	stats, err := Seed(ctx, db, seed)
	return stats, err == nil, err
}
