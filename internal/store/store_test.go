package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"jobboard-backend/internal/apperr"
	"jobboard-backend/internal/cache"
	"jobboard-backend/internal/rank"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	cache.Reset()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		s.Close()
		cache.Reset()
	})
	return s
}

func fptr(v float64) *float64 { return &v }
func iptr(v int64) *int64     { return &v }

func seedCompany(t *testing.T, s *Store, name string) Company {
	t.Helper()
	c := Company{Name: name, Country: "United States"}
	require.NoError(t, s.CreateCompany(context.Background(), &c))
	return c
}

func seedCandidate(t *testing.T, s *Store, name string) Candidate {
	t.Helper()
	c := Candidate{FullName: name, Email: name + "@example.com"}
	require.NoError(t, s.CreateCandidate(context.Background(), &c))
	return c
}

func TestNextID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	t.Run("strictly increasing", func(t *testing.T) {
		var prev int64
		for i := 0; i < 5; i++ {
			id, err := s.NextID(ctx, SeqJob)
			require.NoError(t, err)
			require.Greater(t, id, prev)
			prev = id
		}
	})

	t.Run("sync raises the floor", func(t *testing.T) {
		require.NoError(t, s.SyncCounter(ctx, SeqJob, 100))
		id, err := s.NextID(ctx, SeqJob)
		require.NoError(t, err)
		require.Equal(t, int64(101), id)
	})

	t.Run("sync below current is a no-op", func(t *testing.T) {
		require.NoError(t, s.SyncCounter(ctx, SeqJob, 5))
		id, err := s.NextID(ctx, SeqJob)
		require.NoError(t, err)
		require.Equal(t, int64(102), id)
	})

	t.Run("sequences are independent", func(t *testing.T) {
		id, err := s.NextID(ctx, SeqCompany)
		require.NoError(t, err)
		require.Equal(t, int64(1), id)
	})
}

func TestCreateJob_NormalizedSalary(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	company := seedCompany(t, s, "Acme")

	j := Job{
		Title:     "Backend Engineer",
		MinSalary: fptr(40),
		MaxSalary: fptr(60),
		PayPeriod: "HOURLY",
		CompanyID: company.CompanyID,
	}
	require.NoError(t, s.CreateJob(ctx, &j))
	require.NotNil(t, j.NormalizedSalary)
	require.InDelta(t, 50*2080, *j.NormalizedSalary, 0.01)

	t.Run("missing period yields nil", func(t *testing.T) {
		j2 := Job{Title: "Intern", MinSalary: fptr(10), MaxSalary: fptr(20), CompanyID: company.CompanyID}
		require.NoError(t, s.CreateJob(ctx, &j2))
		require.Nil(t, j2.NormalizedSalary)
	})

	t.Run("update recomputes on period change", func(t *testing.T) {
		period := "YEARLY"
		upd, err := s.UpdateJob(ctx, j.JobID, JobUpdate{PayPeriod: &period})
		require.NoError(t, err)
		require.NotNil(t, upd.NormalizedSalary)
		require.InDelta(t, 50.0, *upd.NormalizedSalary, 0.01)
	})

	t.Run("inverted bounds rejected", func(t *testing.T) {
		bad := Job{Title: "X", MinSalary: fptr(90), MaxSalary: fptr(10), CompanyID: company.CompanyID}
		err := s.CreateJob(ctx, &bad)
		require.True(t, apperr.IsCode(err, apperr.CodeBadRequest))
	})

	t.Run("unknown company rejected", func(t *testing.T) {
		bad := Job{Title: "X", CompanyID: 9999}
		err := s.CreateJob(ctx, &bad)
		require.True(t, apperr.IsCode(err, apperr.CodeNotFound))
	})

	t.Run("invalid work location type rejected", func(t *testing.T) {
		bad := Job{Title: "X", WorkLocationType: "MOON", CompanyID: company.CompanyID}
		err := s.CreateJob(ctx, &bad)
		require.True(t, apperr.IsCode(err, apperr.CodeBadRequest))
	})
}

func TestSearchJobsHybrid(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	company := seedCompany(t, s, "Acme")

	now := time.Now().UTC()
	recent := now.Add(-24 * time.Hour)
	old := now.Add(-200 * 24 * time.Hour)

	titlePhrase := Job{
		Title: "Senior Golang Developer", Description: "Build services.",
		ListedTime: &recent, CompanyID: company.CompanyID,
	}
	descOnly := Job{
		Title: "Software Engineer", Description: "We use golang and want a developer.",
		ListedTime: &old, CompanyID: company.CompanyID,
	}
	unrelated := Job{
		Title: "Accountant", Description: "Ledgers.",
		ListedTime: &recent, CompanyID: company.CompanyID,
	}
	for _, j := range []*Job{&titlePhrase, &descOnly, &unrelated} {
		require.NoError(t, s.CreateJob(ctx, j))
	}

	jobs, total, err := s.SearchJobsHybrid(ctx, JobFilter{}, "golang developer", Page{Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	require.Len(t, jobs, 2)
	require.Equal(t, titlePhrase.JobID, jobs[0].JobID)
	require.Equal(t, descOnly.JobID, jobs[1].JobID)

	t.Run("empty query falls back to recency listing", func(t *testing.T) {
		jobs, total, err := s.SearchJobsHybrid(ctx, JobFilter{}, "   ", Page{Page: 1, Limit: 10})
		require.NoError(t, err)
		require.Equal(t, int64(3), total)
		require.Len(t, jobs, 3)
	})

	t.Run("filters compose with the match", func(t *testing.T) {
		_, total, err := s.SearchJobsHybrid(ctx, JobFilter{CompanyID: 9999}, "golang", Page{Page: 1, Limit: 10})
		require.NoError(t, err)
		require.Zero(t, total)
	})

	t.Run("pagination keeps the full total", func(t *testing.T) {
		jobs, total, err := s.SearchJobsHybrid(ctx, JobFilter{}, "golang developer", Page{Page: 2, Limit: 1})
		require.NoError(t, err)
		require.Equal(t, int64(2), total)
		require.Len(t, jobs, 1)
		require.Equal(t, descOnly.JobID, jobs[0].JobID)
	})
}

func TestSearchJobsSorted(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	company := seedCompany(t, s, "Acme")

	low := Job{Title: "Golang Developer", MinSalary: fptr(50000), MaxSalary: fptr(60000), PayPeriod: "YEARLY", CompanyID: company.CompanyID}
	high := Job{Title: "Golang Architect", MinSalary: fptr(150000), MaxSalary: fptr(180000), PayPeriod: "YEARLY", CompanyID: company.CompanyID}
	require.NoError(t, s.CreateJob(ctx, &low))
	require.NoError(t, s.CreateJob(ctx, &high))

	jobs, total, err := s.SearchJobsSorted(ctx, JobFilter{}, "golang",
		Sort{Field: "min_salary", Desc: true}, Page{Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	require.Equal(t, high.JobID, jobs[0].JobID)
	require.Equal(t, low.JobID, jobs[1].JobID)
}

func TestListJobs_Pagination(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	company := seedCompany(t, s, "Acme")

	base := time.Now().UTC().Add(-30 * 24 * time.Hour)
	for i := 0; i < 5; i++ {
		listed := base.Add(time.Duration(i) * 24 * time.Hour)
		j := Job{Title: "Role", ListedTime: &listed, CompanyID: company.CompanyID}
		require.NoError(t, s.CreateJob(ctx, &j))
	}

	jobs, total, err := s.ListJobs(ctx, JobFilter{}, Sort{Field: "listed_time", Desc: true}, Page{Page: 2, Limit: 2})
	require.NoError(t, err)
	require.Equal(t, int64(5), total)
	require.Len(t, jobs, 2)
	require.True(t, jobs[0].ListedTime.After(*jobs[1].ListedTime))

	t.Run("window past the end is empty, total intact", func(t *testing.T) {
		jobs, total, err := s.ListJobs(ctx, JobFilter{}, Sort{}, Page{Page: 9, Limit: 2})
		require.NoError(t, err)
		require.Equal(t, int64(5), total)
		require.Empty(t, jobs)
	})
}

func TestApplications(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	company := seedCompany(t, s, "Acme")
	candidate := seedCandidate(t, s, "ada")
	job := Job{Title: "Engineer", CompanyID: company.CompanyID}
	require.NoError(t, s.CreateJob(ctx, &job))

	app, created, err := s.CreateApplication(ctx, candidate.CandidateID, job.JobID)
	require.NoError(t, err)
	require.True(t, created)
	require.Equal(t, "APPLIED", app.Status)
	require.Equal(t, company.CompanyID, app.CompanyID)

	t.Run("duplicate apply is idempotent", func(t *testing.T) {
		again, created, err := s.CreateApplication(ctx, candidate.CandidateID, job.JobID)
		require.NoError(t, err)
		require.False(t, created)
		require.Equal(t, app.ApplicationID, again.ApplicationID)
	})

	t.Run("status transition bumps updated_at", func(t *testing.T) {
		upd, err := s.UpdateApplicationStatus(ctx, app.ApplicationID, "INTERVIEW")
		require.NoError(t, err)
		require.Equal(t, "INTERVIEW", upd.Status)
		require.False(t, upd.UpdatedAt.Before(app.UpdatedAt))
	})

	t.Run("invalid status rejected", func(t *testing.T) {
		_, err := s.UpdateApplicationStatus(ctx, app.ApplicationID, "GHOSTED")
		require.True(t, apperr.IsCode(err, apperr.CodeBadRequest))
	})

	t.Run("pair predicate", func(t *testing.T) {
		ok, err := s.ApplicationPairExists(ctx, company.CompanyID, candidate.CandidateID)
		require.NoError(t, err)
		require.True(t, ok)
		ok, err = s.ApplicationPairExists(ctx, company.CompanyID, 9999)
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("statuses for jobs batch", func(t *testing.T) {
		got, err := s.StatusesForJobs(ctx, candidate.CandidateID, []int64{job.JobID, 9999})
		require.NoError(t, err)
		require.Equal(t, map[int64]string{job.JobID: "INTERVIEW"}, got)
	})
}

func TestPipelineCounts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	company := seedCompany(t, s, "Acme")
	job := Job{Title: "Engineer", CompanyID: company.CompanyID}
	require.NoError(t, s.CreateJob(ctx, &job))

	for i, status := range []string{"APPLIED", "APPLIED", "INTERVIEW"} {
		cand := seedCandidate(t, s, string(rune('a'+i))+"cand")
		app, _, err := s.CreateApplication(ctx, cand.CandidateID, job.JobID)
		require.NoError(t, err)
		if status != "APPLIED" {
			_, err = s.UpdateApplicationStatus(ctx, app.ApplicationID, status)
			require.NoError(t, err)
		}
	}

	counts, err := s.PipelineCounts(ctx, ApplicationFilter{CompanyID: company.CompanyID})
	require.NoError(t, err)
	require.Len(t, counts, len(ApplicationStatuses))
	byStatus := make(map[string]int64)
	for _, c := range counts {
		byStatus[c.Status] = c.Count
	}
	require.Equal(t, int64(2), byStatus["APPLIED"])
	require.Equal(t, int64(1), byStatus["INTERVIEW"])
	require.Zero(t, byStatus["HIRED"])
}

func TestFavorites(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	company := seedCompany(t, s, "Acme")
	candidate := seedCandidate(t, s, "ada")
	job := Job{Title: "Engineer", CompanyID: company.CompanyID}
	require.NoError(t, s.CreateJob(ctx, &job))

	fav, created, err := s.AddFavorite(ctx, candidate.CandidateID, job.JobID)
	require.NoError(t, err)
	require.True(t, created)

	t.Run("duplicate add is idempotent", func(t *testing.T) {
		again, created, err := s.AddFavorite(ctx, candidate.CandidateID, job.JobID)
		require.NoError(t, err)
		require.False(t, created)
		require.Equal(t, fav.FavoriteID, again.FavoriteID)
	})

	t.Run("list newest first", func(t *testing.T) {
		favs, total, err := s.ListFavorites(ctx, candidate.CandidateID, Page{Page: 1, Limit: 10})
		require.NoError(t, err)
		require.Equal(t, int64(1), total)
		require.Len(t, favs, 1)
	})

	t.Run("remove then absent", func(t *testing.T) {
		require.NoError(t, s.RemoveFavorite(ctx, candidate.CandidateID, job.JobID))
		err := s.RemoveFavorite(ctx, candidate.CandidateID, job.JobID)
		require.True(t, apperr.IsCode(err, apperr.CodeNotFound))
		ok, err := s.IsFavorite(ctx, candidate.CandidateID, job.JobID)
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("unknown job rejected", func(t *testing.T) {
		_, _, err := s.AddFavorite(ctx, candidate.CandidateID, 9999)
		require.True(t, apperr.IsCode(err, apperr.CodeNotFound))
	})
}

func TestSuggestTitles(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	company := seedCompany(t, s, "Acme")

	titles := []string{
		"Golang Developer", "Golang Developer", "Golang Developer",
		"Senior Golang Developer",
		"Developer Advocate",
	}
	for _, title := range titles {
		j := Job{Title: title, CompanyID: company.CompanyID}
		require.NoError(t, s.CreateJob(ctx, &j))
	}

	got, err := s.SuggestTitles(ctx, "golang", 10)
	require.NoError(t, err)
	require.Equal(t, []string{"Golang Developer", "Senior Golang Developer"}, got)

	t.Run("limit caps the list", func(t *testing.T) {
		got, err := s.SuggestTitles(ctx, "developer", 2)
		require.NoError(t, err)
		require.Len(t, got, 2)
	})

	t.Run("blank query yields nothing", func(t *testing.T) {
		got, err := s.SuggestTitles(ctx, "  !! ", 10)
		require.NoError(t, err)
		require.Empty(t, got)
	})
}

func TestJobFilterOptions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	cache.Init("", time.Minute, 100, time.Minute)
	company := seedCompany(t, s, "Acme")

	for _, j := range []Job{
		{Title: "A", WorkType: "FULL_TIME", WorkLocationType: "REMOTE", PayPeriod: "YEARLY", CompanyID: company.CompanyID},
		{Title: "B", WorkType: "CONTRACT", WorkLocationType: "ONSITE", PayPeriod: "HOURLY", CompanyID: company.CompanyID},
		{Title: "C", WorkType: "FULL_TIME", CompanyID: company.CompanyID},
	} {
		job := j
		require.NoError(t, s.CreateJob(ctx, &job))
	}

	opts, err := s.JobFilterOptions(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"CONTRACT", "FULL_TIME"}, opts.WorkTypes)
	require.Equal(t, []string{"ONSITE", "REMOTE"}, opts.WorkLocationTypes)
	require.Equal(t, []string{"HOURLY", "YEARLY"}, opts.PayPeriods)

	t.Run("mutation invalidates the cached payload", func(t *testing.T) {
		j := Job{Title: "D", WorkType: "PART_TIME", CompanyID: company.CompanyID}
		require.NoError(t, s.CreateJob(ctx, &j))
		opts, err := s.JobFilterOptions(ctx)
		require.NoError(t, err)
		require.Contains(t, opts.WorkTypes, "PART_TIME")
	})
}

func TestCompanies(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	t.Run("inverted size bounds rejected", func(t *testing.T) {
		c := Company{Name: "Bad", SizeMin: iptr(500), SizeMax: iptr(10)}
		err := s.CreateCompany(ctx, &c)
		require.True(t, apperr.IsCode(err, apperr.CodeBadRequest))
	})

	a := seedCompany(t, s, "beta corp")
	b := seedCompany(t, s, "Alpha Inc")

	t.Run("list sorts by name case-insensitively", func(t *testing.T) {
		companies, total, err := s.ListCompanies(ctx, CompanyFilter{}, Sort{Field: "name"}, Page{Page: 1, Limit: 10})
		require.NoError(t, err)
		require.Equal(t, int64(2), total)
		require.Equal(t, b.CompanyID, companies[0].CompanyID)
		require.Equal(t, a.CompanyID, companies[1].CompanyID)
	})

	t.Run("batch get keyed by id", func(t *testing.T) {
		got, err := s.GetCompaniesByIDs(ctx, []int64{a.CompanyID, 9999})
		require.NoError(t, err)
		require.Len(t, got, 1)
		require.Equal(t, "beta corp", got[a.CompanyID].Name)
	})

	t.Run("preset id preserved and counter synced later", func(t *testing.T) {
		c := Company{CompanyID: 500, Name: "Imported"}
		require.NoError(t, s.CreateCompany(ctx, &c))
		maxID, err := s.MaxCompanyID(ctx)
		require.NoError(t, err)
		require.Equal(t, int64(500), maxID)
		require.NoError(t, s.SyncCounter(ctx, SeqCompany, maxID))
		id, err := s.NextID(ctx, SeqCompany)
		require.NoError(t, err)
		require.Equal(t, int64(501), id)
	})
}

func TestFeaturedCompanies(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	cache.Init("", time.Minute, 100, time.Minute)
	a := seedCompany(t, s, "Acme")
	b := seedCompany(t, s, "Beta")

	created, err := s.AddFeaturedCompany(ctx, a.CompanyID)
	require.NoError(t, err)
	require.True(t, created)

	t.Run("duplicate add is idempotent", func(t *testing.T) {
		created, err := s.AddFeaturedCompany(ctx, a.CompanyID)
		require.NoError(t, err)
		require.False(t, created)
	})

	t.Run("list hydrates company records", func(t *testing.T) {
		_, err := s.AddFeaturedCompany(ctx, b.CompanyID)
		require.NoError(t, err)
		companies, err := s.ListFeaturedCompanies(ctx, 10)
		require.NoError(t, err)
		require.Len(t, companies, 2)
	})

	t.Run("remove invalidates the cached list", func(t *testing.T) {
		removed, err := s.RemoveFeaturedCompany(ctx, b.CompanyID)
		require.NoError(t, err)
		require.True(t, removed)
		companies, err := s.ListFeaturedCompanies(ctx, 10)
		require.NoError(t, err)
		require.Len(t, companies, 1)
		require.Equal(t, a.CompanyID, companies[0].CompanyID)
	})

	t.Run("unknown company rejected", func(t *testing.T) {
		_, err := s.AddFeaturedCompany(ctx, 9999)
		require.True(t, apperr.IsCode(err, apperr.CodeNotFound))
	})
}

func TestUsers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := User{Email: "ada@example.com", PasswordHash: "x", Role: "candidate"}
	require.NoError(t, s.CreateUser(ctx, &u))

	t.Run("duplicate email conflicts", func(t *testing.T) {
		dup := User{Email: "ada@example.com", PasswordHash: "y", Role: "candidate"}
		err := s.CreateUser(ctx, &dup)
		require.True(t, apperr.IsCode(err, apperr.CodeConflict))
	})

	t.Run("lookup by email", func(t *testing.T) {
		got, err := s.GetUserByEmail(ctx, "ada@example.com")
		require.NoError(t, err)
		require.Equal(t, u.UserID, got.UserID)
	})

	t.Run("delete unwinds registration", func(t *testing.T) {
		require.NoError(t, s.DeleteUser(ctx, u.UserID))
		_, err := s.GetUserByEmail(ctx, "ada@example.com")
		require.True(t, apperr.IsCode(err, apperr.CodeNotFound))
	})
}

func TestLocations(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	docs := []locationFileDoc{
		{Country: "Mexico", States: []rank.StateDoc{
			{State: "Coahuila", Cities: []string{"Torreon", "Saltillo"}},
			{State: "Jalisco", Cities: []string{"Guadalajara"}},
		}},
		{Country: "Canada", States: []rank.StateDoc{
			{State: "Ontario", Cities: []string{"Toronto"}},
		}},
	}
	data, err := json.Marshal(docs)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "locations.json")
	require.NoError(t, os.WriteFile(path, data, 0600))

	n, err := s.ImportLocations(ctx, path)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	t.Run("listings", func(t *testing.T) {
		countries, err := s.Countries(ctx)
		require.NoError(t, err)
		require.Equal(t, []string{"Canada", "Mexico"}, countries)

		states, err := s.States(ctx, "Mexico")
		require.NoError(t, err)
		require.Equal(t, []string{"Coahuila", "Jalisco"}, states)

		cities, err := s.Cities(ctx, "Mexico", "Coahuila")
		require.NoError(t, err)
		require.Equal(t, []string{"Torreon", "Saltillo"}, cities)

		_, err = s.Cities(ctx, "Mexico", "Yucatan")
		require.True(t, apperr.IsCode(err, apperr.CodeNotFound))
	})

	t.Run("index builds lazily and searches", func(t *testing.T) {
		idx, err := s.LocationIndex(ctx)
		require.NoError(t, err)
		require.Equal(t, 2, idx.Countries())

		results := idx.Search("torreon", 5)
		require.NotEmpty(t, results)
		require.Equal(t, "Torreon", results[0].Main)
	})

	t.Run("reimport with a new country triggers a rebuild", func(t *testing.T) {
		more := append(docs, locationFileDoc{Country: "Chile", States: []rank.StateDoc{
			{State: "Santiago Metropolitan", Cities: []string{"Santiago"}},
		}})
		data, err := json.Marshal(more)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(path, data, 0600))
		_, err = s.ImportLocations(ctx, path)
		require.NoError(t, err)

		idx, err := s.LocationIndex(ctx)
		require.NoError(t, err)
		require.Equal(t, 3, idx.Countries())
	})
}
