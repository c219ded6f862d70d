package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"jobboard-backend/internal/apperr"
	"jobboard-backend/internal/cache"
	"jobboard-backend/internal/rank"
	"jobboard-backend/internal/textutil"
)

// jobCols is qualified with the j alias so joins against jobs_fts (which
// also has title/description columns) stay unambiguous.
const jobCols = `j.job_id, j.title, j.description, j.min_salary, j.max_salary, j.pay_period, j.currency,
	j.listed_time, j.work_type, j.work_location_type, j.normalized_salary, j.city, j.state, j.country,
	j.company_id, j.created_at, j.updated_at`

func scanJob(row interface{ Scan(...any) error }) (Job, error) {
	var j Job
	var listed sql.NullInt64
	var created, updated string
	err := row.Scan(&j.JobID, &j.Title, &j.Description, &j.MinSalary, &j.MaxSalary, &j.PayPeriod,
		&j.Currency, &listed, &j.WorkType, &j.WorkLocationType, &j.NormalizedSalary,
		&j.City, &j.State, &j.Country, &j.CompanyID, &created, &updated)
	if err != nil {
		return Job{}, err
	}
	if listed.Valid {
		t := time.UnixMilli(listed.Int64).UTC()
		j.ListedTime = &t
	}
	j.CreatedAt = parseRFC3339(created)
	j.UpdatedAt = parseRFC3339(updated)
	return j, nil
}

func listedMilli(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UnixMilli()
}

// CreateJob inserts a job, minting an id unless one is pre-set (import path).
// normalized_salary is always recomputed from the salary bounds and period.
func (s *Store) CreateJob(ctx context.Context, j *Job) error {
	if j.MinSalary != nil && j.MaxSalary != nil && *j.MinSalary > *j.MaxSalary {
		return apperr.BadRequest("min_salary must not exceed max_salary")
	}
	if j.WorkLocationType != "" {
		wlt := strings.ToUpper(j.WorkLocationType)
		switch wlt {
		case WorkLocationOnsite, WorkLocationHybrid, WorkLocationRemote:
			j.WorkLocationType = wlt
		default:
			return apperr.BadRequest(fmt.Sprintf("invalid work_location_type %q", j.WorkLocationType))
		}
	}
	if j.CompanyID == 0 {
		return apperr.BadRequest("company_id is required")
	}
	if _, err := s.GetCompany(ctx, j.CompanyID); err != nil {
		return err
	}
	if j.JobID == 0 {
		id, err := s.NextID(ctx, SeqJob)
		if err != nil {
			return err
		}
		j.JobID = id
	}
	j.NormalizedSalary = NormalizedSalary(j.MinSalary, j.MaxSalary, j.PayPeriod)
	now := nowRFC3339()
	j.CreatedAt = parseRFC3339(now)
	j.UpdatedAt = j.CreatedAt
	_, err := s.exec(ctx, "job create",
		`INSERT INTO jobs (job_id, title, description, min_salary, max_salary, pay_period, currency,
			listed_time, work_type, work_location_type, normalized_salary, city, state, country,
			company_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		j.JobID, j.Title, j.Description, j.MinSalary, j.MaxSalary, j.PayPeriod, j.Currency,
		listedMilli(j.ListedTime), j.WorkType, j.WorkLocationType, j.NormalizedSalary,
		j.City, j.State, j.Country, j.CompanyID, now, now)
	if isUniqueViolation(err) {
		return apperr.Conflict(fmt.Sprintf("job %d already exists", j.JobID))
	}
	if err == nil {
		cache.Invalidate(filterOptionsNS)
	}
	return err
}

// GetJob looks up a job by its external id.
func (s *Store) GetJob(ctx context.Context, jobID int64) (Job, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobCols+` FROM jobs j WHERE j.job_id = ?`, jobID)
	j, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Job{}, apperr.NotFound(fmt.Sprintf("job %d not found", jobID))
	}
	if err != nil {
		return Job{}, fmt.Errorf("job get: %w", err)
	}
	return j, nil
}

// JobUpdate carries the patchable job fields.
type JobUpdate struct {
	Title            *string
	Description      *string
	MinSalary        *float64
	MaxSalary        *float64
	PayPeriod        *string
	Currency         *string
	ListedTime       *time.Time
	WorkType         *string
	WorkLocationType *string
	City             *string
	State            *string
	Country          *string
}

// UpdateJob patches a job. Touching any of min_salary, max_salary or
// pay_period recomputes normalized_salary.
func (s *Store) UpdateJob(ctx context.Context, jobID int64, upd JobUpdate) (Job, error) {
	cur, err := s.GetJob(ctx, jobID)
	if err != nil {
		return Job{}, err
	}
	salaryTouched := false
	if upd.Title != nil {
		cur.Title = *upd.Title
	}
	if upd.Description != nil {
		cur.Description = *upd.Description
	}
	if upd.MinSalary != nil {
		cur.MinSalary = upd.MinSalary
		salaryTouched = true
	}
	if upd.MaxSalary != nil {
		cur.MaxSalary = upd.MaxSalary
		salaryTouched = true
	}
	if upd.PayPeriod != nil {
		cur.PayPeriod = *upd.PayPeriod
		salaryTouched = true
	}
	if upd.Currency != nil {
		cur.Currency = *upd.Currency
	}
	if upd.ListedTime != nil {
		cur.ListedTime = upd.ListedTime
	}
	if upd.WorkType != nil {
		cur.WorkType = *upd.WorkType
	}
	if upd.WorkLocationType != nil {
		wlt := strings.ToUpper(*upd.WorkLocationType)
		switch wlt {
		case WorkLocationOnsite, WorkLocationHybrid, WorkLocationRemote:
			cur.WorkLocationType = wlt
		default:
			return Job{}, apperr.BadRequest(fmt.Sprintf("invalid work_location_type %q", *upd.WorkLocationType))
		}
	}
	if upd.City != nil {
		cur.City = *upd.City
	}
	if upd.State != nil {
		cur.State = *upd.State
	}
	if upd.Country != nil {
		cur.Country = *upd.Country
	}
	if cur.MinSalary != nil && cur.MaxSalary != nil && *cur.MinSalary > *cur.MaxSalary {
		return Job{}, apperr.BadRequest("min_salary must not exceed max_salary")
	}
	if salaryTouched {
		cur.NormalizedSalary = NormalizedSalary(cur.MinSalary, cur.MaxSalary, cur.PayPeriod)
	}
	now := nowRFC3339()
	_, err = s.exec(ctx, "job update",
		`UPDATE jobs SET title=?, description=?, min_salary=?, max_salary=?, pay_period=?, currency=?,
			listed_time=?, work_type=?, work_location_type=?, normalized_salary=?, city=?, state=?, country=?, updated_at=?
		 WHERE job_id=?`,
		cur.Title, cur.Description, cur.MinSalary, cur.MaxSalary, cur.PayPeriod, cur.Currency,
		listedMilli(cur.ListedTime), cur.WorkType, cur.WorkLocationType, cur.NormalizedSalary,
		cur.City, cur.State, cur.Country, now, jobID)
	if err != nil {
		return Job{}, err
	}
	cur.UpdatedAt = parseRFC3339(now)
	cache.Invalidate(filterOptionsNS)
	return cur, nil
}

// DeleteJob removes a job.
func (s *Store) DeleteJob(ctx context.Context, jobID int64) error {
	res, err := s.exec(ctx, "job delete", `DELETE FROM jobs WHERE job_id = ?`, jobID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound(fmt.Sprintf("job %d not found", jobID))
	}
	cache.Invalidate(filterOptionsNS)
	return nil
}

// Allow-listed job sort fields mapped to columns.
var jobSortCols = map[string]string{
	"listed_time":       "listed_time",
	"min_salary":        "min_salary",
	"max_salary":        "max_salary",
	"normalized_salary": "normalized_salary",
	"createdAt":         "created_at",
}

func jobWhere(f JobFilter) ([]string, []any) {
	var conds []string
	var args []any
	eq := func(col, val string) {
		if val != "" {
			conds = append(conds, "j."+col+" = ? COLLATE NOCASE")
			args = append(args, val)
		}
	}
	eq("country", f.Country)
	eq("state", f.State)
	eq("city", f.City)
	eq("work_type", f.WorkType)
	eq("pay_period", f.PayPeriod)
	if f.WorkLocationType != "" {
		conds = append(conds, "j.work_location_type = ?")
		args = append(args, strings.ToUpper(f.WorkLocationType))
	}
	if f.CompanyID != 0 {
		conds = append(conds, "j.company_id = ?")
		args = append(args, f.CompanyID)
	}
	if f.MinSalary != nil {
		conds = append(conds, "j.min_salary >= ?")
		args = append(args, *f.MinSalary)
	}
	if f.MaxSalary != nil {
		conds = append(conds, "j.max_salary <= ?")
		args = append(args, *f.MaxSalary)
	}
	if f.MinNormSalary != nil {
		conds = append(conds, "j.normalized_salary >= ?")
		args = append(args, *f.MinNormSalary)
	}
	if f.MaxNormSalary != nil {
		conds = append(conds, "j.normalized_salary <= ?")
		args = append(args, *f.MaxNormSalary)
	}
	if f.ListedFrom != nil {
		conds = append(conds, "j.listed_time >= ?")
		args = append(args, f.ListedFrom.UnixMilli())
	}
	if f.ListedTo != nil {
		conds = append(conds, "j.listed_time <= ?")
		args = append(args, f.ListedTo.UnixMilli())
	}
	return conds, args
}

// ftsQuery builds an OR match expression over the query tokens. Tokens are
// quoted so FTS operators in user input stay literal.
func ftsQuery(tokens []string) string {
	quoted := make([]string, len(tokens))
	for i, t := range tokens {
		quoted[i] = `"` + strings.ReplaceAll(t, `"`, ``) + `"`
	}
	return strings.Join(quoted, " OR ")
}

// ListJobs is the no-q path: filter, allow-listed sort, paginate.
func (s *Store) ListJobs(ctx context.Context, f JobFilter, srt Sort, page Page) ([]Job, int64, error) {
	conds, args := jobWhere(f)
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM jobs j`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("job count: %w", err)
	}

	col, ok := jobSortCols[srt.Field]
	if !ok {
		col = "listed_time"
	}
	dir := "ASC"
	if srt.Desc {
		dir = "DESC"
	}
	query := `SELECT ` + jobCols + ` FROM jobs j` + where +
		` ORDER BY j.` + col + ` ` + dir + `, j.job_id ASC LIMIT ? OFFSET ?`
	return s.queryJobs(ctx, query, append(args, page.Limit, page.Skip()), total)
}

// SearchJobsSorted is the q+sortBy path: base filters AND a text predicate
// (FTS match or case-insensitive substring on title|description), explicit
// sort.
func (s *Store) SearchJobsSorted(ctx context.Context, f JobFilter, q string, srt Sort, page Page) ([]Job, int64, error) {
	jq, ok := rank.NewJobQuery(q)
	if !ok {
		return s.ListJobs(ctx, f, srt, page)
	}
	conds, args := jobWhere(f)
	like := "%" + textutil.EscapeLike(jq.Phrase) + "%"
	conds = append(conds,
		`(j.id IN (SELECT rowid FROM jobs_fts WHERE jobs_fts MATCH ?) OR j.title LIKE ? ESCAPE '\' OR j.description LIKE ? ESCAPE '\')`)
	args = append(args, ftsQuery(jq.Tokens), like, like)
	where := " WHERE " + strings.Join(conds, " AND ")

	var total int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM jobs j`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("job search count: %w", err)
	}

	col, ok := jobSortCols[srt.Field]
	if !ok {
		col = "listed_time"
	}
	dir := "ASC"
	if srt.Desc {
		dir = "DESC"
	}
	query := `SELECT ` + jobCols + ` FROM jobs j` + where +
		` ORDER BY j.` + col + ` ` + dir + `, j.job_id ASC LIMIT ? OFFSET ?`
	return s.queryJobs(ctx, query, append(args, page.Limit, page.Skip()), total)
}

// SearchJobsHybrid is the q-without-sortBy path. The FTS index supplies the
// candidate set and text score; the hybrid composite (per-token hits, phrase
// hits, recency) is computed in process, then sorted finalScore DESC,
// listed_time DESC and paginated.
func (s *Store) SearchJobsHybrid(ctx context.Context, f JobFilter, q string, page Page) ([]Job, int64, error) {
	jq, ok := rank.NewJobQuery(q)
	if !ok {
		return s.ListJobs(ctx, f, Sort{Field: "listed_time", Desc: true}, page)
	}
	conds, args := jobWhere(f)
	conds = append(conds, `f.jobs_fts MATCH ?`)
	args = append(args, ftsQuery(jq.Tokens))

	query := `SELECT ` + jobCols + `, -bm25(f.jobs_fts) AS text_score
		FROM jobs_fts f JOIN jobs j ON j.id = f.rowid
		WHERE ` + strings.Join(conds, " AND ")
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("job hybrid search: %w", err)
	}
	defer rows.Close()

	type scoredJob struct {
		job   Job
		score float64
	}
	now := time.Now()
	var matches []scoredJob
	for rows.Next() {
		var j Job
		var listed sql.NullInt64
		var created, updated string
		var textScore float64
		if err := rows.Scan(&j.JobID, &j.Title, &j.Description, &j.MinSalary, &j.MaxSalary, &j.PayPeriod,
			&j.Currency, &listed, &j.WorkType, &j.WorkLocationType, &j.NormalizedSalary,
			&j.City, &j.State, &j.Country, &j.CompanyID, &created, &updated, &textScore); err != nil {
			return nil, 0, fmt.Errorf("job hybrid scan: %w", err)
		}
		var listedTime time.Time
		if listed.Valid {
			t := time.UnixMilli(listed.Int64).UTC()
			j.ListedTime = &t
			listedTime = t
		}
		j.CreatedAt = parseRFC3339(created)
		j.UpdatedAt = parseRFC3339(updated)
		matches = append(matches, scoredJob{
			job:   j,
			score: rank.ScoreJob(jq, textScore, j.Title, j.Description, listedTime, now),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("job hybrid rows: %w", err)
	}

	sort.SliceStable(matches, func(i, k int) bool {
		if matches[i].score != matches[k].score {
			return matches[i].score > matches[k].score
		}
		li, lk := int64(0), int64(0)
		if matches[i].job.ListedTime != nil {
			li = matches[i].job.ListedTime.UnixMilli()
		}
		if matches[k].job.ListedTime != nil {
			lk = matches[k].job.ListedTime.UnixMilli()
		}
		return li > lk
	})

	total := int64(len(matches))
	start := page.Skip()
	if start > len(matches) {
		start = len(matches)
	}
	end := start + page.Limit
	if end > len(matches) {
		end = len(matches)
	}
	jobs := make([]Job, 0, end-start)
	for _, m := range matches[start:end] {
		jobs = append(jobs, m.job)
	}
	return jobs, total, nil
}

func (s *Store) queryJobs(ctx context.Context, query string, args []any, total int64) ([]Job, int64, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("job list: %w", err)
	}
	defer rows.Close()
	jobs := []Job{}
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("job list scan: %w", err)
		}
		jobs = append(jobs, j)
	}
	return jobs, total, rows.Err()
}

// SuggestTitles groups matching titles, preferring normalized-prefix matches
// over substring matches, then higher frequency. Returns at most limit titles.
func (s *Store) SuggestTitles(ctx context.Context, q string, limit int) ([]string, error) {
	norm, ok := textutil.NormalizeSearchTerm(q)
	if !ok {
		return []string{}, nil
	}
	if limit <= 0 {
		limit = 10
	}
	like := "%" + textutil.EscapeLike(norm) + "%"
	rows, err := s.db.QueryContext(ctx,
		`SELECT title, COUNT(*) AS cnt FROM jobs WHERE title LIKE ? ESCAPE '\' GROUP BY title`, like)
	if err != nil {
		return nil, fmt.Errorf("title suggest: %w", err)
	}
	defer rows.Close()

	type group struct {
		title     string
		count     int64
		relevance int
	}
	var groups []group
	for rows.Next() {
		var g group
		if err := rows.Scan(&g.title, &g.count); err != nil {
			return nil, fmt.Errorf("title suggest scan: %w", err)
		}
		g.relevance = 1
		if strings.HasPrefix(strings.ToLower(g.title), norm) {
			g.relevance = 2
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(groups, func(i, j int) bool {
		if groups[i].relevance != groups[j].relevance {
			return groups[i].relevance > groups[j].relevance
		}
		return groups[i].count > groups[j].count
	})
	if len(groups) > limit {
		groups = groups[:limit]
	}
	titles := make([]string, len(groups))
	for i, g := range groups {
		titles[i] = g.title
	}
	return titles, nil
}

const filterOptionsNS = "job_filter_options"

// JobFilterOptions returns the sorted, de-duplicated distinct values for the
// filter UI. The payload is TTL-cached and invalidated on job mutations.
func (s *Store) JobFilterOptions(ctx context.Context) (FilterOptions, error) {
	key := cache.Key(filterOptionsNS)
	if opts, ok := cache.Get[FilterOptions](ctx, key); ok {
		return opts, nil
	}

	distinct := func(col string) ([]string, error) {
		rows, err := s.db.QueryContext(ctx,
			`SELECT DISTINCT `+col+` FROM jobs WHERE `+col+` != '' ORDER BY `+col)
		if err != nil {
			return nil, fmt.Errorf("filter options %s: %w", col, err)
		}
		defer rows.Close()
		vals := []string{}
		for rows.Next() {
			var v string
			if err := rows.Scan(&v); err != nil {
				return nil, err
			}
			vals = append(vals, v)
		}
		return vals, rows.Err()
	}

	var opts FilterOptions
	var err error
	if opts.WorkTypes, err = distinct("work_type"); err != nil {
		return FilterOptions{}, err
	}
	if opts.WorkLocationTypes, err = distinct("work_location_type"); err != nil {
		return FilterOptions{}, err
	}
	if opts.PayPeriods, err = distinct("pay_period"); err != nil {
		return FilterOptions{}, err
	}
	cache.Set(ctx, key, opts)
	return opts, nil
}

// MaxJobID returns the highest assigned job id for counter sync.
func (s *Store) MaxJobID(ctx context.Context) (int64, error) {
	var maxID sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(job_id) FROM jobs`).Scan(&maxID); err != nil {
		return 0, fmt.Errorf("job max id: %w", err)
	}
	return maxID.Int64, nil
}
