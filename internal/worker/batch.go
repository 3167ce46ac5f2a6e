package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
)

// StatusChecker reports the review state of one entity's annotations.
type StatusChecker interface {
	Approved(ctx context.Context, entityID, username string) (bool, error)
	ListComments(ctx context.Context, entityID, username string) (int, error)
}

// EntityStatus is the review state of one entity.
type EntityStatus struct {
	EntityID string
	Approved bool
	Comments int
	Error    error
}

// GetError returns the error that stopped the check, if any.
func (s *EntityStatus) GetError() error {
	return s.Error
}

// StatusJob checks one entity.
type StatusJob struct {
	EntityID string
	Username string
	Checker  StatusChecker
}

// Execute runs the approval check, then counts comments.
func (j *StatusJob) Execute(ctx context.Context) Result {
	status := &EntityStatus{EntityID: j.EntityID}

	approved, err := j.Checker.Approved(ctx, j.EntityID, j.Username)
	if err != nil {
		status.Error = fmt.Errorf("check approval: %w", err)
		return status
	}
	status.Approved = approved

	n, err := j.Checker.ListComments(ctx, j.EntityID, j.Username)
	if err != nil {
		status.Error = fmt.Errorf("list comments: %w", err)
		return status
	}
	status.Comments = n
	return status
}

// StatusBatch checks many entities concurrently.
type StatusBatch struct {
	checker     StatusChecker
	username    string
	concurrency int
}

// NewStatusBatch creates a batch for username's annotations.
func NewStatusBatch(checker StatusChecker, username string, concurrency int) *StatusBatch {
	return &StatusBatch{checker: checker, username: username, concurrency: concurrency}
}

// Check runs every entity and returns results sorted by entity id.
func (b *StatusBatch) Check(ctx context.Context, entityIDs []string) []*EntityStatus {
	if len(entityIDs) == 0 {
		return []*EntityStatus{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()
	for _, id := range entityIDs {
		if !pool.Submit(&StatusJob{EntityID: id, Username: b.username, Checker: b.checker}) {
			break
		}
	}
	results := pool.Wait()

	statuses := make([]*EntityStatus, 0, len(results))
	for _, r := range results {
		statuses = append(statuses, r.(*EntityStatus))
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i].EntityID < statuses[j].EntityID })
	return statuses
}

// CheckFile reads entity ids from path and checks them.
func (b *StatusBatch) CheckFile(ctx context.Context, path string) ([]*EntityStatus, error) {
	ids, err := ReadEntityIDsFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("read entity ids: %w", err)
	}
	return b.Check(ctx, ids), nil
}

// ReadEntityIDsFromFile reads one entity id per line, skipping blanks,
// "#" comments and duplicates.
func ReadEntityIDsFromFile(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var ids []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !seen[line] {
			seen[line] = true
			ids = append(ids, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}
	return ids, nil
}
