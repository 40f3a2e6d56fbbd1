package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pimtong/fieldworks-backend/pkg/migrate"
)

func TestJobsMigrationContainsConstraints(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_projects_and_jobs.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no jobs migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE IF NOT EXISTS jobs",
		"CHECK (status IN ('pending', 'assigned', 'in_progress', 'completed', 'cancelled'))",
		"CHECK (job_type IN ('sales', 'project', 'service'))",
		"FOREIGN KEY (project_id) REFERENCES projects(id) ON DELETE SET NULL",
		"idx_jobs_scheduled_date",
		"DROP TABLE IF EXISTS jobs",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestAssignmentsMigrationRequiresAnAssignee(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_assignments_and_job_history.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no assignments migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"FOREIGN KEY (job_id) REFERENCES jobs(id) ON DELETE CASCADE",
		"CHECK (technician_id IS NOT NULL OR team_id IS NOT NULL)",
		"CREATE TABLE IF NOT EXISTS job_histories",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestMigrationsDirValidates(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("validate migrations dir: %v", err)
	}
}
