package cli

import (
	"bytes"
	"encoding/csv"
	"errors"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"wedding-invitations/internal/config"
	"wedding-invitations/internal/models"
	"wedding-invitations/internal/storage"
	"wedding-invitations/internal/test/mock/backendfakes"
)

type runResult struct {
	out     string
	err     error
	output  string
	dataDir string
}

func setupEnv(t *testing.T, fake *backendfakes.Server) {
	t.Helper()
	t.Setenv("INVITES_LOCAL_BASE_URL", fake.URL)
	t.Setenv("INVITES_LOCAL_ADMIN_EMAIL", fake.Identity)
	t.Setenv("INVITES_LOCAL_ADMIN_PASSWORD", fake.Password)
}

func writeInput(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "guests.csv")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	return path
}

func runProcess(t *testing.T, stdin string, args ...string) runResult {
	t.Helper()
	dir := t.TempDir()
	res := runResult{
		output:  filepath.Join(dir, "output_invitations.csv"),
		dataDir: filepath.Join(dir, "data"),
	}

	var buf bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetArgs(append([]string{"process-invitations", "--output", res.output, "--data-dir", res.dataDir}, args...))
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)

	res.err = cmd.Execute()
	res.out = buf.String()
	return res
}

func readOutput(t *testing.T, path string) []map[string]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	header := records[0]
	var rows []map[string]string
	for _, rec := range records[1:] {
		row := make(map[string]string, len(header))
		for i, col := range header {
			row[col] = rec[i]
		}
		rows = append(rows, row)
	}
	return rows
}

func TestProcessInvitationsEndToEnd(t *testing.T) {
	fake := backendfakes.NewServer(t)
	setupEnv(t, fake)
	input := writeInput(t, "name,email,gender,phone,plus_ones\nJo,jo@x.com,Female,555,1\n")

	res := runProcess(t, input+"\nn\n")
	if res.err != nil {
		t.Fatalf("run: %v\n%s", res.err, res.out)
	}

	guests := fake.Records(config.GuestCollection)
	if len(guests) != 1 || guests[0]["gender"] != "female" || guests[0]["email"] != "jo@x.com" {
		t.Fatalf("unexpected guests: %v", guests)
	}
	primaries := fake.Records(config.PrimaryInvitationCollection)
	if len(primaries) != 1 || primaries[0]["guest"] != guests[0]["id"] || primaries[0]["is_primary"] != true {
		t.Fatalf("unexpected primary invitations: %v", primaries)
	}
	secondaries := fake.Records(config.SecondaryInvitationCollection)
	if len(secondaries) != 1 || secondaries[0]["guest"] != guests[0]["id"] || secondaries[0]["is_primary"] != false {
		t.Fatalf("unexpected secondary invitations: %v", secondaries)
	}

	rows := readOutput(t, res.output)
	if len(rows) != 1 {
		t.Fatalf("expected 1 output row, got %d", len(rows))
	}
	mainLink, err := url.Parse(rows[0]["main_link"])
	if err != nil {
		t.Fatalf("parse main link: %v", err)
	}
	if mainLink.Query().Get("type") != "primary_invitation" || mainLink.Query().Get("id") != primaries[0]["id"] {
		t.Fatalf("unexpected main_link %q", rows[0]["main_link"])
	}
	if !strings.Contains(rows[0]["plus_one_link_1"], "type=secondary_invitation") {
		t.Fatalf("unexpected plus_one_link_1 %q", rows[0]["plus_one_link_1"])
	}
	if !strings.Contains(res.out, "Output CSV generated at "+res.output) {
		t.Fatalf("missing completion message:\n%s", res.out)
	}

	journal, err := storage.NewStorage(filepath.Join(res.dataDir, journalFile))
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	entry, err := journal.GetEntry("jo@x.com")
	if err != nil {
		t.Fatalf("journal entry: %v", err)
	}
	if entry.GuestID != guests[0]["id"] || entry.NotifyStatus != models.NotifyPending {
		t.Fatalf("unexpected journal entry %+v", entry)
	}
}

func TestProcessInvitationsErasesFirst(t *testing.T) {
	fake := backendfakes.NewServer(t)
	fake.SetPageSize(2)
	setupEnv(t, fake)
	fake.Seed(config.GuestCollection, 3)
	fake.Seed(config.PrimaryInvitationCollection, 3)
	fake.Seed(config.SecondaryInvitationCollection, 5)
	input := writeInput(t, "name,email,gender,phone,plus_ones\nJo,jo@x.com,female,555,0\n")

	res := runProcess(t, input+"\ny\n")
	if res.err != nil {
		t.Fatalf("run: %v\n%s", res.err, res.out)
	}

	if n := len(fake.Records(config.GuestCollection)); n != 1 {
		t.Fatalf("expected only the new guest, got %d", n)
	}
	if n := len(fake.Records(config.SecondaryInvitationCollection)); n != 0 {
		t.Fatalf("expected secondary invitations drained, got %d", n)
	}
	if !strings.Contains(res.out, "All existing data deleted.") {
		t.Fatalf("missing erase message:\n%s", res.out)
	}

	// Every delete happens before the first create.
	seenCreate := false
	for _, r := range fake.Requests() {
		switch r.Method {
		case http.MethodPost:
			if r.Collection != "" {
				seenCreate = true
			}
		case http.MethodDelete:
			if seenCreate {
				t.Fatal("delete issued after import started")
			}
		}
	}
}

func TestProcessInvitationsUnknownEnvironment(t *testing.T) {
	fake := backendfakes.NewServer(t)
	setupEnv(t, fake)

	res := runProcess(t, "", "--environment", "staging")
	if !errors.Is(res.err, config.ErrUnknownEnvironment) {
		t.Fatalf("expected ErrUnknownEnvironment, got %v", res.err)
	}
	if n := len(fake.Requests()); n != 0 {
		t.Fatalf("expected no backend calls, got %d", n)
	}
	if _, err := os.Stat(res.output); !os.IsNotExist(err) {
		t.Fatalf("expected no output file, stat err=%v", err)
	}
}

func TestProcessInvitationsAuthFailureAborts(t *testing.T) {
	fake := backendfakes.NewServer(t)
	setupEnv(t, fake)
	t.Setenv("INVITES_LOCAL_ADMIN_PASSWORD", "wrong")
	input := writeInput(t, "name,email,gender,phone,plus_ones\nJo,jo@x.com,female,555,2\n")

	res := runProcess(t, input+"\ny\n")
	if res.err == nil {
		t.Fatal("expected authentication error")
	}
	if !strings.Contains(res.out, "Failed to authenticate as admin.") {
		t.Fatalf("missing auth failure message:\n%s", res.out)
	}
	for _, r := range fake.Requests() {
		if r.Collection != "" {
			t.Fatalf("unexpected collection call %+v", r)
		}
	}
}

func TestProcessInvitationsSkipsFailedRows(t *testing.T) {
	fake := backendfakes.NewServer(t)
	setupEnv(t, fake)
	fake.FailCreates(func(collection string, n int) int {
		if collection == config.GuestCollection && n == 1 {
			return http.StatusBadRequest
		}
		return 0
	})
	input := writeInput(t, "name,email,gender,phone,plus_ones\n"+
		"Bad,bad@x.com,male,1,2\n"+
		"Good,good@x.com,male,2,0\n")

	res := runProcess(t, input+"\n\n")
	if res.err != nil {
		t.Fatalf("run: %v\n%s", res.err, res.out)
	}

	rows := readOutput(t, res.output)
	if len(rows) != 1 || rows[0]["email"] != "good@x.com" {
		t.Fatalf("unexpected output rows %v", rows)
	}
	if n := fake.CountRequests(http.MethodPost, config.SecondaryInvitationCollection); n != 0 {
		t.Fatalf("expected no secondary invitation calls, got %d", n)
	}
	if !strings.Contains(res.out, "bad@x.com") {
		t.Fatalf("expected failure log naming the email:\n%s", res.out)
	}
}

func TestProcessInvitationsBadCSVAbortsBeforeAuth(t *testing.T) {
	fake := backendfakes.NewServer(t)
	setupEnv(t, fake)
	input := writeInput(t, "name,email\nJo,jo@x.com\n")

	res := runProcess(t, input+"\ny\n")
	if res.err == nil || !strings.Contains(res.err.Error(), "missing required columns") {
		t.Fatalf("expected missing columns error, got %v", res.err)
	}
	if n := len(fake.Requests()); n != 0 {
		t.Fatalf("expected no backend calls, got %d", n)
	}
}
