package notify

import (
	"context"
	"encoding/csv"
	"net/smtp"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"leadscout-engine/internal/config"
	"leadscout-engine/internal/domain"
)

func sampleBatches() domain.Batches {
	lead := domain.Lead{
		Source:        domain.SourceMaps,
		SourceID:      "0x123",
		BusinessName:  "Sweet Stuff",
		Street:        "12 Main St",
		City:          "Austin, TX",
		ZipCode:       "78701",
		Phone:         "5125550142",
		Website:       "https://sweetstuff.example",
		MapURL:        "https://maps.example/0x123",
		ReviewCount:   3,
		Rating:        4.5,
		Category:      "Bakery",
		SearchKeyword: "bakery",
		TargetCity:    "Austin, TX",
		FoundAt:       time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC),
	}
	return domain.Batches{
		Maps: []domain.Batch{{Keyword: "bakery", TargetCity: "Austin, TX", Leads: []domain.Lead{lead}}},
	}
}

func TestFormatPhone(t *testing.T) {
	cases := []struct{ in, want string }{
		{"5125550142", "(512) 555-0142"},
		{"+1 512 555 0142", "+1 512 555 0142"}, // 11 digits, left as-is
		{"(512) 555-0142", "(512) 555-0142"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := formatPhone(tc.in); got != tc.want {
			t.Errorf("formatPhone(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestWriteBatchCSV(t *testing.T) {
	dir := t.TempDir()
	batch := sampleBatches().Maps[0]

	path, err := writeBatchCSV(dir, domain.SourceMaps, batch)
	if err != nil {
		t.Fatalf("write csv: %v", err)
	}

	name := filepath.Base(path)
	wantName := "maps_bakery_Austin__TX_" + time.Now().Format("2006-01-02") + ".csv"
	if name != wantName {
		t.Errorf("file name = %q, want %q", name, wantName)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected header + 1 row, got %d rows", len(rows))
	}
	if rows[0][0] != "Business Name" || rows[0][11] != "Owner/Manager Name" {
		t.Fatalf("unexpected header: %v", rows[0])
	}
	row := rows[1]
	if row[0] != "Sweet Stuff" {
		t.Errorf("business name = %q", row[0])
	}
	if row[1] != "(512) 555-0142" {
		t.Errorf("phone = %q", row[1])
	}
	if row[8] != "2026-08-15" {
		t.Errorf("date = %q", row[8])
	}
	if row[10] != "4.5" {
		t.Errorf("rating = %q", row[10])
	}
	if row[11] != "" {
		t.Errorf("owner column must be blank, got %q", row[11])
	}
}

func testEmailer(dir string, cfg config.Settings) *Emailer {
	return NewEmailer(dir,
		func() config.Settings { return cfg },
		func() (string, error) { return "secret", nil },
	)
}

func TestSendBatchDryRunWritesCSVOnly(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Defaults()
	cfg.SMTP.User = "sender@example.com"

	e := testEmailer(dir, cfg)
	sent := 0
	e.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		sent++
		return nil
	}

	client := domain.Client{Email: "a@b.com", BusinessName: "Acme"}
	if err := e.SendBatch(context.Background(), client, sampleBatches(), true); err != nil {
		t.Fatalf("send: %v", err)
	}
	if sent != 0 {
		t.Fatalf("dry run must not dispatch mail, sent=%d", sent)
	}

	files, err := os.ReadDir(filepath.Join(dir, csvDirName))
	if err != nil {
		t.Fatalf("read csv dir: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("expected 1 csv export in dry run, got %d", len(files))
	}
}

func TestSendBatchDispatchesMail(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Defaults()
	cfg.SMTP.User = "sender@example.com"

	e := testEmailer(dir, cfg)
	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte
	e.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
		return nil
	}

	client := domain.Client{Email: "a@b.com", BusinessName: "Acme"}
	if err := e.SendBatch(context.Background(), client, sampleBatches(), false); err != nil {
		t.Fatalf("send: %v", err)
	}

	if gotAddr != "smtp.gmail.com:587" {
		t.Errorf("addr = %q", gotAddr)
	}
	if gotFrom != "sender@example.com" {
		t.Errorf("from = %q", gotFrom)
	}
	if len(gotTo) != 1 || gotTo[0] != "a@b.com" {
		t.Errorf("to = %v", gotTo)
	}

	msg := string(gotMsg)
	for _, want := range []string{
		"Subject: 1 New Leads for Acme",
		"multipart/mixed",
		"Sweet Stuff",
		"Content-Disposition: attachment",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q", want)
		}
	}
}

func TestSendBatchEmptyIsNoOp(t *testing.T) {
	dir := t.TempDir()
	e := testEmailer(dir, config.Defaults())
	sent := 0
	e.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		sent++
		return nil
	}

	client := domain.Client{Email: "a@b.com", BusinessName: "Acme"}
	if err := e.SendBatch(context.Background(), client, domain.Batches{}, false); err != nil {
		t.Fatalf("send: %v", err)
	}
	if sent != 0 {
		t.Fatal("empty batches must not send mail")
	}
	if _, err := os.Stat(filepath.Join(dir, csvDirName)); !os.IsNotExist(err) {
		t.Fatal("empty batches must not create exports")
	}
}

func TestSendBatchNoSMTPUserLogsAndSkips(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Defaults() // smtp user empty
	e := testEmailer(dir, cfg)
	sent := 0
	e.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		sent++
		return nil
	}

	client := domain.Client{Email: "a@b.com", BusinessName: "Acme"}
	if err := e.SendBatch(context.Background(), client, sampleBatches(), false); err != nil {
		t.Fatalf("send: %v", err)
	}
	if sent != 0 {
		t.Fatal("unconfigured smtp must not attempt dispatch")
	}
}
